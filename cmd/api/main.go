package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nyaymitra/internal/config"
	"nyaymitra/internal/contextutil"
	"nyaymitra/internal/corpus"
	"nyaymitra/internal/docstore"
	"nyaymitra/internal/drafting"
	"nyaymitra/internal/http"
	"nyaymitra/internal/llm"
	"nyaymitra/internal/metrics"
	"nyaymitra/internal/pdfrender"
	"nyaymitra/internal/retrieval"
	"nyaymitra/internal/service"
	"nyaymitra/internal/upload"
	"nyaymitra/internal/websearch"
	"nyaymitra/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = contextutil.WithLogger(ctx, logger)

	m := metrics.New()

	// Knowledge base: loaded once, optionally reloaded when the file changes
	retriever := retrieval.New(
		corpus.NewLoader(cfg.KBPath),
		retrieval.WithWeights(cfg.Weights.Weights(retrieval.DefaultWeights())),
		retrieval.WithObserver(m),
	)
	stats := retriever.Stats(ctx)
	slog.Info("Knowledge base loaded", "source", stats.Source, "sections", stats.Sections, "chars", stats.CorpusChars)
	if stats.Sections == 0 {
		slog.Warn("Knowledge base is empty; answers will rely on web search", "path", cfg.KBPath)
	}
	if cfg.KBWatch {
		watcher := corpus.NewWatcher(cfg.KBPath, retriever.Swap)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				slog.Error("Knowledge base watcher stopped", "error", err)
			}
		}()
	}

	webSearch := websearch.NewClient(websearch.Config{
		Enabled:           cfg.WebSearchEnabled,
		Timeout:           cfg.WebSearchTimeout,
		CacheSize:         cfg.WebSearchCacheSize,
		CacheTTL:          cfg.WebSearchCacheTTL,
		RequestsPerSecond: cfg.WebSearchRPS,
		Observer:          m,
	})

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
	llmClient.Observer = m
	offline := !cfg.LLMConfigured()
	if offline {
		slog.Warn("No LLM API key configured; chat answers come from web search and documents from templates")
	}

	chatService := service.NewChatService(llmClient, webSearch, retriever, service.ChatConfig{
		Offline:    offline,
		RAGTopK:    cfg.RAGTopK,
		ChunkDelay: cfg.StreamChunkDelay,
	})

	// Document drafting
	catalog, err := drafting.NewCatalog()
	if err != nil {
		log.Fatalf("Failed to load document templates: %v", err)
	}
	store, err := docstore.New(cfg.GeneratedDocsDir)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	documentService := service.NewDocumentService(catalog, llmClient, pdfrender.New(nil), store, service.DocumentConfig{
		Offline:  offline,
		Model:    cfg.LLMModelName,
		Observer: m,
	})

	janitor := docstore.NewJanitor(store, cfg.DocMaxAge, cfg.CleanupSchedule, m, logger)
	if err := janitor.Start(ctx); err != nil {
		log.Fatalf("Failed to schedule document cleanup: %v", err)
	}
	slog.Info("Document store ready", "dir", store.Dir(), "max_age", cfg.DocMaxAge, "schedule", cfg.CleanupSchedule)

	// Create router with dependencies
	router := http.NewRouter(&http.Deps{
		ChatService:      chatService,
		DocumentService:  documentService,
		Retriever:        retriever,
		KnowledgeBase:    retriever,
		Extractor:        upload.NewExtractor(cfg.UploadDir, upload.DefaultMaxSize),
		Files:            store,
		Metrics:          m,
		WebSearchEnabled: webSearch.Enabled(),
		LLMConfigured:    !offline,
		GoogleMapsAPIKey: cfg.GoogleMapsAPIKey,
		IndexHTML:        web.IndexHTML,
	})

	// Streamed chat replies can run long, so there is no write timeout.
	srv := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", srv.Addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName, "offline", offline)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	janitor.Stop(shutdownCtx)
}
