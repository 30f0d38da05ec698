package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"nyaymitra/internal/handlers"
	"nyaymitra/internal/metrics"
	"nyaymitra/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService     service.ChatService
	DocumentService service.DocumentService
	Retriever       service.Retriever
	KnowledgeBase   handlers.KnowledgeBase
	Extractor       handlers.DocumentExtractor
	Files           handlers.DocumentFiles
	// Metrics is optional; without it /metrics is not served.
	Metrics *metrics.Metrics

	WebSearchEnabled    bool
	LLMConfigured       bool
	GoogleMapsAPIKey    string
	DownloadDeleteDelay time.Duration
	IndexHTML           string // Embedded HTML content
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(CORS)
	r.Use(SecurityHeaders)

	preview := handlers.NewPreviewDocHandler(deps.Files)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat", handlers.NewChatHandler(deps.ChatService, deps.Extractor))

		r.Method(http.MethodPost, "/generate-doc", handlers.NewGenerateDocHandler(deps.DocumentService))
		r.Method(http.MethodGet, "/document-types", handlers.NewDocumentTypesHandler(deps.DocumentService))
		r.Method(http.MethodGet, "/document-template/{type}", handlers.NewDocumentTemplateHandler(deps.DocumentService))

		r.Method(http.MethodGet, "/preview-doc/{filename}", preview)
		r.Method(http.MethodHead, "/preview-doc/{filename}", preview)
		r.Method(http.MethodGet, "/download-doc/{filename}", handlers.NewDownloadDocHandler(deps.Files, deps.DownloadDeleteDelay))
		r.Method(http.MethodGet, "/list-docs", handlers.NewListDocsHandler(deps.Files))

		r.Method(http.MethodGet, "/retrieve", handlers.NewRetrieveHandler(deps.Retriever))
		r.Method(http.MethodGet, "/maps-key", handlers.NewMapsKeyHandler(deps.GoogleMapsAPIKey))
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.KnowledgeBase, deps.WebSearchEnabled, deps.LLMConfigured))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// Serve HTML page at root
	index := handlers.NewIndexHandler(deps.IndexHTML)
	r.Method(http.MethodGet, "/", index)
	r.Method(http.MethodHead, "/", index)

	return r
}
