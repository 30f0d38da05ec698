package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks nyaymitra/internal/service LLMClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_web_searcher.go -package=mocks nyaymitra/internal/service WebSearcher
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retriever.go -package=mocks nyaymitra/internal/service Retriever
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService nyaymitra/internal/service ChatService

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"nyaymitra/internal/contextutil"
	"nyaymitra/internal/llm"
	"nyaymitra/internal/retrieval"
	"nyaymitra/internal/upload"
	"nyaymitra/internal/websearch"
)

const (
	documentExcerptLen = 2000
	summaryExcerptLen  = 500
	webContextLen      = 2000
	offlineWebLen      = 1500
	maxSources         = 3
	sectionSeparator   = "\n\n---\n\n"

	defaultChunkSize = 10
	defaultRAGTopK   = 3
)

// LLMClient is the language model as the chat and drafting services use it.
type LLMClient interface {
	// ChatWithMessages sends a conversation and returns the complete reply.
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
	// StreamWithMessages sends a conversation and streams the reply via callback.
	StreamWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams, callback func(chunk string) error) error
}

// WebSearcher looks up current public information for a question.
type WebSearcher interface {
	Search(ctx context.Context, query string) (websearch.Result, error)
}

// Retriever finds knowledge base sections relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) retrieval.Result
}

// ChatRequest represents a chat request in the domain layer.
type ChatRequest struct {
	Query    string
	Document *upload.Document
}

// ChatResponse represents a chat response in the domain layer.
type ChatResponse struct {
	Reply   string
	Offline bool
}

// ChatService answers legal questions.
type ChatService interface {
	// ProcessChat answers a question and returns the whole reply.
	ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// StreamChat answers a question and streams the reply via callback.
	StreamChat(ctx context.Context, req ChatRequest, callback func(chunk string) error) error
}

// ChatConfig tunes the chat service.
type ChatConfig struct {
	// Offline answers from web search and canned text instead of the LLM.
	Offline bool
	// RAGTopK is how many knowledge base sections back an answer when the web has nothing.
	RAGTopK int
	// ChunkSize and ChunkDelay pace offline answers so they stream like model output.
	ChunkSize  int
	ChunkDelay time.Duration
}

type chatService struct {
	llmClient LLMClient
	web       WebSearcher
	retriever Retriever
	cfg       ChatConfig
}

// NewChatService creates a new ChatService.
func NewChatService(llmClient LLMClient, web WebSearcher, retriever Retriever, cfg ChatConfig) ChatService {
	if cfg.RAGTopK <= 0 {
		cfg.RAGTopK = defaultRAGTopK
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	return &chatService{
		llmClient: llmClient,
		web:       web,
		retriever: retriever,
		cfg:       cfg,
	}
}

// chatContext is everything gathered for one question before answering it.
type chatContext struct {
	prompt  string
	web     websearch.Result
	webErr  error
	related retrieval.Result
}

// ProcessChat answers a question and returns the whole reply.
func (s *chatService) ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := s.logger(ctx)
	if err := validateChat(req); err != nil {
		logger.WarnContext(ctx, "empty chat request")
		return ChatResponse{}, err
	}

	cc, err := s.gather(ctx, logger, req)
	if err != nil {
		return ChatResponse{}, err
	}

	if s.cfg.Offline {
		reply := s.offlineAnswer(req.Query, cc)
		logger.InfoContext(ctx, "chat answered offline", "reply_length", len(reply))
		return ChatResponse{Reply: reply, Offline: true}, nil
	}

	reply, err := s.llmClient.ChatWithMessages(ctx, messages(cc.prompt), llm.ChatParams{})
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return ChatResponse{}, fmt.Errorf("%w: failed to get LLM response: %w", ErrExternalService, err)
	}

	logger.InfoContext(ctx, "chat request processed successfully", "query_length", len(req.Query), "reply_length", len(reply))
	return ChatResponse{Reply: reply}, nil
}

// StreamChat answers a question and streams the reply via callback.
func (s *chatService) StreamChat(ctx context.Context, req ChatRequest, callback func(chunk string) error) error {
	logger := s.logger(ctx)
	if err := validateChat(req); err != nil {
		logger.WarnContext(ctx, "empty streaming chat request")
		return err
	}

	cc, err := s.gather(ctx, logger, req)
	if err != nil {
		return err
	}

	if s.cfg.Offline {
		reply := s.offlineAnswer(req.Query, cc)
		if err := s.relay(ctx, reply, callback); err != nil {
			return err
		}
		logger.InfoContext(ctx, "streamed offline answer", "reply_length", len(reply))
		return nil
	}

	if err := s.llmClient.StreamWithMessages(ctx, messages(cc.prompt), llm.ChatParams{}, callback); err != nil {
		logger.ErrorContext(ctx, "failed to stream LLM response", "error", err)
		return fmt.Errorf("%w: failed to stream LLM response: %w", ErrExternalService, err)
	}

	logger.InfoContext(ctx, "streaming chat request processed successfully", "query_length", len(req.Query))
	return nil
}

func (s *chatService) logger(ctx context.Context) *slog.Logger {
	id := contextutil.RequestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	return contextutil.LoggerFromContext(ctx).With("chat_id", id)
}

func validateChat(req ChatRequest) error {
	if strings.TrimSpace(req.Query) == "" && req.Document == nil {
		return &ValidationError{Field: "query", Message: "cannot be empty"}
	}
	return nil
}

// gather builds the model prompt: the uploaded document, then web context, and knowledge base
// sections only when the web returned nothing.
func (s *chatService) gather(ctx context.Context, logger *slog.Logger, req ChatRequest) (chatContext, error) {
	var cc chatContext
	var b strings.Builder

	if req.Document != nil {
		b.WriteString("[DOCUMENT ANALYSIS]:\n")
		b.WriteString(clipRunes(req.Document.Text, documentExcerptLen))
		b.WriteString("...\n\n")
	}

	cc.web, cc.webErr = s.web.Search(ctx, req.Query)
	if cc.webErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return cc, ctxErr
		}
		logger.WarnContext(ctx, "web search failed", "error", cc.webErr)
	}

	if !cc.web.Empty() {
		b.WriteString("[WEB CONTEXT]\n")
		b.WriteString(clipRunes(cc.web.Text, webContextLen))
		b.WriteString("\n\n[SOURCES]\n")
		b.WriteString(sourceList(cc.web.Sources))
		b.WriteString("\n\n")
	} else {
		ragQuery := req.Query
		if ragQuery == "" && req.Document != nil {
			ragQuery = "Summarize this document: " + clipRunes(req.Document.Text, summaryExcerptLen)
		}
		cc.related = s.retriever.Retrieve(ctx, ragQuery, s.cfg.RAGTopK)
		if len(cc.related) > 0 {
			b.WriteString("[LEGAL CONTEXT]\n")
			b.WriteString(strings.Join(cc.related.Texts(), sectionSeparator))
		}
		logger.DebugContext(ctx, "knowledge base context", "type", cc.related.Type(), "sections", len(cc.related))
	}

	cc.prompt = b.String() + "\n\n**User Question:** \"" + req.Query + "\""
	return cc, nil
}

func messages(prompt string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}
}

// offlineAnswer explains web findings in plain words, or falls back to a canned answer when
// the web could not be reached at all.
func (s *chatService) offlineAnswer(query string, cc chatContext) string {
	if cc.webErr != nil {
		var related []string
		if cc.related.HasContent() {
			related = cc.related.Texts()
		}
		return fallbackAnswer(query, related)
	}
	if cc.web.Empty() {
		return "I tried to look up current information online, but couldn't find a clear result right now.\n\n" +
			"Please try rephrasing the question with a bit more detail (for example, mention the law/section or your exact situation).\n\n" +
			Disclaimer
	}

	sources := sourceList(cc.web.Sources)
	if sources == "" {
		sources = "- (No direct sources found)"
	}
	return "Here is a simple explanation based on what I found online:\n\n" +
		clipRunes(cc.web.Text, offlineWebLen) +
		"\n\nSources:\n" + sources + "\n\n" + Disclaimer
}

// relay sends text to callback in fixed-size rune chunks, pausing between them.
func (s *chatService) relay(ctx context.Context, text string, callback func(chunk string) error) error {
	runes := []rune(text)
	for start := 0; start < len(runes); start += s.cfg.ChunkSize {
		end := min(start+s.cfg.ChunkSize, len(runes))
		if err := callback(string(runes[start:end])); err != nil {
			return fmt.Errorf("callback error: %w", err)
		}
		if s.cfg.ChunkDelay <= 0 || end == len(runes) {
			continue
		}
		timer := time.NewTimer(s.cfg.ChunkDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

func sourceList(sources []websearch.Source) string {
	lines := make([]string, 0, maxSources)
	for _, src := range sources {
		if len(lines) == maxSources {
			break
		}
		lines = append(lines, "- "+src.Title+": "+src.URL)
	}
	return strings.Join(lines, "\n")
}
