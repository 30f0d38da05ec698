package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_renderer.go -package=mocks nyaymitra/internal/service DocumentRenderer
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks nyaymitra/internal/service DocumentStore
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_service.go -package=mocks -mock_names=DocumentService=MockDocumentService nyaymitra/internal/service DocumentService

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf16"

	"nyaymitra/internal/contextutil"
	"nyaymitra/internal/drafting"
	"nyaymitra/internal/llm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// DocumentRenderer lays out drafted text as a file.
type DocumentRenderer interface {
	Render(w io.Writer, content string) error
}

// DocumentStore keeps rendered documents and names them.
type DocumentStore interface {
	Save(ctx context.Context, docType string, r io.Reader) (string, error)
}

// DocumentObserver is told about every generated document.
type DocumentObserver interface {
	ObserveDocument(docType string)
}

// GenerateRequest asks for a document of Type filled from Fields.
type GenerateRequest struct {
	Type   string
	Fields drafting.Fields
}

// DocumentMetadata summarises a drafted document.
type DocumentMetadata struct {
	GeneratedAt    time.Time `json:"generatedAt"`
	WordCount      int       `json:"wordCount"`
	CharacterCount int       `json:"characterCount"`
}

// GeneratedDocument is a drafted and stored document.
type GeneratedDocument struct {
	Filename     string
	Type         string
	DocumentType string
	Content      string
	Offline      bool
	Metadata     DocumentMetadata
}

// DocumentService drafts legal documents.
type DocumentService interface {
	// Generate drafts, renders and stores a document.
	Generate(ctx context.Context, req GenerateRequest) (GeneratedDocument, error)
	// Types lists the available document types.
	Types() []drafting.TypeInfo
	// Template describes one document type by its exact code.
	Template(code string) (drafting.TemplateInfo, error)
}

// DocumentConfig tunes the document service.
type DocumentConfig struct {
	// Offline fills templates directly instead of asking the LLM.
	Offline  bool
	Model    string
	Observer DocumentObserver
	Now      func() time.Time
}

type documentService struct {
	catalog   *drafting.Catalog
	llmClient LLMClient
	renderer  DocumentRenderer
	store     DocumentStore
	cfg       DocumentConfig
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(catalog *drafting.Catalog, llmClient LLMClient, renderer DocumentRenderer, store DocumentStore, cfg DocumentConfig) DocumentService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &documentService{
		catalog:   catalog,
		llmClient: llmClient,
		renderer:  renderer,
		store:     store,
		cfg:       cfg,
	}
}

func (s *documentService) Generate(ctx context.Context, req GenerateRequest) (GeneratedDocument, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Type) == "" {
		return GeneratedDocument{}, &ValidationError{Field: "type", Message: "Document type is required"}
	}

	tmpl, err := s.catalog.Lookup(req.Type)
	if err != nil {
		logger.WarnContext(ctx, "unknown document type", "type", req.Type)
		return GeneratedDocument{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	now := s.cfg.Now()
	fields := drafting.Normalize(req.Fields, now)
	if err := drafting.Validate(tmpl, fields); err != nil {
		logger.WarnContext(ctx, "document request is missing critical fields", "type", tmpl.Code, "error", err)
		return GeneratedDocument{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	content, err := s.draft(ctx, tmpl, fields, now)
	if err != nil {
		return GeneratedDocument{}, err
	}

	var pdf bytes.Buffer
	if err := s.renderer.Render(&pdf, content); err != nil {
		logger.ErrorContext(ctx, "failed to render document", "type", tmpl.Code, "error", err)
		return GeneratedDocument{}, WrapError(err, "failed to render document")
	}
	filename, err := s.store.Save(ctx, req.Type, &pdf)
	if err != nil {
		logger.ErrorContext(ctx, "failed to store document", "type", tmpl.Code, "error", err)
		return GeneratedDocument{}, WrapError(err, "failed to store document")
	}

	if s.cfg.Observer != nil {
		s.cfg.Observer.ObserveDocument(tmpl.Code)
	}
	logger.InfoContext(ctx, "document generated", "type", tmpl.Code, "filename", filename, "offline", s.cfg.Offline)

	return GeneratedDocument{
		Filename:     filename,
		Type:         req.Type,
		DocumentType: tmpl.Name,
		Content:      content,
		Offline:      s.cfg.Offline,
		Metadata: DocumentMetadata{
			GeneratedAt:    now.UTC(),
			WordCount:      len(whitespaceRun.Split(content, -1)),
			CharacterCount: len(utf16.Encode([]rune(content))),
		},
	}, nil
}

// draft produces the document text, from the LLM or, offline, from the template itself.
func (s *documentService) draft(ctx context.Context, tmpl *drafting.Template, fields drafting.Fields, now time.Time) (string, error) {
	if s.cfg.Offline {
		content, err := drafting.Fill(tmpl, fields)
		if err != nil {
			return "", WrapError(err, "failed to fill template")
		}
		return content, nil
	}

	prompt, err := drafting.BuildPrompt(tmpl, fields, now)
	if err != nil {
		return "", WrapError(err, "failed to build drafting prompt")
	}
	content, err := s.llmClient.ChatWithMessages(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: drafting.SystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}, llm.ChatParams{
		Model:       s.cfg.Model,
		MaxTokens:   drafting.MaxTokens,
		Temperature: drafting.Temperature,
	})
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to draft document", "type", tmpl.Code, "error", err)
		return "", fmt.Errorf("%w: failed to draft document: %w", ErrExternalService, err)
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: model returned an empty document", ErrExternalService)
	}
	return content, nil
}

func (s *documentService) Types() []drafting.TypeInfo {
	return s.catalog.Types()
}

func (s *documentService) Template(code string) (drafting.TemplateInfo, error) {
	info, ok := s.catalog.Info(code)
	if !ok {
		return drafting.TemplateInfo{}, fmt.Errorf("%w: Document type not found", ErrNotFound)
	}
	return info, nil
}
