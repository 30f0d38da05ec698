package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"nyaymitra/internal/contextutil"
	"nyaymitra/internal/drafting"
	"nyaymitra/internal/service"
)

// maxGenerateBody is the largest accepted document request body (10MB).
const maxGenerateBody = 10 << 20

// GenerateDocResponse describes a generated document and where to fetch it.
type GenerateDocResponse struct {
	Success      bool                     `json:"success"`
	Message      string                   `json:"message"`
	Filename     string                   `json:"filename"`
	PreviewURL   string                   `json:"previewUrl"`
	DownloadURL  string                   `json:"downloadUrl"`
	Type         string                   `json:"type"`
	DocumentType string                   `json:"documentType"`
	Metadata     service.DocumentMetadata `json:"metadata"`
}

// DocumentTypesResponse lists the document types that can be generated.
type DocumentTypesResponse struct {
	Success       bool                `json:"success"`
	DocumentTypes []drafting.TypeInfo `json:"documentTypes"`
}

// DocumentTemplateResponse describes one document type.
type DocumentTemplateResponse struct {
	Success  bool                  `json:"success"`
	Template drafting.TemplateInfo `json:"template"`
}

func previewURL(filename string) string  { return "/api/preview-doc/" + filename }
func downloadURL(filename string) string { return "/api/download-doc/" + filename }

// GenerateDocHandler drafts a legal document from {type, ...fields} and stores it as a PDF.
type GenerateDocHandler struct {
	documents service.DocumentService
}

// NewGenerateDocHandler creates a new GenerateDocHandler.
func NewGenerateDocHandler(documents service.DocumentService) *GenerateDocHandler {
	return &GenerateDocHandler{documents: documents}
}

func (h *GenerateDocHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBody)).Decode(&body); err != nil {
		logger.WarnContext(ctx, "invalid document request body", "error", err)
		writeJSON(ctx, w, http.StatusBadRequest, FailureResponse{Error: "Invalid request body"})
		return
	}

	docType, _ := body["type"].(string)
	delete(body, "type")
	logger.InfoContext(ctx, "generating document", "type", docType, "fields", len(body))

	doc, err := h.documents.Generate(ctx, service.GenerateRequest{Type: docType, Fields: drafting.Fields(body)})
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			logger.WarnContext(ctx, "document request rejected", "error", err)
			writeJSON(ctx, w, http.StatusBadRequest, FailureResponse{Error: validationErr.Message})
			return
		}
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "failed to generate document", "error", err)
		} else {
			logger.WarnContext(ctx, "document request rejected", "error", err)
		}
		writeJSON(ctx, w, status, FailureResponse{Error: "Failed to generate document", Details: detail(err)})
		return
	}

	writeJSON(ctx, w, http.StatusOK, GenerateDocResponse{
		Success:      true,
		Message:      "Document generated successfully with AI formatting",
		Filename:     doc.Filename,
		PreviewURL:   previewURL(doc.Filename),
		DownloadURL:  downloadURL(doc.Filename),
		Type:         doc.Type,
		DocumentType: doc.DocumentType,
		Metadata:     doc.Metadata,
	})
}

// DocumentTypesHandler lists the available document types.
type DocumentTypesHandler struct {
	documents service.DocumentService
}

// NewDocumentTypesHandler creates a new DocumentTypesHandler.
func NewDocumentTypesHandler(documents service.DocumentService) *DocumentTypesHandler {
	return &DocumentTypesHandler{documents: documents}
}

func (h *DocumentTypesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, DocumentTypesResponse{
		Success:       true,
		DocumentTypes: h.documents.Types(),
	})
}

// DocumentTemplateHandler describes the template behind one document type code.
type DocumentTemplateHandler struct {
	documents service.DocumentService
}

// NewDocumentTemplateHandler creates a new DocumentTemplateHandler.
func NewDocumentTemplateHandler(documents service.DocumentService) *DocumentTemplateHandler {
	return &DocumentTemplateHandler{documents: documents}
}

func (h *DocumentTemplateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := strings.TrimSpace(chi.URLParam(r, "type"))

	info, err := h.documents.Template(code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			contextutil.LoggerFromContext(ctx).InfoContext(ctx, "unknown document template", "type", code)
			writeJSON(ctx, w, http.StatusNotFound, FailureResponse{Error: "Document type not found"})
			return
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to fetch template", "type", code, "error", err)
		writeJSON(ctx, w, http.StatusInternalServerError, FailureResponse{Error: "Failed to fetch template"})
		return
	}
	writeJSON(ctx, w, http.StatusOK, DocumentTemplateResponse{Success: true, Template: info})
}
