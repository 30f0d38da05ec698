package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"nyaymitra/internal/contextutil"
	"nyaymitra/internal/docstore"
)

// DefaultDeleteDelay is how long a downloaded document survives after it has been sent.
const DefaultDeleteDelay = time.Second

// DocumentFiles is the generated document storage as the file endpoints use it.
type DocumentFiles interface {
	Open(name string) (*os.File, docstore.Document, error)
	List(ctx context.Context) ([]docstore.Document, error)
	RemoveAfter(ctx context.Context, name string, delay time.Duration) *time.Timer
}

// ListedDocument is one entry of the document listing.
type ListedDocument struct {
	Filename    string    `json:"filename"`
	Created     time.Time `json:"created"`
	Size        int64     `json:"size"`
	PreviewURL  string    `json:"previewUrl"`
	DownloadURL string    `json:"downloadUrl"`
}

// ListDocsResponse lists stored documents, newest first.
type ListDocsResponse struct {
	Documents []ListedDocument `json:"documents"`
}

func disposition(kind, filename string) string {
	return mime.FormatMediaType(kind, map[string]string{"filename": filename})
}

// openDocument opens the document named in the route, writing a 404 or 500 when it cannot.
func openDocument(w http.ResponseWriter, r *http.Request, files DocumentFiles, failure string) (*os.File, docstore.Document, bool) {
	ctx := r.Context()
	name := chi.URLParam(r, "filename")

	f, doc, err := files.Open(name)
	switch {
	case errors.Is(err, docstore.ErrNotFound), errors.Is(err, docstore.ErrInvalidName):
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "document not found", "filename", name)
		writeError(w, http.StatusNotFound, "Document not found")
		return nil, doc, false
	case err != nil:
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to open document", "filename", name, "error", err)
		writeError(w, http.StatusInternalServerError, failure)
		return nil, doc, false
	}
	return f, doc, true
}

// PreviewDocHandler serves a stored PDF inline. HEAD requests get the headers only.
type PreviewDocHandler struct {
	files DocumentFiles
}

// NewPreviewDocHandler creates a new PreviewDocHandler.
func NewPreviewDocHandler(files DocumentFiles) *PreviewDocHandler {
	return &PreviewDocHandler{files: files}
}

func (h *PreviewDocHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f, doc, ok := openDocument(w, r, h.files, "Failed to preview document")
	if !ok {
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", disposition("inline", doc.Filename))
	http.ServeContent(w, r, doc.Filename, doc.Created, f)
}

// DownloadDocHandler sends a stored PDF as an attachment and deletes it shortly afterwards.
type DownloadDocHandler struct {
	files       DocumentFiles
	deleteDelay time.Duration
}

// NewDownloadDocHandler creates a new DownloadDocHandler. A non-positive delay means DefaultDeleteDelay.
func NewDownloadDocHandler(files DocumentFiles, deleteDelay time.Duration) *DownloadDocHandler {
	if deleteDelay <= 0 {
		deleteDelay = DefaultDeleteDelay
	}
	return &DownloadDocHandler{files: files, deleteDelay: deleteDelay}
}

func (h *DownloadDocHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	f, doc, ok := openDocument(w, r, h.files, "Failed to download document")
	if !ok {
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", disposition("attachment", doc.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f); err != nil {
		// Kept for a retry; the janitor removes it once it is old enough.
		logger.WarnContext(ctx, "document download interrupted", "filename", doc.Filename, "error", err)
		return
	}
	h.files.RemoveAfter(context.WithoutCancel(ctx), doc.Filename, h.deleteDelay)
	logger.InfoContext(ctx, "document downloaded", "filename", doc.Filename, "bytes", doc.Size)
}

// ListDocsHandler lists stored documents with their preview and download links.
type ListDocsHandler struct {
	files DocumentFiles
}

// NewListDocsHandler creates a new ListDocsHandler.
func NewListDocsHandler(files DocumentFiles) *ListDocsHandler {
	return &ListDocsHandler{files: files}
}

func (h *ListDocsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.files.List(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	resp := ListDocsResponse{Documents: make([]ListedDocument, 0, len(docs))}
	for _, d := range docs {
		resp.Documents = append(resp.Documents, ListedDocument{
			Filename:    d.Filename,
			Created:     d.Created,
			Size:        d.Size,
			PreviewURL:  previewURL(d.Filename),
			DownloadURL: downloadURL(d.Filename),
		})
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}
