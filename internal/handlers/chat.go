package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"nyaymitra/internal/contextutil"
	"nyaymitra/internal/service"
	"nyaymitra/internal/upload"
)

const (
	// multipartMemory is how much of a multipart body is held in memory before spilling to disk.
	multipartMemory = 1 << 20
	// formOverhead allows for the non-file parts of a multipart request.
	formOverhead = 1 << 20

	internalErrorText = "An internal server error occurred."
)

// DocumentExtractor turns an uploaded file into text.
type DocumentExtractor interface {
	Extract(ctx context.Context, name string, r io.Reader) (*upload.Document, error)
	MaxSize() int64
}

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	chatService service.ChatService
	extractor   DocumentExtractor
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService, extractor DocumentExtractor) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		extractor:   extractor,
	}
}

// ChatRequest represents the JSON request payload for chat.
type ChatRequest struct {
	Query string `json:"query"`
}

// requestError is a client mistake found while reading the request.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

// ServeHTTP answers a question, optionally about an uploaded document, streaming the reply.
// The reply is sent as chunked text/plain, or as server-sent events with ?stream=sse.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	svcReq, err := h.decode(w, r)
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			logger.WarnContext(ctx, "invalid chat request", "error", err)
			writeError(w, reqErr.status, reqErr.message)
			return
		}
		logger.ErrorContext(ctx, "failed to read chat request", "error", err)
		writeError(w, http.StatusInternalServerError, internalErrorText)
		return
	}

	logger.InfoContext(ctx, "chat request", "query_length", len(svcReq.Query), "document", svcReq.Document != nil)

	stream := newStreamWriter(w, r.URL.Query().Get("stream") == "sse")
	err = h.chatService.StreamChat(ctx, svcReq, stream.write)
	if err == nil {
		stream.done()
		return
	}

	if !stream.started() {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			handleServiceError(ctx, w, err, internalErrorText)
			return
		}
		logger.ErrorContext(ctx, "chat failed before streaming", "error", err)
		http.Error(w, internalErrorText, http.StatusInternalServerError)
		return
	}

	if ctx.Err() != nil {
		logger.InfoContext(ctx, "client went away during chat stream")
		return
	}
	logger.ErrorContext(ctx, "chat stream ended with error", "error", err)
	stream.fail("stream interrupted")
}

// decode reads the question and any uploaded document from a multipart, JSON or form body.
func (h *ChatHandler) decode(w http.ResponseWriter, r *http.Request) (service.ChatRequest, error) {
	var req service.ChatRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, h.extractor.MaxSize()+formOverhead)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return req, &requestError{status: http.StatusRequestEntityTooLarge, message: "File too large"}
			}
			return req, &requestError{status: http.StatusBadRequest, message: "Invalid request body"}
		}
		req.Query = r.FormValue("query")

		file, header, err := r.FormFile("document")
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil
		}
		if err != nil {
			return req, &requestError{status: http.StatusBadRequest, message: "Invalid document upload"}
		}
		defer file.Close()

		doc, err := h.extractor.Extract(r.Context(), header.Filename, file)
		switch {
		case errors.Is(err, upload.ErrUnsupportedType):
			return req, &requestError{status: http.StatusBadRequest, message: "Only PDF and TXT files are allowed!"}
		case errors.Is(err, upload.ErrTooLarge):
			return req, &requestError{status: http.StatusRequestEntityTooLarge, message: "File too large"}
		case errors.Is(err, upload.ErrExtraction):
			return req, &requestError{status: http.StatusUnprocessableEntity, message: "Could not read the uploaded document"}
		case err != nil:
			return req, err
		}
		req.Document = doc

	case "application/json":
		var body ChatRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, formOverhead)).Decode(&body); err != nil {
			return req, &requestError{status: http.StatusBadRequest, message: "Invalid request body"}
		}
		req.Query = body.Query

	default:
		r.Body = http.MaxBytesReader(w, r.Body, formOverhead)
		if err := r.ParseForm(); err != nil {
			return req, &requestError{status: http.StatusBadRequest, message: "Invalid request body"}
		}
		req.Query = r.FormValue("query")
	}
	return req, nil
}

// streamWriter writes reply chunks as they arrive. Headers are sent with the first chunk so an
// early failure can still be reported with a proper status.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	sse     bool
	wrote   bool
}

func newStreamWriter(w http.ResponseWriter, sse bool) *streamWriter {
	flusher, _ := w.(http.Flusher)
	return &streamWriter{w: w, flusher: flusher, sse: sse}
}

func (s *streamWriter) started() bool { return s.wrote }

func (s *streamWriter) begin() {
	if s.wrote {
		return
	}
	s.wrote = true
	header := s.w.Header()
	if s.sse {
		header.Set("Content-Type", "text/event-stream")
		header.Set("Connection", "keep-alive")
	} else {
		header.Set("Content-Type", "text/plain; charset=utf-8")
	}
	header.Set("Cache-Control", "no-cache")
	s.w.WriteHeader(http.StatusOK)
}

func (s *streamWriter) write(chunk string) error {
	s.begin()
	var err error
	if s.sse {
		err = s.event("", chunk)
	} else {
		_, err = io.WriteString(s.w, chunk)
	}
	if err != nil {
		return err
	}
	s.flush()
	return nil
}

// event writes one server-sent event; every line of data gets its own data field.
func (s *streamWriter) event(name, data string) error {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "event: %s\n", name)
	}
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(s.w, b.String())
	return err
}

func (s *streamWriter) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// done ends a successful reply.
func (s *streamWriter) done() {
	s.begin()
	if s.sse {
		_ = s.event("", "[DONE]")
	}
	s.flush()
}

// fail ends a reply that broke off after streaming started.
func (s *streamWriter) fail(message string) {
	if s.sse {
		_ = s.event("error", message)
	}
	s.flush()
}
