package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"nyaymitra/internal/docstore"
	"nyaymitra/internal/drafting"
	"nyaymitra/internal/service"
	"nyaymitra/internal/service/mocks"
)

// withURLParam attaches a chi route parameter to the request.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGenerateDocHandler(t *testing.T) {
	generatedAt := time.Date(2025, time.March, 7, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		body        string
		mockSetup   func(*mocks.MockDocumentService)
		wantStatus  int
		wantError   string
		wantDetails string
	}{
		{
			name: "generated",
			body: `{"type":"RTI_APPLICATION","applicantName":"Asha Rao","department":"Ministry of Railways"}`,
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().
					Generate(gomock.Any(), service.GenerateRequest{
						Type:   "RTI_APPLICATION",
						Fields: drafting.Fields{"applicantName": "Asha Rao", "department": "Ministry of Railways"},
					}).
					Return(service.GeneratedDocument{
						Filename:     "rti_application-1741339800000.pdf",
						Type:         "RTI_APPLICATION",
						DocumentType: "RTI Application",
						Metadata:     service.DocumentMetadata{GeneratedAt: generatedAt, WordCount: 120, CharacterCount: 800},
					}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "missing type",
			body: `{"applicantName":"Asha Rao"}`,
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().
					Generate(gomock.Any(), gomock.Any()).
					Return(service.GeneratedDocument{}, &service.ValidationError{Field: "type", Message: "Document type is required"})
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Document type is required",
		},
		{
			name: "missing fields",
			body: `{"type":"RTI_APPLICATION"}`,
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().
					Generate(gomock.Any(), gomock.Any()).
					Return(service.GeneratedDocument{}, fmt.Errorf("%w: %w", service.ErrInvalidInput, errors.New("Missing critical fields: applicantName, department.")))
			},
			wantStatus:  http.StatusBadRequest,
			wantError:   "Failed to generate document",
			wantDetails: "Missing critical fields: applicantName, department.",
		},
		{
			name: "model failure",
			body: `{"type":"AFFIDAVIT","deponentName":"Ravi"}`,
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().
					Generate(gomock.Any(), gomock.Any()).
					Return(service.GeneratedDocument{}, fmt.Errorf("%w: failed to draft document: %w", service.ErrExternalService, errors.New("bad status 503")))
			},
			wantStatus:  http.StatusBadGateway,
			wantError:   "Failed to generate document",
			wantDetails: "bad status 503",
		},
		{
			name: "storage failure",
			body: `{"type":"AFFIDAVIT","deponentName":"Ravi"}`,
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().
					Generate(gomock.Any(), gomock.Any()).
					Return(service.GeneratedDocument{}, service.WrapError(errors.New("disk full"), "failed to store document"))
			},
			wantStatus:  http.StatusInternalServerError,
			wantError:   "Failed to generate document",
			wantDetails: "failed to store document: disk full",
		},
		{
			name:       "invalid JSON",
			body:       `{"type":`,
			mockSetup:  func(m *mocks.MockDocumentService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockDocs := mocks.NewMockDocumentService(ctrl)
			tt.mockSetup(mockDocs)

			handler := NewGenerateDocHandler(mockDocs)
			req := httptest.NewRequest(http.MethodPost, "/api/generate-doc", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %v, want %v (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusOK {
				var resp GenerateDocResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				want := GenerateDocResponse{
					Success:      true,
					Message:      "Document generated successfully with AI formatting",
					Filename:     "rti_application-1741339800000.pdf",
					PreviewURL:   "/api/preview-doc/rti_application-1741339800000.pdf",
					DownloadURL:  "/api/download-doc/rti_application-1741339800000.pdf",
					Type:         "RTI_APPLICATION",
					DocumentType: "RTI Application",
					Metadata:     service.DocumentMetadata{GeneratedAt: generatedAt, WordCount: 120, CharacterCount: 800},
				}
				if !resp.Metadata.GeneratedAt.Equal(generatedAt) {
					t.Errorf("generatedAt = %v, want %v", resp.Metadata.GeneratedAt, generatedAt)
				}
				resp.Metadata.GeneratedAt, want.Metadata.GeneratedAt = time.Time{}, time.Time{}
				if resp != want {
					t.Errorf("response = %+v, want %+v", resp, want)
				}
				return
			}

			var resp FailureResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Success || resp.Error != tt.wantError || resp.Details != tt.wantDetails {
				t.Errorf("response = %+v, want error %q details %q", resp, tt.wantError, tt.wantDetails)
			}
		})
	}
}

func TestDocumentTypesHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockDocs := mocks.NewMockDocumentService(ctrl)
	mockDocs.EXPECT().Types().Return([]drafting.TypeInfo{
		{Type: "AFFIDAVIT", Name: "General Affidavit", RequiredFields: []string{"deponentName"}},
	})

	w := httptest.NewRecorder()
	NewDocumentTypesHandler(mockDocs).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/document-types", nil))

	want := `{"success":true,"documentTypes":[{"type":"AFFIDAVIT","name":"General Affidavit","requiredFields":["deponentName"]}]}`
	if got := strings.TrimSpace(w.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestDocumentTemplateHandler(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		mockSetup  func(*mocks.MockDocumentService)
		wantStatus int
	}{
		{
			name: "found",
			code: "LEGAL_NOTICE",
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().Template("LEGAL_NOTICE").Return(drafting.TemplateInfo{Name: "Legal Notice"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not found",
			code: "DIVORCE_PETITION",
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().Template("DIVORCE_PETITION").Return(drafting.TemplateInfo{}, fmt.Errorf("%w: Document type not found", service.ErrNotFound))
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockDocs := mocks.NewMockDocumentService(ctrl)
			tt.mockSetup(mockDocs)

			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/document-template/"+tt.code, nil), "type", tt.code)
			w := httptest.NewRecorder()
			NewDocumentTemplateHandler(mockDocs).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusNotFound && !strings.Contains(w.Body.String(), `"error":"Document type not found"`) {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func newTestStore(t *testing.T) (*docstore.Store, string) {
	t.Helper()
	store, err := docstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("docstore.New() error = %v", err)
	}
	name, err := store.Save(context.Background(), "AFFIDAVIT", bytes.NewReader([]byte("%PDF-1.3 test")))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return store, name
}

func TestPreviewDocHandler(t *testing.T) {
	store, name := newTestStore(t)
	handler := NewPreviewDocHandler(store)

	tests := []struct {
		name       string
		method     string
		filename   string
		wantStatus int
		wantBody   string
	}{
		{name: "GET", method: http.MethodGet, filename: name, wantStatus: http.StatusOK, wantBody: "%PDF-1.3 test"},
		{name: "HEAD", method: http.MethodHead, filename: name, wantStatus: http.StatusOK},
		{name: "missing", method: http.MethodGet, filename: "nope-1.pdf", wantStatus: http.StatusNotFound},
		{name: "traversal", method: http.MethodGet, filename: "../secret.pdf", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withURLParam(httptest.NewRequest(tt.method, "/api/preview-doc/x", nil), "filename", tt.filename)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if got := w.Header().Get("Content-Type"); got != "application/pdf" {
				t.Errorf("Content-Type = %q", got)
			}
			if got := w.Header().Get("Content-Disposition"); got != "inline; filename="+name {
				t.Errorf("Content-Disposition = %q", got)
			}
			if got := w.Header().Get("Content-Length"); got != "13" {
				t.Errorf("Content-Length = %q", got)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestDownloadDocHandler_RemovesAfterDownload(t *testing.T) {
	store, name := newTestStore(t)
	handler := NewDownloadDocHandler(store, 10*time.Millisecond)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/download-doc/"+name, nil), "filename", name)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %v, want 200", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != "attachment; filename="+name {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Body.String() != "%PDF-1.3 test" {
		t.Errorf("body = %q", w.Body.String())
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := store.Stat(name); errors.Is(err, docstore.ErrNotFound) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("downloaded document was not removed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second download status = %v, want 404", w.Code)
	}
}

func TestListDocsHandler(t *testing.T) {
	store, name := newTestStore(t)

	w := httptest.NewRecorder()
	NewListDocsHandler(store).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/list-docs", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %v, want 200", w.Code)
	}
	var resp ListDocsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Documents) != 1 {
		t.Fatalf("documents = %+v", resp.Documents)
	}
	got := resp.Documents[0]
	if got.Filename != name || got.Size != 13 || got.PreviewURL != "/api/preview-doc/"+name || got.DownloadURL != "/api/download-doc/"+name {
		t.Errorf("document = %+v", got)
	}
}

func TestListDocsHandler_Empty(t *testing.T) {
	store, err := docstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	NewListDocsHandler(store).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/list-docs", nil))

	if got := strings.TrimSpace(w.Body.String()); got != `{"documents":[]}` {
		t.Errorf("body = %s", got)
	}
}
