package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"nyaymitra/internal/drafting"
	"nyaymitra/internal/llm"
	"nyaymitra/internal/service"
	"nyaymitra/internal/service/mocks"

	"go.uber.org/mock/gomock"
)

var draftTime = time.Date(2025, time.March, 7, 9, 30, 0, 0, time.UTC)

type documentMocks struct {
	llm      *mocks.MockLLMClient
	renderer *mocks.MockDocumentRenderer
	store    *mocks.MockDocumentStore
}

type typeCounter map[string]int

func (c typeCounter) ObserveDocument(docType string) { c[docType]++ }

func newDocumentService(t *testing.T, offline bool) (service.DocumentService, documentMocks, typeCounter) {
	t.Helper()
	catalog, err := drafting.NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	ctrl := gomock.NewController(t)
	m := documentMocks{
		llm:      mocks.NewMockLLMClient(ctrl),
		renderer: mocks.NewMockDocumentRenderer(ctrl),
		store:    mocks.NewMockDocumentStore(ctrl),
	}
	counter := typeCounter{}
	svc := service.NewDocumentService(catalog, m.llm, m.renderer, m.store, service.DocumentConfig{
		Offline:  offline,
		Model:    "llama-3.1-8b-instant",
		Observer: counter,
		Now:      func() time.Time { return draftTime },
	})
	return svc, m, counter
}

func rtiFields() drafting.Fields {
	return drafting.Fields{
		"applicantName": "Asha Rao",
		"department":    "Ministry of Railways",
		"info":          "Copies of tender notings for 2024",
	}
}

func TestDocumentService_Generate(t *testing.T) {
	svc, m, counter := newDocumentService(t, false)
	const draft = "To,\nThe Public Information Officer (PIO),\nMinistry of Railways\n\nName: Asha Rao"

	m.llm.EXPECT().
		ChatWithMessages(gomock.Any(), gomock.Any(), llm.ChatParams{Model: "llama-3.1-8b-instant", MaxTokens: 4096, Temperature: 0.3}).
		DoAndReturn(func(_ context.Context, msgs []llm.Message, _ llm.ChatParams) (string, error) {
			if msgs[0].Content != drafting.SystemPrompt {
				t.Errorf("system message = %q", msgs[0].Content)
			}
			for _, want := range []string{"RTI Application", `"informationPoints": "Copies of tender notings for 2024"`, `"departmentAddress": "Ministry of Railways, Government of India"`, "(use 07/03/2025)"} {
				if !strings.Contains(msgs[1].Content, want) {
					t.Errorf("prompt missing %q", want)
				}
			}
			return draft, nil
		})
	m.renderer.EXPECT().Render(gomock.Any(), draft).DoAndReturn(func(w io.Writer, _ string) error {
		_, err := w.Write([]byte("%PDF-1.3"))
		return err
	})
	m.store.EXPECT().Save(gomock.Any(), "RTI_APPLICATION", gomock.Any()).DoAndReturn(func(_ context.Context, _ string, r io.Reader) (string, error) {
		data, _ := io.ReadAll(r)
		if !bytes.Equal(data, []byte("%PDF-1.3")) {
			t.Errorf("stored %q", data)
		}
		return "rti_application-1741339800000.pdf", nil
	})

	doc, err := svc.Generate(context.Background(), service.GenerateRequest{Type: "RTI_APPLICATION", Fields: rtiFields()})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if doc.Filename != "rti_application-1741339800000.pdf" || doc.DocumentType != "RTI Application" || doc.Type != "RTI_APPLICATION" {
		t.Errorf("Generate() = %+v", doc)
	}
	if doc.Metadata.WordCount != 12 || doc.Metadata.CharacterCount != len(draft) || !doc.Metadata.GeneratedAt.Equal(draftTime) {
		t.Errorf("metadata = %+v", doc.Metadata)
	}
	if counter["RTI_APPLICATION"] != 1 {
		t.Errorf("observer counts = %v", counter)
	}
}

func TestDocumentService_Generate_FriendlyNameOffline(t *testing.T) {
	svc, m, _ := newDocumentService(t, true)

	var rendered string
	m.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(func(_ io.Writer, content string) error {
		rendered = content
		return nil
	})
	m.store.EXPECT().Save(gomock.Any(), "General Affidavit", gomock.Any()).Return("general-affidavit-1.pdf", nil)

	doc, err := svc.Generate(context.Background(), service.GenerateRequest{
		Type:   "General Affidavit",
		Fields: drafting.Fields{"deponentName": "Ravi Kumar", "age": float64(34)},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !doc.Offline || doc.DocumentType != "General Affidavit" {
		t.Errorf("Generate() = %+v", doc)
	}
	if !strings.Contains(rendered, "I, Ravi Kumar,") || !strings.Contains(rendered, "aged about 34 years") {
		t.Errorf("offline draft not filled:\n%s", rendered)
	}
}

func TestDocumentService_Generate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		req       service.GenerateRequest
		setup     func(m documentMocks)
		wantErr   error
		wantInErr string
	}{
		{
			name:      "missing type",
			req:       service.GenerateRequest{Fields: rtiFields()},
			wantErr:   service.ErrInvalidInput,
			wantInErr: "Document type is required",
		},
		{
			name:      "unknown type",
			req:       service.GenerateRequest{Type: "DIVORCE_PETITION"},
			wantErr:   service.ErrInvalidInput,
			wantInErr: "Available types: RTI_APPLICATION, CONSUMER_COMPLAINT",
		},
		{
			name:      "missing critical fields",
			req:       service.GenerateRequest{Type: "RTI_APPLICATION", Fields: drafting.Fields{"department": "Ministry of Railways"}},
			wantErr:   service.ErrInvalidInput,
			wantInErr: "Missing critical fields: applicantName.",
		},
		{
			name: "model failure",
			req:  service.GenerateRequest{Type: "RTI_APPLICATION", Fields: rtiFields()},
			setup: func(m documentMocks) {
				m.llm.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("bad status 500: boom"))
			},
			wantErr: service.ErrExternalService,
		},
		{
			name: "empty draft",
			req:  service.GenerateRequest{Type: "RTI_APPLICATION", Fields: rtiFields()},
			setup: func(m documentMocks) {
				m.llm.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return("  \n", nil)
			},
			wantErr: service.ErrExternalService,
		},
		{
			name: "store failure",
			req:  service.GenerateRequest{Type: "RTI_APPLICATION", Fields: rtiFields()},
			setup: func(m documentMocks) {
				m.llm.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return("To,", nil)
				m.renderer.EXPECT().Render(gomock.Any(), "To,").Return(nil)
				m.store.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("disk full"))
			},
			wantInErr: "failed to store document: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m, counter := newDocumentService(t, false)
			if tt.setup != nil {
				tt.setup(m)
			}
			_, err := svc.Generate(context.Background(), tt.req)
			if err == nil {
				t.Fatal("Generate() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantInErr != "" && !strings.Contains(err.Error(), tt.wantInErr) {
				t.Errorf("Generate() error = %v, want it to contain %q", err, tt.wantInErr)
			}
			if len(counter) != 0 {
				t.Errorf("failed generation should not be observed: %v", counter)
			}
		})
	}
}

func TestDocumentService_TypesAndTemplate(t *testing.T) {
	svc, _, _ := newDocumentService(t, false)

	types := svc.Types()
	if len(types) != 6 || types[0].Type != "RTI_APPLICATION" {
		t.Errorf("Types() = %+v", types)
	}

	info, err := svc.Template("FIR_COMPLAINT")
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	if info.Name != "Written Complaint to Police (for FIR)" || !strings.Contains(info.SampleStructure, "The Station House Officer") {
		t.Errorf("Template() = %+v", info)
	}

	if _, err := svc.Template("RTI Application"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Template(friendly name) error = %v, want ErrNotFound", err)
	}
}
