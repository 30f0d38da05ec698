package docstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "generated_docs"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func writeAged(t *testing.T, s *Store, name string, age time.Duration) {
	t.Helper()
	p := filepath.Join(s.Dir(), name)
	if err := os.WriteFile(p, []byte("%PDF-1.3"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(p, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
}

func TestStore_SaveAndOpen(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	name, err := s.Save(context.Background(), "Legal Notice", strings.NewReader("%PDF-1.3 body"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if name != "legal-notice-1700000000000.pdf" {
		t.Errorf("Save() name = %q", name)
	}

	second, err := s.Save(context.Background(), "Legal Notice", strings.NewReader("again"))
	if err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	if second == name {
		t.Error("saves in the same millisecond must not collide")
	}

	f, doc, err := s.Open(name)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "%PDF-1.3 body" || doc.Size != int64(len(data)) {
		t.Errorf("Open() = %q, %+v", data, doc)
	}
}

func TestStore_SaveNameShape(t *testing.T) {
	s := newTestStore(t)
	name, err := s.Save(context.Background(), "RTI_APPLICATION", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !regexp.MustCompile(`^rti.application-\d{13}\.pdf$`).MatchString(name) {
		t.Errorf("Save() name = %q", name)
	}
}

func TestStore_RejectsUnsafeNames(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"", "../secret.pdf", "a/b.pdf", `..\x.pdf`, ".hidden.pdf", "notes.txt", ".."} {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Stat(name); !errors.Is(err, ErrInvalidName) {
				t.Errorf("Stat(%q) error = %v, want ErrInvalidName", name, err)
			}
			if err := s.Remove(name); !errors.Is(err, ErrInvalidName) {
				t.Errorf("Remove(%q) error = %v, want ErrInvalidName", name, err)
			}
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.Open("missing.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open() error = %v, want ErrNotFound", err)
	}
	if err := s.Remove("missing.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove() error = %v, want ErrNotFound", err)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	writeAged(t, s, "old.pdf", 3*time.Hour)
	writeAged(t, s, "new.pdf", time.Minute)
	writeAged(t, s, "middle.pdf", time.Hour)
	if err := os.WriteFile(filepath.Join(s.Dir(), "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(s.Dir(), "sub.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	docs, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for _, d := range docs {
		names = append(names, d.Filename)
	}
	if got := strings.Join(names, ","); got != "new.pdf,middle.pdf,old.pdf" {
		t.Errorf("List() = %s", got)
	}
}

func TestStore_Cleanup(t *testing.T) {
	s := newTestStore(t)
	writeAged(t, s, "expired.pdf", 25*time.Hour)
	writeAged(t, s, "fresh.pdf", 23*time.Hour)

	removed, err := s.Cleanup(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Cleanup() removed %d, want 1", removed)
	}
	if _, err := s.Stat("expired.pdf"); !errors.Is(err, ErrNotFound) {
		t.Error("expired document should be gone")
	}
	if _, err := s.Stat("fresh.pdf"); err != nil {
		t.Errorf("fresh document should remain: %v", err)
	}
}

func TestStore_RemoveAfter(t *testing.T) {
	s := newTestStore(t)
	writeAged(t, s, "download.pdf", 0)

	timer := s.RemoveAfter(context.Background(), "download.pdf", 10*time.Millisecond)
	defer timer.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := s.Stat("download.pdf"); errors.Is(err, ErrNotFound) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("document was not removed after the delay")
}

type countingObserver struct {
	runs    int
	removed int
}

func (o *countingObserver) ObserveCleanup(n int) {
	o.runs++
	o.removed += n
}

func TestJanitor_StartRunsImmediately(t *testing.T) {
	s := newTestStore(t)
	writeAged(t, s, "expired.pdf", 48*time.Hour)

	obs := &countingObserver{}
	j := NewJanitor(s, 24*time.Hour, "", obs, nil)
	if err := j.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	j.Stop(context.Background())

	if obs.runs != 1 || obs.removed != 1 {
		t.Errorf("observer = %+v, want one run removing one document", obs)
	}
}

func TestJanitor_InvalidSchedule(t *testing.T) {
	j := NewJanitor(newTestStore(t), time.Hour, "every now and then", nil, nil)
	if err := j.Start(context.Background()); err == nil {
		t.Error("Start() expected error for invalid schedule")
	}
	j.Stop(context.Background())
}
