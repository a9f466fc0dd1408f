package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/formdrop/internal/app/intake"
)

func newFileStore(t *testing.T) (*FileStore, *[]error) {
	t.Helper()
	var degraded []error
	s := NewFileStore(filepath.Join(t.TempDir(), "messages.json"), WithDegraded(func(err error) {
		degraded = append(degraded, err)
	}))
	return s, &degraded
}

func TestFileStore(t *testing.T) {
	s, degraded := newFileStore(t)
	exerciseStore(t, s)
	if len(*degraded) != 0 {
		t.Errorf("unexpected degraded reads: %v", *degraded)
	}
}

func TestFileStore_Concurrent(t *testing.T) {
	s, _ := newFileStore(t)
	exerciseConcurrentAppends(t, s, 20)
}

func TestFileStore_Format(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()
	rec := sub("ada")
	rec.Message = "<b>hi</b> & bye"
	if _, err := s.Append(ctx, rec); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	want := `[
  {
    "id": 1,
    "name": "ada",
    "email": "ada@example.com",
    "phone": "",
    "message": "<b>hi</b> & bye",
    "timestamp": "2024-05-01T09:30:00.000Z"
  }
]`
	if string(b) != want {
		t.Errorf("file =\n%s\nwant\n%s", b, want)
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	s, degraded := newFileStore(t)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	if err := os.WriteFile(s.Path(), []byte(`{"not": "an array"`), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	list, err := s.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("List = %v, %v; want empty", list, err)
	}
	if len(*degraded) != 1 || !intake.IsKind((*degraded)[0], intake.KindCorrupt) {
		t.Fatalf("degraded = %v, want one corrupt report", *degraded)
	}

	got, err := s.Append(ctx, sub("ada"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got.ID != 1 {
		t.Errorf("ID = %d, want 1", got.ID)
	}

	aside, err := os.ReadFile(s.Path() + ".corrupt-1700000000")
	if err != nil {
		t.Fatalf("corrupt copy missing: %v", err)
	}
	if string(aside) != `{"not": "an array"` {
		t.Errorf("corrupt copy = %q", aside)
	}
}

func TestFileStore_Unreadable(t *testing.T) {
	dir := t.TempDir()
	var degraded []error
	// A directory where the file should be cannot be read as a file.
	s := NewFileStore(dir, WithDegraded(func(err error) { degraded = append(degraded, err) }))

	list, err := s.List(context.Background())
	if err != nil || len(list) != 0 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if len(degraded) != 1 || !intake.IsKind(degraded[0], intake.KindRead) {
		t.Errorf("degraded = %v, want one read report", degraded)
	}
}

func TestFileStore_WriteFailure(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing-dir", "messages.json"))
	_, err := s.Append(context.Background(), sub("ada"))
	if !intake.IsKind(err, intake.KindWrite) {
		t.Fatalf("err = %v, want write StoreError", err)
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping should fail when the directory is missing")
	}
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	s, _ := newFileStore(t)
	for i := 0; i < 3; i++ {
		if _, err := s.Append(context.Background(), sub("x")); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestOpen_Default(t *testing.T) {
	st, err := Open(context.Background(), Config{File: filepath.Join(t.TempDir(), "m.json")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*FileStore); !ok {
		t.Errorf("Open default = %T, want *FileStore", st)
	}
	if _, err := Open(context.Background(), Config{Driver: "cassandra"}, nil); err == nil {
		t.Error("expected error for unknown driver")
	}
}
