// internal/app/store/file.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dalemusser/formdrop/internal/app/intake"
	"github.com/dalemusser/formdrop/internal/domain/models"
)

// DefaultFile is the file backend's default path.
const DefaultFile = "messages.json"

// FileStore keeps every submission in one pretty-printed JSON array that is
// rewritten on each append. A missing file is an empty store. An unreadable
// or unparseable file is reported through the degraded observer and treated
// as empty; an unparseable file is copied aside before it is overwritten.
//
// Only one process may own the file.
type FileStore struct {
	path     string
	mu       sync.Mutex
	degraded DegradedFunc
	now      func() time.Time
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithDegraded sets the observer for degraded reads.
func WithDegraded(fn DegradedFunc) FileOption {
	return func(s *FileStore) { s.degraded = fn }
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	s := &FileStore{
		path:     path,
		degraded: func(error) {},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*FileStore)(nil)

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// load reads the file. corrupt is true when the file exists but does not
// hold a JSON array of submissions.
func (s *FileStore) load() (subs []models.Submission, corrupt bool) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.degraded(&intake.StoreError{Op: "file.read", Kind: intake.KindRead, Path: s.path, Err: err})
		}
		return []models.Submission{}, false
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return []models.Submission{}, false
	}
	if err := json.Unmarshal(b, &subs); err != nil {
		s.degraded(&intake.StoreError{Op: "file.decode", Kind: intake.KindCorrupt, Path: s.path, Err: err})
		return []models.Submission{}, true
	}
	if subs == nil {
		subs = []models.Submission{}
	}
	return subs, false
}

// Append implements Store.
func (s *FileStore) Append(ctx context.Context, sub models.Submission) (models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return models.Submission{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, corrupt := s.load()
	if corrupt {
		if err := s.preserveCorrupt(); err != nil {
			return models.Submission{}, err
		}
	}

	sub.ID = len(subs) + 1
	subs = append(subs, sub)
	if err := s.write(subs); err != nil {
		return models.Submission{}, err
	}
	return sub, nil
}

// List implements Store.
func (s *FileStore) List(ctx context.Context) ([]models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	subs, _ := s.load()
	return subs, nil
}

// Count implements Store.
func (s *FileStore) Count(ctx context.Context) (int, error) {
	subs, err := s.List(ctx)
	return len(subs), err
}

// Ping checks that the file's directory exists.
func (s *FileStore) Ping(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	fi, err := os.Stat(dir)
	if err != nil {
		return &intake.StoreError{Op: "file.ping", Kind: intake.KindConnect, Path: dir, Err: err}
	}
	if !fi.IsDir() {
		return &intake.StoreError{Op: "file.ping", Kind: intake.KindConnect, Path: dir, Err: errors.New("not a directory")}
	}
	return nil
}

// Close implements Store. The file store holds no open handles.
func (s *FileStore) Close(ctx context.Context) error { return nil }

// write replaces the file with subs through a temp file and rename.
func (s *FileStore) write(subs []models.Submission) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(subs); err != nil {
		return &intake.StoreError{Op: "file.encode", Kind: intake.KindWrite, Path: s.path, Err: err}
	}
	b := bytes.TrimRight(buf.Bytes(), "\n")

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return &intake.StoreError{Op: "file.write", Kind: intake.KindWrite, Path: dir, Err: err}
	}
	tmpName := tmp.Name()
	fail := func(op string, err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &intake.StoreError{Op: op, Kind: intake.KindWrite, Path: tmpName, Err: err}
	}

	if _, err := tmp.Write(b); err != nil {
		return fail("file.write", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail("file.chmod", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("file.sync", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &intake.StoreError{Op: "file.close", Kind: intake.KindWrite, Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return &intake.StoreError{Op: "file.rename", Kind: intake.KindWrite, Path: s.path, Err: err}
	}
	return nil
}

// preserveCorrupt copies the current file to <path>.corrupt-<unix>.
func (s *FileStore) preserveCorrupt() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return &intake.StoreError{Op: "file.preserve", Kind: intake.KindWrite, Path: s.path, Err: err}
	}
	dst := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
	if err := os.WriteFile(dst, b, 0o600); err != nil {
		return &intake.StoreError{Op: "file.preserve", Kind: intake.KindWrite, Path: dst, Err: err}
	}
	return nil
}
