package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/KaramelBytes/prism-cli/internal/utils"
)

// FileStore keeps the history in a single JSON document, rewritten
// atomically on every record.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries []Entry
	now     func() time.Time
}

type fileDoc struct {
	Entries []Entry `json:"history_logs"`
}

// NewFileStore loads path if it exists and creates its directory otherwise.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("audit file path is required")
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	fs := &FileStore{path: path, now: time.Now}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fs, nil
	case err != nil:
		return nil, fmt.Errorf("read audit file: %w", err)
	}
	var doc fileDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse audit file %s: %w", path, err)
	}
	fs.entries = doc.Entries
	return fs, nil
}

func (f *FileStore) Record(_ context.Context, action, actor string) (Entry, error) {
	e, err := newEntry(action, actor, f.now())
	if err != nil {
		return Entry{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	next := append(append([]Entry(nil), f.entries...), e)
	b, err := utils.PrettyJSON(fileDoc{Entries: next})
	if err != nil {
		return Entry{}, err
	}
	if err := utils.SafeWriteFile(f.path, b); err != nil {
		return Entry{}, fmt.Errorf("save audit file: %w", err)
	}
	f.entries = next
	return e, nil
}

func (f *FileStore) List(context.Context) ([]Entry, error) {
	f.mu.Lock()
	out := append([]Entry(nil), f.entries...)
	f.mu.Unlock()
	sortNewestFirst(out)
	return out, nil
}

func (f *FileStore) Close() error { return nil }
