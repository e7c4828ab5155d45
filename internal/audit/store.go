// Package audit records who did what through the dashboard and reads the
// history back, newest first.
package audit

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one row of the history_logs table.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"`
	Actor     string    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists audit entries.
type Store interface {
	Record(ctx context.Context, action, actor string) (Entry, error)
	// List returns every entry, newest first.
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

// ErrEmptyAction is returned when recording an entry without an action.
var ErrEmptyAction = errors.New("audit action is required")

func newEntry(action, actor string, now time.Time) (Entry, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return Entry{}, ErrEmptyAction
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = DefaultActor
	}
	return Entry{ID: uuid.New(), Action: action, Actor: actor, CreatedAt: now.UTC()}, nil
}

// DefaultActor is used when the caller does not identify itself.
const DefaultActor = "Manager"

func sortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// MemoryStore keeps entries in process memory. It is the fallback when no
// database or file is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{now: time.Now} }

func (m *MemoryStore) Record(_ context.Context, action, actor string) (Entry, error) {
	e, err := newEntry(action, actor, m.now())
	if err != nil {
		return Entry{}, err
	}
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
	return e, nil
}

func (m *MemoryStore) List(context.Context) ([]Entry, error) {
	m.mu.RLock()
	out := append([]Entry(nil), m.entries...)
	m.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
