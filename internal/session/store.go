// Package session keeps uploaded datasets between requests. Each session
// holds the original upload and the current working view; views are
// immutable and replaced wholesale, so readers never see a half-applied
// filter or clean.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 30 * time.Minute

// Session is a snapshot; mutate through the Store.
type Session struct {
	ID       string
	Name     string
	Original *dataset.Dataset
	Current  *dataset.Dataset
	Sampled  bool
	Filter   *Filter
	LoadedAt time.Time
}

// Filter records the active column=value filter, if any.
type Filter struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Store is safe for concurrent use. Reads refresh a session's idle timer.
type Store struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, *Session]
	now   func() time.Time
}

// NewStore starts the expiry loop; call Close to stop it.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := ttlcache.New[string, *Session](ttlcache.WithTTL[string, *Session](ttl))
	go c.Start()
	return &Store{cache: c, now: time.Now}
}

func (s *Store) Close() { s.cache.Stop() }

// Create registers a freshly loaded dataset.
func (s *Store) Create(name string, d *dataset.Dataset, sampled bool) (*Session, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	sess := &Session{
		ID:       uuid.NewString(),
		Name:     name,
		Original: d,
		Current:  d,
		Sampled:  sampled,
		LoadedAt: s.now().UTC(),
	}
	s.cache.Set(sess.ID, sess, ttlcache.DefaultTTL)
	return copyOf(sess), nil
}

func (s *Store) Get(id string) (*Session, error) {
	item := s.cache.Get(id)
	if item == nil {
		return nil, ErrNotFound
	}
	return copyOf(item.Value()), nil
}

// Replace swaps the current view. filter describes how it was derived
// from the original (nil after a clean keeps the previous filter).
func (s *Store) Replace(id string, current *dataset.Dataset, filter *Filter) (*Session, error) {
	if err := current.Validate(); err != nil {
		return nil, err
	}
	return s.update(id, func(sess *Session) {
		sess.Current = current
		if filter != nil {
			sess.Filter = filter
		}
	})
}

// Reset restores the original upload and clears any filter.
func (s *Store) Reset(id string) (*Session, error) {
	return s.update(id, func(sess *Session) {
		sess.Current = sess.Original
		sess.Filter = nil
	})
}

func (s *Store) update(id string, fn func(*Session)) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.cache.Get(id)
	if item == nil {
		return nil, ErrNotFound
	}
	next := copyOf(item.Value())
	fn(next)
	s.cache.Set(id, next, ttlcache.DefaultTTL)
	return copyOf(next), nil
}

// Delete drops a session and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache.Get(id, ttlcache.WithDisableTouchOnHit[string, *Session]()) == nil {
		return false
	}
	s.cache.Delete(id)
	return true
}

// Len counts live sessions.
func (s *Store) Len() int { return s.cache.Len() }

func copyOf(sess *Session) *Session {
	c := *sess
	if sess.Filter != nil {
		f := *sess.Filter
		c.Filter = &f
	}
	return &c
}
