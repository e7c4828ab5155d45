package audit

import (
	"context"
	"log/slog"
)

// Options selects a backend: DSN wins over Path; with neither the history
// lives in memory.
type Options struct {
	DSN  string
	Path string
}

// Backend names the store kind Open picked.
func (o Options) Backend() string {
	switch {
	case o.DSN != "":
		return "postgres"
	case o.Path != "":
		return "file"
	default:
		return "memory"
	}
}

// Open builds the Store described by opt.
func Open(ctx context.Context, opt Options) (Store, error) {
	switch opt.Backend() {
	case "postgres":
		return NewPostgresStore(ctx, opt.DSN)
	case "file":
		return NewFileStore(opt.Path)
	default:
		return NewMemoryStore(), nil
	}
}

// Recorder logs actions without ever failing the caller. A broken audit
// backend must not break the dashboard, so write errors are only logged.
type Recorder struct {
	store Store
	log   *slog.Logger
}

func NewRecorder(store Store, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{store: store, log: log.With(slog.String("component", "audit"))}
}

// Log records action for actor. It reports whether the entry was stored.
func (r *Recorder) Log(ctx context.Context, action, actor string) bool {
	if r == nil || r.store == nil {
		return false
	}
	if _, err := r.store.Record(ctx, action, actor); err != nil {
		r.log.Warn("audit write failed",
			slog.String("action", action),
			slog.String("actor", actor),
			slog.String("error", err.Error()))
		return false
	}
	r.log.Debug("audit recorded", slog.String("action", action), slog.String("actor", actor))
	return true
}

// History returns every entry, newest first.
func (r *Recorder) History(ctx context.Context) ([]Entry, error) {
	if r == nil || r.store == nil {
		return nil, nil
	}
	return r.store.List(ctx)
}

// Store exposes the underlying store.
func (r *Recorder) Store() Store { return r.store }
