package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore writes to the history_logs table.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore connects with the pgx driver and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("audit DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect audit db: %w", err)
	}
	return NewPostgresStoreWithDB(ctx, db)
}

// NewPostgresStoreWithDB reuses an existing *sql.DB.
func NewPostgresStoreWithDB(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if err := ensureTable(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure history_logs: %w", err)
	}
	return &PostgresStore{db: db, now: time.Now}, nil
}

func ensureTable(ctx context.Context, db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS history_logs (
  id uuid PRIMARY KEY,
  action text NOT NULL,
  "user" text NOT NULL,
  created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS history_logs_created_at_idx ON history_logs (created_at DESC);
`
	_, err := db.ExecContext(ctx, ddl)
	return err
}

func (s *PostgresStore) Record(ctx context.Context, action, actor string) (Entry, error) {
	e, err := newEntry(action, actor, s.now())
	if err != nil {
		return Entry{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO history_logs (id, action, "user", created_at) VALUES ($1, $2, $3, $4)`,
		e.ID.String(), e.Action, e.Actor, e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("insert history log: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id::text, action, "user", created_at FROM history_logs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query history logs: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var id string
		if err := rows.Scan(&id, &e.Action, &e.Actor, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history log: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("history log id %q: %w", id, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error { return s.db.Close() }
