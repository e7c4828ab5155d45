package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestNewJSONWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "json", &buf).With(slog.String("component", "server"))
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	log.DebugContext(ctx, "hidden")
	log.InfoContext(ctx, "handled", slog.Int("status", 200))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "handled", rec["msg"])
	assert.Equal(t, "server", rec["component"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.EqualValues(t, 200, rec["status"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New("debug", "TEXT", &buf).Debug("hello", slog.String("k", "v"))
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
	assert.NotContains(t, buf.String(), "request_id")
}
