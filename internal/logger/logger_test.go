package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

// ── constructors ──────────────────────────────────────────────────────────────

func TestNewLogger_Globals(t *testing.T) {
	require.NotNil(t, NewLogger("herdctl"))

	assert.Equal(t, "func", zerolog.CallerFieldName)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestNewLogger_EntryFields(t *testing.T) {
	configureGlobals()
	var buf bytes.Buffer
	l := newLogger(&buf, "herd-client")

	l.Info().Str("entity_id", "asset-1").Msg("pushed")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "herd-client", entry["role"])
	assert.Equal(t, "asset-1", entry["entity_id"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "func")
}

func TestNewClientLogger_AppendsToFileInDir(t *testing.T) {
	dir := t.TempDir()

	NewClientLogger("herd-client", dir).Info().Msg("first")
	NewClientLogger("herd-client", dir).Warn().Msg("second")

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "second", entry["message"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNewClientLogger_FallsBackWhenDirMissing(t *testing.T) {
	l := NewClientLogger("herd-client", filepath.Join(t.TempDir(), "missing", "nested"))
	require.NotNil(t, l)
}

func TestNop_DiscardsOutput(t *testing.T) {
	var buf bytes.Buffer
	l := Nop()
	l.Logger = l.Output(&buf)

	l.Error().Msg("dropped")

	assert.Empty(t, buf.String())
}

// ── derived loggers ───────────────────────────────────────────────────────────

func TestGetChildLogger(t *testing.T) {
	var buf bytes.Buffer
	parent := newLogger(&buf, "herd-client")

	child := parent.GetChildLogger()
	require.NotSame(t, parent, child)

	child.Logger = child.With().Str("trace_id", "t-1").Logger()
	child.Info().Msg("child")
	entry := lastEntry(t, &buf)
	assert.Equal(t, "herd-client", entry["role"])
	assert.Equal(t, "t-1", entry["trace_id"])

	parent.Info().Msg("parent")
	assert.NotContains(t, lastEntry(t, &buf), "trace_id")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "herd-client")

	l.WithComponent("sync-orchestrator").Info().Msg("cycle")

	assert.Equal(t, "sync-orchestrator", lastEntry(t, &buf)["component"])
}

// ── context lookup ────────────────────────────────────────────────────────────

func TestFromContext(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))

	var buf bytes.Buffer
	zl := zerolog.New(&buf).With().Str("transfer_id", "tr-9").Logger()

	FromContext(zl.WithContext(context.Background())).Info().Msg("verify")

	assert.Equal(t, "tr-9", lastEntry(t, &buf)["transfer_id"])
}

func TestFromRequest(t *testing.T) {
	require.NotNil(t, FromRequest(httptest.NewRequest(http.MethodGet, "/api/sync/stats", nil)))

	var buf bytes.Buffer
	zl := zerolog.New(&buf).With().Str("trace_id", "abc").Logger()
	req := httptest.NewRequest(http.MethodPost, "/api/sync/now", nil)
	req = req.WithContext(zl.WithContext(req.Context()))

	FromRequest(req).Info().Msg("sync requested")

	assert.Equal(t, "abc", lastEntry(t, &buf)["trace_id"])
}
