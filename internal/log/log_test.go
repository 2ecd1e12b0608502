package log_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unity-showcase/devlauncher/internal/log"
)

func TestContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, false)

	ctx := log.ContextAttrs(t.Context(), slog.String("session", "abc"))
	logger.InfoContext(ctx, "started", "service", "TTS API")
	logger.DebugContext(ctx, "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "started", rec["msg"])
	require.Equal(t, "abc", rec["session"])
	require.Equal(t, "TTS API", rec["service"])
}

func TestContextAttrs_NoAliasing(t *testing.T) {
	base := log.ContextAttrs(t.Context(), slog.String("a", "1"))
	first := log.ContextAttrs(base, slog.String("b", "2"))
	second := log.ContextAttrs(base, slog.String("c", "3"))

	var buf bytes.Buffer
	logger := log.New(&buf, true)
	logger.DebugContext(first, "first")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "2", rec["b"])
	require.NotContains(t, rec, "c")
	_ = second
}

func TestOpen(t *testing.T) {
	w, closeFn, err := log.Open("discard")
	require.NoError(t, err)
	require.Equal(t, io.Discard, w)
	require.NoError(t, closeFn())

	w, _, err = log.Open("")
	require.NoError(t, err)
	require.Equal(t, os.Stderr, w)

	path := filepath.Join(t.TempDir(), "devlauncher.log")
	w, closeFn, err = log.Open(path)
	require.NoError(t, err)
	_, err = io.WriteString(w, "line\n")
	require.NoError(t, err)
	require.NoError(t, closeFn())
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "line\n", string(b))

	_, _, err = log.Open(filepath.Join(t.TempDir(), "missing", "x.log"))
	require.Error(t, err)
}
