package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:paralleltest // replaces the process-wide default logger
func TestSetupJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupJSON(slog.LevelWarn, &buf)

	slog.Info("dropped")
	slog.Warn("kept", "client", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.EqualValues(t, 7, entry["client"])
}

func TestOpenRunFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "logs")
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	f, err := OpenRunFile(dir, now)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, filepath.Join(dir, "ledger_20240309_140507.log"), f.Name())

	_, err = os.Stat(f.Name())
	require.NoError(t, err)
}
