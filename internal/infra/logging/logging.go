package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// SetupJSON sets slog's default logger to write JSON to w at the given level.
func SetupJSON(level slog.Level, w io.Writer) *slog.Logger {
	logger := slog.New(
		slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
	)
	slog.SetDefault(logger)

	return logger
}

// OpenRunFile creates dir if needed and opens a fresh
// ledger_YYYYMMDD_HHMMSS.log file inside it.
func OpenRunFile(dir string, now time.Time) (*os.File, error) {
	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	name := filepath.Join(dir, "ledger_"+now.Format("20060102_150405")+".log")

	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return f, nil
}
