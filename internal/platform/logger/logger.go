package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Handlers and services take *slog.Logger so
// tests can swap in a discard handler.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
