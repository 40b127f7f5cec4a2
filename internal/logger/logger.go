package logger

import (
	"log/slog"
	"os"
)

// New builds the process-wide JSON logger writing to stdout at info level.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
