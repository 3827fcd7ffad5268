package telemetry

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide structured logger and installs it
// as the slog default.
func NewLogger() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
