// Package observability provides logging helpers shared by the SDK and CLI.
package observability

import (
	"context"
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

var _ slog.Handler = (*NoopHandler)(nil)

// NoopHandler is an slog.Handler that discards everything. It is the SDK's
// default so that library consumers opt in to logging explicitly.
type NoopHandler struct{}

func NewNoopHandler() slog.Handler {
	return &NoopHandler{}
}

func (h *NoopHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return false
}

func (h *NoopHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (h *NoopHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *NoopHandler) WithGroup(_ string) slog.Handler {
	return h
}

// NewTerminalLogger returns a color-formatted logger for interactive CLI use.
func NewTerminalLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level: level,
	}))
}
