package logger

import (
	"context"
	"io"
	"log/slog"
)

const ansiReset = "\033[0m"

// colorTextHandler decorates slog.TextHandler with an ANSI-colored level
// prefix for the interactive stderr diagnostics channel. File output goes
// through a plain TextHandler instead.
type colorTextHandler struct {
	*slog.TextHandler
}

// NewColorTextHandler wraps a TextHandler writing to w.
func NewColorTextHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return &colorTextHandler{TextHandler: slog.NewTextHandler(w, opts)}
}

func (h *colorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Message = levelColor(r.Level) + r.Level.String() + ansiReset + "  " + r.Message
	return h.TextHandler.Handle(ctx, r)
}

func levelColor(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "\033[36m" // cyan
	case slog.LevelInfo:
		return "\033[32m" // green
	case slog.LevelWarn:
		return "\033[33m" // yellow
	case slog.LevelError:
		return "\033[31m" // red
	}
	return ansiReset
}
