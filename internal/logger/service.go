package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

func Initialize(level slog.Level) {
	slog.SetDefault(New(os.Stdout, level))
}

// New builds the JSON logger used across the client.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func Named(name string) *slog.Logger {
	logger := slog.Default()
	if logger == nil {
		return nil
	}

	return logger.With("name", name)
}

// RelayLevel maps the relay client's numeric verbosity (0=debug .. 5=error)
// onto slog levels.
func RelayLevel(level int) slog.Level {
	switch {
	case level <= 1:
		return slog.LevelDebug
	case level == 2:
		return slog.LevelInfo
	case level == 3:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// AtLevel returns l with records below minLevel dropped, whatever l itself
// lets through.
func AtLevel(l *slog.Logger, minLevel slog.Level) *slog.Logger {
	return slog.New(&levelHandler{min: minLevel, Handler: l.Handler()})
}

type levelHandler struct {
	min slog.Level
	slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min && h.Handler.Enabled(ctx, level)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{min: h.min, Handler: h.Handler.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{min: h.min, Handler: h.Handler.WithGroup(name)}
}
