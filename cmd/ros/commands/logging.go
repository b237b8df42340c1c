package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"slices"
	"strings"

	"github.com/fatih/color"
)

type PrettyHandlerOptions struct {
	SlogOpts slog.HandlerOptions
}

// PrettyHandler renders records as a single colored line:
// `[15:04:05.000] LEVEL: message key=value ...`.
type PrettyHandler struct {
	slog.Handler
	l     *log.Logger
	attrs []slog.Attr
}

func NewPrettyHandler(out io.Writer, opts PrettyHandlerOptions) *PrettyHandler {
	return &PrettyHandler{
		Handler: slog.NewTextHandler(out, &opts.SlogOpts),
		l:       log.New(out, "", 0),
	}
}

func (h *PrettyHandler) Handle(ctx context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.BlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	fields := slices.Clone(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, a)
		return true
	})
	parts := make([]string, 0, len(fields))
	for _, a := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", a.Key, a.Value.Any()))
	}

	line := []any{r.Time.Format("[15:04:05.000]"), level, color.CyanString(r.Message)}
	if len(parts) > 0 {
		line = append(line, color.WhiteString(strings.Join(parts, " ")))
	}
	h.l.Println(line...)
	return nil
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrettyHandler{
		Handler: h.Handler.WithAttrs(attrs),
		l:       h.l,
		attrs:   append(slices.Clone(h.attrs), attrs...),
	}
}
