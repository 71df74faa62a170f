package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warning", "error"
}

// ConsoleHandler is a slog.Handler that forwards records to a render's web
// console. Records are also passed on to next, when set, for the server log.
type ConsoleHandler struct {
	consoleChan chan<- ConsoleMessage
	next        slog.Handler
	attrs       []slog.Attr
	group       string
}

// NewConsoleHandler creates a handler sending to consoleChan
func NewConsoleHandler(consoleChan chan<- ConsoleMessage, next slog.Handler) *ConsoleHandler {
	return &ConsoleHandler{consoleChan: consoleChan, next: next}
}

// Enabled implements slog.Handler. Debug records (one per tile) stay out of the console.
func (h *ConsoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo || (h.next != nil && h.next.Enabled(ctx, level))
}

// Handle implements slog.Handler
func (h *ConsoleHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		if err := h.next.Handle(ctx, r); err != nil {
			return err
		}
	}
	if r.Level < slog.LevelInfo || h.consoleChan == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.group, a)
		return true
	})

	timestamp := r.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	// Non-blocking; a slow client drops console lines, never stalls the render
	select {
	case h.consoleChan <- ConsoleMessage{
		Message:   b.String(),
		Timestamp: timestamp,
		Level:     levelName(r.Level),
	}:
	default:
	}
	return nil
}

// WithAttrs implements slog.Handler
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}
	return &clone
}

// WithGroup implements slog.Handler
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if h.group != "" {
		clone.group = h.group + "." + name
	} else {
		clone.group = name
	}
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}
	return &clone
}

func writeAttr(b *strings.Builder, group string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	fmt.Fprintf(b, " %s=%s", key, a.Value.Resolve().String())
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
