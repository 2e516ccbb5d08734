package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// DefaultSize is how many records a Handler retains unless told otherwise.
const DefaultSize = 20

// buffer is shared between a Handler and the handlers derived from it.
type buffer struct {
	mu   sync.Mutex
	size int
	logs []slog.Record
}

func (b *buffer) add(r slog.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logs = append(b.logs, r.Clone())
	if len(b.logs) > b.size {
		b.logs = b.logs[len(b.logs)-b.size:]
	}
}

// Handler is a slog.Handler that keeps the most recent records in memory
// before passing them to the wrapped handler. Records are retained at every
// level; only those the wrapped handler enables are forwarded.
type Handler struct {
	slog.Handler
	buf *buffer
}

// NewHandler creates a new Handler retaining up to size records.
func NewHandler(handler slog.Handler, size int) *Handler {
	if handler == nil {
		handler = slog.DiscardHandler
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &Handler{
		Handler: handler,
		buf:     &buffer{size: size},
	}
}

func (h *Handler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle stores the record and forwards it.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	h.buf.add(r)
	if !h.Handler.Enabled(ctx, r.Level) {
		return nil
	}
	return h.Handler.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{Handler: h.Handler.WithAttrs(attrs), buf: h.buf}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{Handler: h.Handler.WithGroup(name), buf: h.buf}
}

// Logs returns a copy of the stored records, oldest first.
func (h *Handler) Logs() []slog.Record {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	return append([]slog.Record(nil), h.buf.logs...)
}

// Find returns the stored records at or above level whose message contains
// msg.
func (h *Handler) Find(level slog.Level, msg string) []slog.Record {
	var found []slog.Record
	for _, r := range h.Logs() {
		if r.Level >= level && strings.Contains(r.Message, msg) {
			found = append(found, r)
		}
	}
	return found
}

// New returns a logger writing text to w at the given level, together with
// the Handler that retains its records.
func New(w io.Writer, level slog.Level) (*slog.Logger, *Handler) {
	h := NewHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}), DefaultSize)
	return slog.New(h), h
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

var defaultHandler *Handler

// Init initializes the default logger.
func Init(handler slog.Handler) *slog.Logger {
	defaultHandler = NewHandler(handler, DefaultSize)
	logger := slog.New(defaultHandler)
	slog.SetDefault(logger)
	return logger
}

// Logs returns the stored log messages from the default logger.
func Logs() []slog.Record {
	if defaultHandler == nil {
		return nil
	}
	return defaultHandler.Logs()
}
