package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

type LogCategory string

const (
	META      LogCategory = "meta" // For logs about logging
	MIDI_IN   LogCategory = "midi_in"
	MIDI_OUT  LogCategory = "midi_out"
	MIXER_OUT LogCategory = "mixer_out" // bytes/messages sent toward the mixer
	HEALTH    LogCategory = "health"
	APP       LogCategory = "app" // For application-specific logs (i.e. business logic)
)

// Sink receives every log record alongside the default stderr handler.
//
// The UI/log collaborator registers one of these instead of the core knowing
// anything about a concrete widget.
type Sink func(category LogCategory, level slog.Level, msg string)

// Internal state for loggers per category
var (
	mu               *sync.RWMutex
	loggers          = map[LogCategory]*slog.Logger{}
	categoryLvls     map[LogCategory]*slog.LevelVar
	defaultLogLevels map[LogCategory]slog.Level

	sinkMu sync.RWMutex
	sinks  []Sink
)

func init() {
	mu = new(sync.RWMutex)
	defaultLogLevels = map[LogCategory]slog.Level{
		META:      slog.LevelInfo,
		MIDI_IN:   slog.LevelWarn,
		MIDI_OUT:  slog.LevelWarn,
		MIXER_OUT: slog.LevelWarn,
		HEALTH:    slog.LevelInfo,
		APP:       slog.LevelInfo,
	}
	categoryLvls = make(map[LogCategory]*slog.LevelVar)
}

// AddSink registers a collaborator sink. Sinks are called synchronously on
// whatever goroutine logged the record and must not block.
func AddSink(s Sink) {
	sinkMu.Lock()
	sinks = append(sinks, s)
	sinkMu.Unlock()
}

func fanOut(category LogCategory, level slog.Level, msg string) {
	sinkMu.RLock()
	defer sinkMu.RUnlock()
	for _, s := range sinks {
		s(category, level, msg)
	}
}

// teeHandler forwards each record to the registered sinks before handing it
// to the wrapped text handler.
type teeHandler struct {
	inner    slog.Handler
	category LogCategory
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	fanOut(h.category, r.Level, r.Message)
	return h.inner.Handle(ctx, r)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{inner: h.inner.WithAttrs(attrs), category: h.category}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{inner: h.inner.WithGroup(name), category: h.category}
}

// Get returns a slog.Logger that always has the "category" attribute set.
// Each category gets its own logger instance.
func Get(category LogCategory) *slog.Logger {
	mu.RLock()
	l, ok := loggers[category]
	mu.RUnlock()
	if ok {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	// Double-check after locking
	if l, ok := loggers[category]; ok {
		return l
	}
	// Create a new LevelVar for this category if it doesn't exist
	lvlVar, ok := categoryLvls[category]
	if !ok {
		lvlVar = new(slog.LevelVar)
		lvlVar.Set(defaultLogLevels[category])
		categoryLvls[category] = lvlVar
	}
	handler := &teeHandler{
		inner: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: lvlVar,
		}),
		category: category,
	}
	catLogger := slog.New(handler).With("category", category)
	loggers[category] = catLogger
	return catLogger
}

// SetCategoryLevel adjusts the log level for one category at runtime.
func SetCategoryLevel(category LogCategory, level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	lvlVar, ok := categoryLvls[category]
	if !ok {
		lvlVar = new(slog.LevelVar)
		categoryLvls[category] = lvlVar
	}
	lvlVar.Set(level)
}
