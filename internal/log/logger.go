package log

import (
	"log/slog"
	"os"
)

// Logger is a slog.Logger with the owning component baked into every record.
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger configuration. A nil Handler falls back to a text
// handler on stdout at the configured level.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.Level,
		})
	}

	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, config.Component),
		component: config.Component,
	}
}

// With returns a logger carrying the given attributes on top of the
// component attribute.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}
