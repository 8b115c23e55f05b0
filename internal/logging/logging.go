package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

const redacted = "[REDACTED]"

// New builds a zap logger for the given mode ("prod"/"production" or anything
// else for development) and returns it as a slog.Logger whose attributes are
// scrubbed of credentials and contact details.
func New(mode string, redact bool) (*slog.Logger, func(), error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	zl, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("error building zap logger: %w", err)
	}

	var handler slog.Handler = zapslog.NewHandler(zl.Core())
	if redact {
		handler = &redactingHandler{next: handler}
	}

	sync := func() { _ = zl.Sync() }

	return slog.New(handler), sync, nil
}

// Setup installs the logger as the process default so that plain slog calls go
// through zap.
func Setup(mode string, redact bool) (func(), error) {
	logger, sync, err := New(mode, redact)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return sync, nil
}

// NewCore wraps an existing zap core, mostly useful in tests with zaptest/observer.
func NewCore(core zapcore.Core, redact bool) *slog.Logger {
	var handler slog.Handler = zapslog.NewHandler(core)
	if redact {
		handler = &redactingHandler{next: handler}
	}
	return slog.New(handler)
}

type redactingHandler struct {
	next slog.Handler
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.next.Handle(ctx, clean)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		clean = append(clean, sanitizeAttr(a))
	}
	return &redactingHandler{next: h.next.WithAttrs(clean)}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{next: h.next.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		clean := make([]any, 0, len(group))
		for _, g := range group {
			clean = append(clean, sanitizeAttr(g))
		}
		return slog.Group(a.Key, clean...)
	}
	if isRedactKey(strings.ToLower(strings.TrimSpace(a.Key))) {
		return slog.String(a.Key, redacted)
	}
	return a
}

func isRedactKey(key string) bool {
	switch {
	case strings.Contains(key, "password"),
		strings.Contains(key, "token"),
		strings.Contains(key, "secret"),
		strings.Contains(key, "apikey"),
		strings.Contains(key, "api_key"),
		strings.Contains(key, "service_key"),
		strings.Contains(key, "authorization"),
		strings.Contains(key, "email"):
		return true
	default:
		return false
	}
}
