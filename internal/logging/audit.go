package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Audit emits a structured audit log entry. Request metadata stored by
// WithRequestContext is appended automatically.
func Audit(ctx context.Context, event, outcome string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	level := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "fail", "failed", "failure", "error", "denied":
		level = slog.LevelWarn
	}
	logger := slog.Default().With(
		"type", "audit",
		"event", event,
		"outcome", outcome,
	)
	all := append(RequestAttrs(ctx), attrs...)
	if len(all) == 0 {
		logger.Log(ctx, level, "audit")
		return
	}
	logger.LogAttrs(ctx, level, "audit", all...)
}

// Error logs an unexpected failure with request metadata. The caller is
// expected to return a generic message to the client.
func Error(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	all := append(RequestAttrs(ctx), slog.Any("error", err))
	all = append(all, attrs...)
	slog.Default().LogAttrs(ctx, slog.LevelError, msg, all...)
}
