package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// nop is the shared fallback for contexts without a logger, so callers
// never nil-check and lookups never allocate.
var nop = zap.NewNop()

// ContextWithLogger stores a request-scoped logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts the request-scoped logger from the context,
// falling back to a nop logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return nop
}
