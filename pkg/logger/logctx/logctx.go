// Package logctx logs through the base logger and tags every entry with the request id
// carried by ctx.
package logctx

import (
	"context"

	"github.com/nguyentranbao-ct/storefront-gateway/pkg/logger"
	"go.uber.org/zap"
)

// RequestIDKey is the context key the HTTP middleware stores request ids under.
const RequestIDKey = "x-request-id"

func from(ctx context.Context) *zap.SugaredLogger {
	l := logger.Base().WithOptions(zap.AddCallerSkip(1)).Sugar()
	if ctx == nil {
		return l
	}
	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		return l.With("request_id", id)
	}
	return l
}

func Debugw(ctx context.Context, msg string, keysAndValues ...any) {
	from(ctx).Debugw(msg, keysAndValues...)
}

func Infow(ctx context.Context, msg string, keysAndValues ...any) {
	from(ctx).Infow(msg, keysAndValues...)
}

func Warnw(ctx context.Context, msg string, keysAndValues ...any) {
	from(ctx).Warnw(msg, keysAndValues...)
}

func Errorw(ctx context.Context, msg string, keysAndValues ...any) {
	from(ctx).Errorw(msg, keysAndValues...)
}
