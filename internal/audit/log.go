// Package audit records who changed which journal.
package audit

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"tacc.org/internal/auth"
	"tacc.org/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the audit request id from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// Logger writes audit entries through zap under the "audit" logger name.
type Logger struct {
	log *zap.Logger
}

func New(l *zap.Logger) *Logger {
	return &Logger{log: obs.OrNop(l).Named("audit")}
}

// LogEvent writes an audit entry enriched with request and user context.
func (a *Logger) LogEvent(ctx context.Context, event, resource, resourceID string, fields map[string]string) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	zf := []zap.Field{
		zap.String("type", "audit"),
		zap.String("event", event),
		zap.String("resource", resource),
		zap.String("resource_id", resourceID),
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		zf = append(zf, zap.String("request_id", rid))
	}
	if userID, ok := auth.UserIDFromContext(ctx); ok {
		zf = append(zf, zap.String("user_id", userID))
	}
	if len(fields) > 0 {
		copyFields := make(map[string]string, len(fields))
		for k, v := range fields {
			copyFields[k] = v
		}
		zf = append(zf, zap.Any("fields", copyFields))
	}
	a.log.Info(event, zf...)
	return nil
}
