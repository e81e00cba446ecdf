package auth

import (
	"context"
)

type contextKey string

var sessionKey contextKey = "marketplace_session"
var requestIDKey contextKey = "request_id"

func SetSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func GetSession(ctx context.Context) *Session {
	val := ctx.Value(sessionKey)
	if s, ok := val.(*Session); ok {
		return s
	}
	return nil
}

// SetRequestID stores the agent request id for log correlation
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID retrieves the request id, empty when unset
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
