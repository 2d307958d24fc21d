// Package requestcontext carries request-scoped values that services and stores
// read without importing net/http.
//
// Middleware records the session identity, client metadata, request ID and
// request time. Tests set them directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithSession(ctx, userID, sessionID)
package requestcontext

import (
	"context"
	"time"

	id "docutrack/pkg/domain"
)

type key int

const (
	userIDKey key = iota
	sessionIDKey
	clientIPKey
	userAgentKey
	requestIDKey
	requestTimeKey
)

func value[T any](ctx context.Context, k key) T {
	v, _ := ctx.Value(k).(T)
	return v
}

// UserID is the authenticated session user, or the nil ID for guests.
func UserID(ctx context.Context) id.UserID {
	return value[id.UserID](ctx, userIDKey)
}

func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func SessionID(ctx context.Context) id.SessionID {
	return value[id.SessionID](ctx, sessionIDKey)
}

func WithSessionID(ctx context.Context, sessionID id.SessionID) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithSession records both halves of a validated session token.
func WithSession(ctx context.Context, userID id.UserID, sessionID id.SessionID) context.Context {
	return WithSessionID(WithUserID(ctx, userID), sessionID)
}

func ClientIP(ctx context.Context) string {
	return value[string](ctx, clientIPKey)
}

// UserAgent is the raw User-Agent header. Session login derives the device
// label from it.
func UserAgent(ctx context.Context) string {
	return value[string](ctx, userAgentKey)
}

func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func RequestID(ctx context.Context) string {
	return value[string](ctx, requestIDKey)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now is the time the request arrived. Outside a request (workers, the
// migrate command) it falls back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
