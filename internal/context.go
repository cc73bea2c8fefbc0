package internal

import (
	"context"
	"time"

	coreuser "github.com/blitztech/access-management/internal/core/user"
)

type ctxKey string

const ContextUserKey ctxKey = "userID"

const ContextAuthUserKey ctxKey = "auth_user"

// UserFromContext returns the authenticated identity the middleware
// stored on the request context.
func UserFromContext(ctx context.Context) (*coreuser.User, bool) {
	u, ok := ctx.Value(ContextAuthUserKey).(*coreuser.User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *coreuser.User) context.Context {
	return context.WithValue(ctx, ContextAuthUserKey, u)
}

func UserIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if userID, ok := ctx.Value(ContextUserKey).(int64); ok {
		return userID
	}
	return 0
}

func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ContextUserKey, userID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
