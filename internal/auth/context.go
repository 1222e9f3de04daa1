package auth

import (
	"context"
	"time"
)

type contextKey struct{}

// AuthContext identifies the signed-in user behind a request.
type AuthContext struct {
	UserID    int64
	Token     string
	ExpiresAt time.Time
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

// IsAuthenticated reports whether a session was resolved for this request.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := FromContext(ctx)
	return ok
}
