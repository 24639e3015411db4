package authctx

import (
	"context"

	"securemate/backend/internal/domain/account"
)

type ctxKey string

const (
	userKey  ctxKey = "user"
	tokenKey ctxKey = "token"
)

func WithUser(ctx context.Context, u *account.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFrom(ctx context.Context) (*account.User, bool) {
	u, ok := ctx.Value(userKey).(*account.User)
	return u, ok && u != nil && u.ID != ""
}

// WithToken keeps the bearer token so sign-out can drop the matching session.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func Token(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tokenKey).(string)
	return v, ok && v != ""
}
