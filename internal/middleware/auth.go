package middleware

import (
	"context"
	"net/http"
	"strings"

	"securemate/backend/internal/authctx"
	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/httpjson"
)

// Authenticator resolves bearer tokens; *account.Context implements it.
type Authenticator interface {
	Current(ctx context.Context, token string) (*account.User, error)
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[len("Bearer "):])
	return tok, tok != ""
}

func WithAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearer(r)
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, "missing Authorization: Bearer <token>")
				return
			}

			u, err := a.Current(r.Context(), tok)
			switch {
			case account.IsErrNotReady(err):
				w.Header().Set("Retry-After", "1")
				httpjson.Error(w, http.StatusServiceUnavailable, err.Error())
				return
			case account.IsErrUnauthorized(err):
				httpjson.Error(w, http.StatusUnauthorized, err.Error())
				return
			case err != nil:
				httpjson.Error(w, http.StatusInternalServerError, err.Error())
				return
			}

			ctx := authctx.WithUser(r.Context(), u)
			ctx = authctx.WithToken(ctx, tok)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUserType lets through only users of type t. Admins always pass.
func RequireUserType(t account.UserType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := authctx.UserFrom(r.Context())
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !u.Admin && account.ParseUserType(string(u.Metadata.UserType)) != t {
				httpjson.Error(w, http.StatusForbidden, string(t)+" account required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := authctx.UserFrom(r.Context())
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !u.Admin {
				httpjson.Error(w, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
