package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"securemate/backend/internal/authctx"
	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/httpjson"
	"securemate/backend/internal/metrics"
	"securemate/backend/internal/navigation"
)

// BodyguardGetter looks up a bodyguard application by uid.
type BodyguardGetter interface {
	Get(ctx context.Context, id string) (*bodyguard.Bodyguard, error)
}

// BodyguardStatus is the application status of u, or empty for clients and
// bodyguards with no application on file.
func BodyguardStatus(ctx context.Context, guards BodyguardGetter, u *account.User) bodyguard.Status {
	if !u.IsBodyguard() || guards == nil {
		return ""
	}
	g, err := guards.Get(ctx, u.ID)
	if err != nil {
		return ""
	}
	return g.Status
}

type Auth struct {
	acct    *account.Context
	guards  BodyguardGetter
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewAuth(acct *account.Context, guards BodyguardGetter, m *metrics.Metrics, log *zap.Logger) *Auth {
	if log == nil {
		log = zap.NewNop()
	}
	return &Auth{acct: acct, guards: guards, metrics: m, log: log}
}

type sessionResp struct {
	User     *account.User    `json:"user"`
	Session  *account.Session `json:"session"`
	Token    string           `json:"token"`
	Redirect string           `json:"redirect"`
}

func (h *Auth) respond(w http.ResponseWriter, r *http.Request, kind string, status int, res account.Result) {
	h.metrics.SignIn(kind, res.OK())
	if !res.OK() {
		code, msg := MapAccountError(res.Err)
		httpjson.Error(w, code, msg)
		return
	}
	httpjson.Write(w, status, sessionResp{
		User:     res.User,
		Session:  res.Session,
		Token:    res.Session.ID,
		Redirect: navigation.Home(res.User, BodyguardStatus(r.Context(), h.guards, res.User)),
	})
}

func (h *Auth) SignUp(w http.ResponseWriter, r *http.Request) {
	var in account.SignUpInput
	if err := httpjson.Read(r, &in); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	in.UserType = account.UserTypeClient
	h.respond(w, r, "signup", http.StatusCreated, h.acct.SignUp(r.Context(), in))
}

func (h *Auth) SignIn(w http.ResponseWriter, r *http.Request) {
	var in account.SignInInput
	if err := httpjson.Read(r, &in); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	h.respond(w, r, "password", http.StatusOK, h.acct.SignIn(r.Context(), in))
}

func (h *Auth) SignOut(w http.ResponseWriter, r *http.Request) {
	u, _ := authctx.UserFrom(r.Context())
	tok, _ := authctx.Token(r.Context())
	if err := h.acct.SignOut(r.Context(), u, tok); err != nil {
		code, msg := MapAccountError(err)
		httpjson.Error(w, code, msg)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := authctx.UserFrom(r.Context())
	status := BodyguardStatus(r.Context(), h.guards, u)
	httpjson.Write(w, http.StatusOK, map[string]interface{}{
		"user":            u,
		"bodyguardStatus": status,
		"redirect":        navigation.Home(u, status),
	})
}

func MapAccountError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case account.IsErrNotReady(err):
		return 503, err.Error()
	case account.IsErrInvalidCredentials(err), account.IsErrUnauthorized(err), account.IsErrSessionNotFound(err):
		return 401, err.Error()
	case account.IsErrEmailExists(err):
		return 409, err.Error()
	case account.IsErrBadRequest(err):
		return 400, err.Error()
	default:
		return 500, err.Error()
	}
}
