package firebase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"

	"securemate/backend/internal/domain/account"
)

const minPasswordLength = 6

// Identity implements account.IdentityProvider on Firebase Auth. Password
// sign-in goes through the Identity Toolkit REST API; everything else uses
// the Admin SDK.
type Identity struct {
	auth    *auth.Client
	toolkit *identitytoolkit.Service
	log     *zap.Logger
}

func NewIdentity(c *Clients, log *zap.Logger) *Identity {
	if log == nil {
		log = zap.NewNop()
	}
	return &Identity{auth: c.Auth, toolkit: c.Toolkit, log: log}
}

func (i *Identity) SignInWithPassword(ctx context.Context, email, password string) (*account.User, error) {
	if i.toolkit == nil {
		return nil, errors.New("password sign-in is not configured")
	}
	resp, err := i.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", account.ErrInvalidCredentials, gerr.Message)
		}
		return nil, err
	}

	rec, err := i.auth.GetUser(ctx, resp.LocalId)
	if err != nil {
		return nil, err
	}
	u := userFromRecord(rec)
	return &u, nil
}

func (i *Identity) CreateUser(ctx context.Context, email, password string, meta account.Metadata) (*account.User, error) {
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: WEAK_PASSWORD : Password should be at least %d characters", account.ErrBadRequest, minPasswordLength)
	}

	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(meta.FullName)
	rec, err := i.auth.CreateUser(ctx, params)
	if auth.IsEmailAlreadyExists(err) {
		return nil, fmt.Errorf("%w: EMAIL_EXISTS", account.ErrEmailExists)
	}
	if err != nil {
		return nil, err
	}

	if err := i.auth.SetCustomUserClaims(ctx, rec.UID, account.ClaimsFor(meta)); err != nil {
		// Without claims the account would sign in as a client; remove it so
		// the form can be resubmitted.
		if derr := i.auth.DeleteUser(ctx, rec.UID); derr != nil {
			i.log.Error("failed to remove account after claims error", zap.String("uid", rec.UID), zap.Error(derr))
		}
		return nil, fmt.Errorf("failed to set account claims: %w", err)
	}

	return &account.User{ID: rec.UID, Email: rec.Email, Metadata: meta}, nil
}

// VerifyIDToken also rejects tokens minted before the user's last
// revocation, so signing out invalidates outstanding ID tokens.
func (i *Identity) VerifyIDToken(ctx context.Context, idToken string) (*account.User, error) {
	tok, err := i.auth.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, err
	}
	u := account.UserFromClaims(tok.UID, tok.Claims)
	return &u, nil
}

func (i *Identity) RevokeSessions(ctx context.Context, uid string) error {
	return i.auth.RevokeRefreshTokens(ctx, uid)
}

// SyncFullName keeps the display name and full_name claim in step with the
// profile.
func (i *Identity) SyncFullName(ctx context.Context, uid, fullName string) error {
	rec, err := i.auth.GetUser(ctx, uid)
	if err != nil {
		return err
	}
	claims := map[string]interface{}{}
	for k, v := range rec.CustomClaims {
		claims[k] = v
	}
	claims[account.ClaimFullName] = fullName
	if err := i.auth.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return err
	}
	_, err = i.auth.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).DisplayName(fullName))
	return err
}

// SetRole writes user_type and the admin flag, keeping other claims.
func (i *Identity) SetRole(ctx context.Context, uid string, userType account.UserType, admin bool) (map[string]interface{}, error) {
	rec, err := i.auth.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	claims := map[string]interface{}{}
	for k, v := range rec.CustomClaims {
		claims[k] = v
	}
	if _, ok := claims[account.ClaimFullName]; !ok && rec.DisplayName != "" {
		claims[account.ClaimFullName] = rec.DisplayName
	}
	claims[account.ClaimUserType] = string(userType)
	if admin {
		claims[account.ClaimAdmin] = true
	} else {
		delete(claims, account.ClaimAdmin)
	}
	if err := i.auth.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func userFromRecord(rec *auth.UserRecord) account.User {
	u := account.UserFromClaims(rec.UID, rec.CustomClaims)
	u.Email = rec.Email
	if u.Metadata.FullName == "" {
		u.Metadata.FullName = rec.DisplayName
	}
	return u
}
