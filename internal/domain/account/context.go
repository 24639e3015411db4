package account

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdentityProvider is the managed backend's session API.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*User, error)
	CreateUser(ctx context.Context, email, password string, meta Metadata) (*User, error)
	VerifyIDToken(ctx context.Context, idToken string) (*User, error)
	RevokeSessions(ctx context.Context, uid string) error
}

// Context is the process-wide auth context. It is built once in main and
// injected wherever the current user is needed.
type Context struct {
	idp   IdentityProvider
	store SessionStore
	ttl   time.Duration
	log   *zap.Logger

	now   func() time.Time
	newID func() string

	loading atomic.Bool

	mu        sync.RWMutex
	listeners []func(Event)
}

type Option func(*Context)

func WithClock(now func() time.Time) Option { return func(c *Context) { c.now = now } }
func WithIDs(next func() string) Option     { return func(c *Context) { c.newID = next } }

func NewContext(idp IdentityProvider, store SessionStore, ttl time.Duration, log *zap.Logger, opts ...Option) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Context{
		idp:   idp,
		store: store,
		ttl:   ttl,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	c.loading.Store(true)
	return c
}

// Loading reports whether initial session restoration is still running.
func (c *Context) Loading() bool { return c.loading.Load() }

// Restore checks the session store is reachable. Loading flips to false
// when it returns, whatever the outcome; an unreachable store surfaces
// per-request instead of blocking the process forever.
func (c *Context) Restore(ctx context.Context) error {
	defer c.loading.Store(false)
	if err := c.store.Ping(ctx); err != nil {
		c.log.Error("session store unreachable during restore", zap.Error(err))
		return fmt.Errorf("restore sessions: %w", err)
	}
	c.log.Info("auth context restored")
	return nil
}

// Subscribe registers fn to run after every sign-in and sign-out.
func (c *Context) Subscribe(fn func(Event)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Context) publish(e Event) {
	c.mu.RLock()
	ls := append([]func(Event){}, c.listeners...)
	c.mu.RUnlock()
	for _, fn := range ls {
		fn(e)
	}
}

func (c *Context) SignIn(ctx context.Context, in SignInInput) Result {
	in.Trim()
	if in.Email == "" || in.Password == "" {
		return Result{Err: fmt.Errorf("%w: email and password are required", ErrBadRequest)}
	}

	u, err := c.idp.SignInWithPassword(ctx, in.Email, in.Password)
	if err != nil {
		c.log.Info("sign-in rejected", zap.String("email", in.Email), zap.Error(err))
		return Result{Err: err}
	}
	return c.open(ctx, u)
}

func (c *Context) SignUp(ctx context.Context, in SignUpInput) Result {
	in.Trim()
	if in.UserType == "" {
		in.UserType = UserTypeClient
	}
	if err := validateSignUp(in); err != nil {
		return Result{Err: err}
	}

	u, err := c.idp.CreateUser(ctx, in.Email, in.Password, Metadata{FullName: in.FullName, UserType: in.UserType})
	if err != nil {
		c.log.Info("sign-up rejected", zap.String("email", in.Email), zap.Error(err))
		return Result{Err: err}
	}
	return c.open(ctx, u)
}

func (c *Context) open(ctx context.Context, u *User) Result {
	now := c.now().UTC()
	s := Session{
		ID:        c.newID(),
		User:      *u,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	if err := c.store.Put(ctx, s, c.ttl); err != nil {
		c.log.Error("failed to persist session", zap.String("uid", u.ID), zap.Error(err))
		return Result{Err: err}
	}
	c.publish(Event{Kind: EventSignedIn, User: *u})
	return Result{User: u, Session: &s}
}

// SignOut ends the caller's session and revokes the user's refresh tokens.
// token is the bearer the request authenticated with: a server session id,
// or a Firebase ID token, in which case u identifies whose tokens to revoke.
func (c *Context) SignOut(ctx context.Context, u *User, token string) error {
	var user User
	s, err := c.store.Get(ctx, token)
	switch {
	case err == nil:
		if err := c.store.Delete(ctx, token); err != nil {
			return err
		}
		user = s.User
	case IsErrSessionNotFound(err) && u != nil && u.ID != "":
		user = *u
	default:
		return err
	}

	if err := c.idp.RevokeSessions(ctx, user.ID); err != nil {
		// The local session is already gone; the user is signed out here.
		c.log.Warn("failed to revoke refresh tokens", zap.String("uid", user.ID), zap.Error(err))
	}
	c.publish(Event{Kind: EventSignedOut, User: user})
	return nil
}

// Current resolves a bearer token to a user: server sessions first, then a
// Firebase ID token minted by a browser SDK.
func (c *Context) Current(ctx context.Context, token string) (*User, error) {
	if c.Loading() {
		return nil, ErrNotReady
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	s, err := c.store.Get(ctx, token)
	switch {
	case err == nil:
		u := s.User
		return &u, nil
	case !IsErrSessionNotFound(err):
		return nil, err
	}

	u, err := c.idp.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	return u, nil
}

func validateSignUp(in SignUpInput) error {
	if in.Email == "" || in.Password == "" {
		return fmt.Errorf("%w: email and password are required", ErrBadRequest)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrBadRequest)
	}
	if in.FullName == "" {
		return fmt.Errorf("%w: full name is required", ErrBadRequest)
	}
	if in.UserType != UserTypeClient && in.UserType != UserTypeBodyguard {
		return fmt.Errorf("%w: unknown user type %q", ErrBadRequest, in.UserType)
	}
	return nil
}
