// Package accounttest provides an in-memory identity provider for tests.
package accounttest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"securemate/backend/internal/domain/account"
)

type record struct {
	user     account.User
	password string
}

// Provider mimics the backend's auth API closely enough for handler and
// service tests: it rejects duplicate emails and short passwords with the
// backend's own error codes.
type Provider struct {
	mu      sync.Mutex
	byEmail map[string]*record
	tokens  map[string]account.User
	Revoked []string
	nextID  int
}

func NewProvider() *Provider {
	return &Provider{byEmail: map[string]*record{}, tokens: map[string]account.User{}}
}

// AddUser seeds an account and returns it.
func (p *Provider) AddUser(email, password string, meta account.Metadata) account.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	u := account.User{ID: fmt.Sprintf("uid-%d", p.nextID), Email: email, Metadata: meta}
	p.byEmail[email] = &record{user: u, password: password}
	return u
}

// IssueIDToken registers token as a valid ID token for u.
func (p *Provider) IssueIDToken(token string, u account.User) {
	p.mu.Lock()
	p.tokens[token] = u
	p.mu.Unlock()
}

func (p *Provider) SignInWithPassword(_ context.Context, email, password string) (*account.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("%w: EMAIL_NOT_FOUND", account.ErrInvalidCredentials)
	}
	if r.password != password {
		return nil, fmt.Errorf("%w: INVALID_PASSWORD", account.ErrInvalidCredentials)
	}
	u := r.user
	return &u, nil
}

func (p *Provider) CreateUser(_ context.Context, email, password string, meta account.Metadata) (*account.User, error) {
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: WEAK_PASSWORD : Password should be at least 6 characters", account.ErrBadRequest)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byEmail[email]; ok {
		return nil, fmt.Errorf("%w: EMAIL_EXISTS", account.ErrEmailExists)
	}
	p.nextID++
	u := account.User{ID: fmt.Sprintf("uid-%d", p.nextID), Email: email, Metadata: meta}
	p.byEmail[email] = &record{user: u, password: password}
	return &u, nil
}

func (p *Provider) VerifyIDToken(_ context.Context, idToken string) (*account.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.tokens[idToken]
	if !ok {
		return nil, errors.New("ID token has invalid signature")
	}
	return &u, nil
}

// RevokeSessions records uid and invalidates every ID token issued to it.
func (p *Provider) RevokeSessions(_ context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Revoked = append(p.Revoked, uid)
	for tok, u := range p.tokens {
		if u.ID == uid {
			delete(p.tokens, tok)
		}
	}
	return nil
}

// Users returns a snapshot of all registered users.
func (p *Provider) Users() []account.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]account.User, 0, len(p.byEmail))
	for _, r := range p.byEmail {
		out = append(out, r.user)
	}
	return out
}
