package account

import (
	"strings"
	"time"
)

type UserType string

const (
	UserTypeClient    UserType = "client"
	UserTypeBodyguard UserType = "bodyguard"
)

// ParseUserType defaults anything unrecognised to client, matching accounts
// created before user_type was written.
func ParseUserType(s string) UserType {
	switch UserType(strings.ToLower(strings.TrimSpace(s))) {
	case UserTypeBodyguard:
		return UserTypeBodyguard
	default:
		return UserTypeClient
	}
}

// Metadata mirrors the user_metadata object the browser reads.
type Metadata struct {
	FullName string   `json:"full_name"`
	UserType UserType `json:"user_type"`
}

type User struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Metadata Metadata `json:"user_metadata"`
	Admin    bool     `json:"admin,omitempty"`
}

func (u *User) IsBodyguard() bool { return u != nil && u.Metadata.UserType == UserTypeBodyguard }
func (u *User) IsClient() bool    { return u != nil && u.Metadata.UserType != UserTypeBodyguard }

type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Result is what SignIn and SignUp hand back. On failure User and Session are
// nil and Err carries the backend's message unchanged.
type Result struct {
	User    *User    `json:"user,omitempty"`
	Session *Session `json:"session,omitempty"`
	Err     error    `json:"-"`
}

func (r Result) OK() bool { return r.Err == nil }

func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

type SignUpInput struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	FullName string   `json:"fullName"`
	UserType UserType `json:"-"`
}

func (in *SignUpInput) Trim() {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
}

type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *SignInInput) Trim() {
	in.Email = strings.TrimSpace(in.Email)
}

type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
)

type Event struct {
	Kind EventKind
	User User
}
