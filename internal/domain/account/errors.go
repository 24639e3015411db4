package account

import "errors"

var (
	ErrBadRequest         = errors.New("bad request")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already registered")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotReady           = errors.New("auth context is still restoring")
)

func IsErrBadRequest(err error) bool         { return errors.Is(err, ErrBadRequest) }
func IsErrUnauthorized(err error) bool       { return errors.Is(err, ErrUnauthorized) }
func IsErrInvalidCredentials(err error) bool { return errors.Is(err, ErrInvalidCredentials) }
func IsErrEmailExists(err error) bool        { return errors.Is(err, ErrEmailExists) }
func IsErrSessionNotFound(err error) bool    { return errors.Is(err, ErrSessionNotFound) }
func IsErrNotReady(err error) bool           { return errors.Is(err, ErrNotReady) }
