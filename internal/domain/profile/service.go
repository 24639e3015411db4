package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"securemate/backend/internal/domain/account"
)

// NameSyncer mirrors a changed full name into the account's claims.
type NameSyncer interface {
	SyncFullName(ctx context.Context, uid, fullName string) error
}

type Service struct {
	repo  Repository
	names NameSyncer
	log   *zap.Logger
	now   func() time.Time
}

func NewService(repo Repository, names NameSyncer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, names: names, log: log, now: time.Now}
}

// Ensure returns the user's profile, creating it on first visit with the
// full name taken from the session and an empty phone.
func (s *Service) Ensure(ctx context.Context, u *account.User) (*Profile, error) {
	if u == nil || u.ID == "" {
		return nil, ErrUnauthorized
	}

	p, err := s.repo.Get(ctx, u.ID)
	if err == nil {
		return p, nil
	}
	if !IsErrNotFound(err) {
		return nil, err
	}

	now := s.now().UTC()
	p, err = s.repo.Create(ctx, Profile{
		ID:        u.ID,
		FullName:  u.Metadata.FullName,
		Phone:     "",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, ErrExists) {
		// Lost a race with a concurrent first visit.
		return s.repo.Get(ctx, u.ID)
	}
	if err != nil {
		s.log.Error("failed to create profile", zap.String("uid", u.ID), zap.Error(err))
		return nil, err
	}
	s.log.Info("profile created", zap.String("uid", u.ID))
	return p, nil
}

// Update writes the sent fields once and returns the previous profile with
// those fields merged in. The stored row is not re-read.
func (s *Service) Update(ctx context.Context, u *account.User, in UpdateInput) (*Profile, error) {
	in.Trim()
	if in.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrBadRequest)
	}
	if in.FullName != nil && *in.FullName == "" {
		return nil, fmt.Errorf("%w: full name cannot be empty", ErrBadRequest)
	}

	prev, err := s.Ensure(ctx, u)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	fields := in.Fields()
	fields["updated_at"] = now
	if err := s.repo.Update(ctx, u.ID, fields); err != nil {
		return nil, err
	}

	if in.FullName != nil && s.names != nil {
		if err := s.names.SyncFullName(ctx, u.ID, *in.FullName); err != nil {
			s.log.Warn("failed to sync full name to account", zap.String("uid", u.ID), zap.Error(err))
		}
	}

	merged := Merge(*prev, in)
	merged.UpdatedAt = now
	return &merged, nil
}
