package profile

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const Collection = "profiles"

type Repository interface {
	Get(ctx context.Context, uid string) (*Profile, error)
	Create(ctx context.Context, p Profile) (*Profile, error)
	Update(ctx context.Context, uid string, fields map[string]interface{}) error
}

// ErrExists is returned by Create when the profile is already there.
var ErrExists = fmt.Errorf("%w: profile already exists", ErrBadRequest)

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) Get(ctx context.Context, uid string) (*Profile, error) {
	doc, err := r.fs.Collection(Collection).Doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: profile %s", ErrNotFound, uid)
	}
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	p.ID = uid
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, p Profile) (*Profile, error) {
	_, err := r.fs.Collection(Collection).Doc(p.ID).Create(ctx, p)
	if status.Code(err) == codes.AlreadyExists {
		return nil, ErrExists
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Update(ctx context.Context, uid string, fields map[string]interface{}) error {
	_, err := r.fs.Collection(Collection).Doc(uid).Set(ctx, fields, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
