package bodyguard

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const Collection = "bodyguards"

type Repository interface {
	Create(ctx context.Context, b Bodyguard) (*Bodyguard, error)
	Get(ctx context.Context, id string) (*Bodyguard, error)
	// GetMany returns the bodyguards that exist among ids, keyed by id.
	GetMany(ctx context.Context, ids []string) (map[string]Bodyguard, error)
	// ListByStatus returns newest first.
	ListByStatus(ctx context.Context, s Status) ([]Bodyguard, error)
	UpdateStatus(ctx context.Context, id string, s Status) error
}

// FileStore persists uploaded documents in the bodyguard files bucket.
type FileStore interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (Object, error)
	SignedURL(ctx context.Context, name string, ttl time.Duration) (string, error)
}

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) Create(ctx context.Context, b Bodyguard) (*Bodyguard, error) {
	if b.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrBadRequest)
	}
	_, err := r.fs.Collection(Collection).Doc(b.ID).Create(ctx, b)
	if status.Code(err) == codes.AlreadyExists {
		return nil, fmt.Errorf("%w: a bodyguard application already exists for this account", ErrBadRequest)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Bodyguard, error) {
	doc, err := r.fs.Collection(Collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: bodyguard %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

func (r *Repo) GetMany(ctx context.Context, ids []string) (map[string]Bodyguard, error) {
	out := make(map[string]Bodyguard, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		refs = append(refs, r.fs.Collection(Collection).Doc(id))
	}

	docs, err := r.fs.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		b, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out[b.ID] = *b
	}
	return out, nil
}

func (r *Repo) ListByStatus(ctx context.Context, s Status) ([]Bodyguard, error) {
	it := r.fs.Collection(Collection).
		Where("status", "==", string(s)).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer it.Stop()

	out := []Bodyguard{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		b, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, id string, s Status) error {
	_, err := r.fs.Collection(Collection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(s)},
	})
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: bodyguard %s", ErrNotFound, id)
	}
	return err
}

func decode(doc *firestore.DocumentSnapshot) (*Bodyguard, error) {
	var b Bodyguard
	if err := doc.DataTo(&b); err != nil {
		return nil, fmt.Errorf("failed to decode bodyguard: %w", err)
	}
	b.ID = doc.Ref.ID
	return &b, nil
}
