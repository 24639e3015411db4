package booking

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const Collection = "bookings"

type Repository interface {
	// CreateIfFree loads the bodyguard's bookings on dates, passes them to
	// check and inserts b only when check returns nil. The read and the
	// insert are atomic with respect to other CreateIfFree calls.
	CreateIfFree(ctx context.Context, b Booking, dates []string, check func(existing []Booking) error) (*Booking, error)
	Get(ctx context.Context, id string) (*Booking, error)
	// ListByClient and ListByBodyguard return newest first.
	ListByClient(ctx context.Context, clientID string) ([]Booking, error)
	ListByBodyguard(ctx context.Context, bodyguardID string) ([]Booking, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) CreateIfFree(ctx context.Context, b Booking, dates []string, check func(existing []Booking) error) (*Booking, error) {
	col := r.fs.Collection(Collection)
	ref := col.NewDoc()
	b.ID = ref.ID
	q := col.
		Where("bodyguard_id", "==", b.BodyguardID).
		Where("booking_date", "in", dates)

	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := collect(tx.Documents(q))
		if err != nil {
			return err
		}
		if err := check(existing); err != nil {
			return err
		}
		return tx.Create(ref, b)
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Booking, error) {
	doc, err := r.fs.Collection(Collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

func (r *Repo) ListByClient(ctx context.Context, clientID string) ([]Booking, error) {
	q := r.fs.Collection(Collection).
		Where("client_id", "==", clientID).
		OrderBy("created_at", firestore.Desc)
	return collect(q.Documents(ctx))
}

func (r *Repo) ListByBodyguard(ctx context.Context, bodyguardID string) ([]Booking, error) {
	q := r.fs.Collection(Collection).
		Where("bodyguard_id", "==", bodyguardID).
		OrderBy("created_at", firestore.Desc)
	return collect(q.Documents(ctx))
}

func (r *Repo) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{Path: k, Value: fields[k]})
	}
	_, err := r.fs.Collection(Collection).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: booking %s", ErrNotFound, id)
	}
	return err
}

func collect(it *firestore.DocumentIterator) ([]Booking, error) {
	defer it.Stop()
	out := []Booking{}
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

func decode(doc *firestore.DocumentSnapshot) (*Booking, error) {
	var b Booking
	if err := doc.DataTo(&b); err != nil {
		return nil, fmt.Errorf("failed to decode booking: %w", err)
	}
	b.ID = doc.Ref.ID
	return &b, nil
}
