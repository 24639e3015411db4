package notifications

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const Collection = "notifications"

type Store interface {
	Add(ctx context.Context, n Notification) (string, error)
	ListFor(ctx context.Context, uid string, limit int) ([]Notification, error)
	// CountUnread counts every unread notification of uid, not just a page.
	CountUnread(ctx context.Context, uid string) (int, error)
	MarkRead(ctx context.Context, uid, id string, at time.Time) error
}

type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Add(ctx context.Context, n Notification) (string, error) {
	ref, _, err := s.client.Collection(Collection).Add(ctx, n)
	if err != nil {
		return "", fmt.Errorf("failed to create notification: %w", err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) ListFor(ctx context.Context, uid string, limit int) ([]Notification, error) {
	iter := s.client.Collection(Collection).
		Where("target_uid", "==", uid).
		OrderBy("created_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	out := []Notification{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list notifications: %w", err)
		}
		var n Notification
		if err := doc.DataTo(&n); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		n.ID = doc.Ref.ID
		out = append(out, n)
	}
	return out, nil
}

func (s *FirestoreStore) CountUnread(ctx context.Context, uid string) (int, error) {
	q := s.client.Collection(Collection).
		Where("target_uid", "==", uid).
		Where("read", "==", false)
	res, err := q.NewAggregationQuery().
		WithCount("unread").
		Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	v, ok := res["unread"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result %T", res["unread"])
	}
	return int(v.GetIntegerValue()), nil
}

func (s *FirestoreStore) MarkRead(ctx context.Context, uid, id string, at time.Time) error {
	ref := s.client.Collection(Collection).Doc(id)
	doc, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: notification %s", ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	if target, _ := doc.Data()["target_uid"].(string); target != uid {
		return fmt.Errorf("%w: notification %s", ErrNotFound, id)
	}
	_, err = ref.Update(ctx, []firestore.Update{
		{Path: "read", Value: true},
		{Path: "read_at", Value: at},
	})
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}
