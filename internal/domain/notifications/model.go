package notifications

import "time"

type Kind string

const (
	KindBookingCreated Kind = "booking_created"
	KindBookingStatus  Kind = "booking_status"
)

// Notification is an in-app message kept alongside the push.
type Notification struct {
	ID        string     `firestore:"-" json:"id"`
	TargetUID string     `firestore:"target_uid" json:"-"`
	Title     string     `firestore:"title" json:"title"`
	Body      string     `firestore:"body" json:"body"`
	Kind      Kind       `firestore:"kind" json:"kind"`
	BookingID string     `firestore:"booking_id,omitempty" json:"bookingId,omitempty"`
	Read      bool       `firestore:"read" json:"read"`
	ReadAt    *time.Time `firestore:"read_at,omitempty" json:"readAt,omitempty"`
	CreatedAt time.Time  `firestore:"created_at" json:"createdAt"`
}

type ListResult struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

func BodyguardTopic(id string) string { return "bodyguard-" + id }
func ClientTopic(id string) string    { return "client-" + id }
