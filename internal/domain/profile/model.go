package profile

import (
	"strings"
	"time"
)

// Profile is a client's personal details, keyed by uid.
type Profile struct {
	ID        string    `firestore:"-" json:"id"`
	FullName  string    `firestore:"full_name" json:"full_name"`
	Phone     string    `firestore:"phone" json:"phone"`
	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at" json:"updated_at"`
}

// UpdateInput carries only the fields the user edited.
type UpdateInput struct {
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

func (in *UpdateInput) Trim() {
	if in.FullName != nil {
		*in.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		*in.Phone = strings.TrimSpace(*in.Phone)
	}
}

func (in UpdateInput) Empty() bool {
	return in.FullName == nil && in.Phone == nil
}

// Fields is the stored form of the update.
func (in UpdateInput) Fields() map[string]interface{} {
	out := map[string]interface{}{}
	if in.FullName != nil {
		out["full_name"] = *in.FullName
	}
	if in.Phone != nil {
		out["phone"] = *in.Phone
	}
	return out
}

// Merge returns prev with exactly the sent fields replaced.
func Merge(prev Profile, sent UpdateInput) Profile {
	if sent.FullName != nil {
		prev.FullName = *sent.FullName
	}
	if sent.Phone != nil {
		prev.Phone = *sent.Phone
	}
	return prev
}
