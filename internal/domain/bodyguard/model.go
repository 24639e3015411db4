package bodyguard

import (
	"io"
	"path"
	"strings"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, true
	case StatusApproved:
		return StatusApproved, true
	}
	return "", false
}

// Bodyguard is keyed by the owning account's uid.
type Bodyguard struct {
	ID            string    `firestore:"-" json:"id"`
	FullName      string    `firestore:"full_name" json:"full_name"`
	Phone         string    `firestore:"phone" json:"phone"`
	Email         string    `firestore:"email" json:"email"`
	ImageURL      string    `firestore:"profile_photo,omitempty" json:"image_url"`
	IDProofURL    string    `firestore:"id_proof,omitempty" json:"-"`
	IDProofObject string    `firestore:"id_proof_object,omitempty" json:"-"`
	Experience    int       `firestore:"experience" json:"experience"`
	HourlyRate    float64   `firestore:"hourly_rate" json:"hourly_rate"`
	Location      string    `firestore:"location" json:"location"`
	Status        Status    `firestore:"status" json:"status"`
	CreatedAt     time.Time `firestore:"created_at" json:"created_at"`
}

func (b *Bodyguard) Approved() bool { return b.Status == StatusApproved }

type RegisterInput struct {
	FullName   string  `json:"fullName"`
	Phone      string  `json:"phone"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Experience int     `json:"experience"`
	HourlyRate float64 `json:"hourlyRate"`
	Location   string  `json:"location"`
}

func (in *RegisterInput) Trim() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Location = strings.TrimSpace(in.Location)
}

// File is an uploaded document as received from the form.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Ext is the extension used for the stored object name, without the dot.
func (f *File) Ext() string {
	ext := strings.TrimPrefix(path.Ext(f.Name), ".")
	if ext == "" {
		return "bin"
	}
	return strings.ToLower(ext)
}

// Object is a stored file.
type Object struct {
	Name string
	URL  string
}

// ObjectName is <folder>/<id>.<ext>. Stores never overwrite an existing
// name, so id must be unique per upload.
func ObjectName(folder, id, ext string) string {
	return folder + "/" + id + "." + ext
}

const (
	FolderProfiles = "profiles"
	FolderIDProofs = "id-proofs"

	PendingPath = "/bodyguard-pending"
)

type Registration struct {
	Bodyguard *Bodyguard `json:"bodyguard"`
	Token     string     `json:"token"`
	Redirect  string     `json:"redirect"`
}
