package bodyguard

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/metrics"
)

const idProofURLTTL = 15 * time.Minute

// SignUpper creates an account and opens a session for it.
type SignUpper interface {
	SignUp(ctx context.Context, in account.SignUpInput) account.Result
}

type Service struct {
	repo    Repository
	files   FileStore
	auth    SignUpper
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option   { return func(s *Service) { s.now = now } }
func WithObjectIDs(next func() string) Option { return func(s *Service) { s.newID = next } }

func NewService(repo Repository, files FileStore, auth SignUpper, log *zap.Logger, m *metrics.Metrics, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{repo: repo, files: files, auth: auth, log: log, metrics: m, now: time.Now, newID: uuid.NewString}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register is the become-a-bodyguard flow: create the account, upload the
// documents, then insert a pending application. A failed upload leaves the
// corresponding URL empty and does not abort the submission.
func (s *Service) Register(ctx context.Context, in RegisterInput, photo, idProof *File) (*Registration, error) {
	in.Trim()
	if err := validateRegister(in); err != nil {
		return nil, err
	}

	res := s.auth.SignUp(ctx, account.SignUpInput{
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
		UserType: account.UserTypeBodyguard,
	})
	if !res.OK() {
		return nil, res.Err
	}
	if res.User == nil {
		return nil, errors.New("failed to create account")
	}

	b := Bodyguard{
		ID:         res.User.ID,
		FullName:   in.FullName,
		Phone:      in.Phone,
		Email:      in.Email,
		Experience: in.Experience,
		HourlyRate: in.HourlyRate,
		Location:   in.Location,
		Status:     StatusPending,
		CreatedAt:  s.now().UTC(),
	}
	if obj, ok := s.upload(ctx, FolderProfiles, photo); ok {
		b.ImageURL = obj.URL
	}
	if obj, ok := s.upload(ctx, FolderIDProofs, idProof); ok {
		b.IDProofURL = obj.URL
		b.IDProofObject = obj.Name
	}

	created, err := s.repo.Create(ctx, b)
	if err != nil {
		s.log.Error("failed to insert bodyguard application", zap.String("uid", b.ID), zap.Error(err))
		return nil, err
	}
	s.log.Info("bodyguard application submitted", zap.String("uid", created.ID), zap.String("location", created.Location))

	reg := &Registration{Bodyguard: created, Redirect: PendingPath}
	if res.Session != nil {
		reg.Token = res.Session.ID
	}
	return reg, nil
}

func (s *Service) upload(ctx context.Context, folder string, f *File) (Object, bool) {
	if f == nil || f.Body == nil {
		return Object{}, false
	}
	if s.files == nil {
		s.log.Warn("file storage not configured, dropping upload", zap.String("folder", folder))
		s.metrics.Upload(folder, false)
		return Object{}, false
	}

	name := ObjectName(folder, s.newID(), f.Ext())
	obj, err := s.files.Upload(ctx, name, f.ContentType, f.Body)
	if err != nil {
		s.log.Warn("upload failed", zap.String("object", name), zap.Error(err))
		s.metrics.Upload(folder, false)
		return Object{}, false
	}
	s.metrics.Upload(folder, true)
	return obj, true
}

// ListApproved is the client-facing browse list.
func (s *Service) ListApproved(ctx context.Context) ([]Bodyguard, error) {
	list, err := s.repo.ListByStatus(ctx, StatusApproved)
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, b := range list {
		if b.Approved() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, st Status) ([]Bodyguard, error) {
	return s.repo.ListByStatus(ctx, st)
}

func (s *Service) Get(ctx context.Context, id string) (*Bodyguard, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: bodyguard id is required", ErrBadRequest)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) GetMany(ctx context.Context, ids []string) (map[string]Bodyguard, error) {
	return s.repo.GetMany(ctx, ids)
}

// Approve moves a pending application to approved. Approving an approved
// bodyguard is a no-op.
func (s *Service) Approve(ctx context.Context, id string) (*Bodyguard, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Approved() {
		return b, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusApproved); err != nil {
		return nil, err
	}
	b.Status = StatusApproved
	s.log.Info("bodyguard approved", zap.String("uid", id))
	return b, nil
}

// IDProofURL returns a short-lived signed URL for reviewing the ID proof.
func (s *Service) IDProofURL(ctx context.Context, id string) (string, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if b.IDProofObject == "" {
		return "", fmt.Errorf("%w: no id proof on file", ErrNotFound)
	}
	if s.files == nil {
		return "", errors.New("file storage not configured")
	}
	return s.files.SignedURL(ctx, b.IDProofObject, idProofURLTTL)
}

func validateRegister(in RegisterInput) error {
	switch {
	case in.FullName == "":
		return fmt.Errorf("%w: full name is required", ErrBadRequest)
	case in.Phone == "":
		return fmt.Errorf("%w: phone is required", ErrBadRequest)
	case in.Email == "":
		return fmt.Errorf("%w: email is required", ErrBadRequest)
	case in.Password == "":
		return fmt.Errorf("%w: password is required", ErrBadRequest)
	case in.Location == "":
		return fmt.Errorf("%w: location is required", ErrBadRequest)
	case in.Experience < 0:
		return fmt.Errorf("%w: experience must be zero or more years", ErrBadRequest)
	case in.HourlyRate < 0:
		return fmt.Errorf("%w: hourly rate must be zero or more", ErrBadRequest)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrBadRequest)
	}
	return nil
}
