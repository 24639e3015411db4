package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/httpjson"
)

// MaxUploadBytes bounds a registration form including both documents.
const MaxUploadBytes = 20 << 20

type Bodyguards struct {
	svc *bodyguard.Service
	log *zap.Logger
}

func NewBodyguards(svc *bodyguard.Service, log *zap.Logger) *Bodyguards {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bodyguards{svc: svc, log: log}
}

// Register accepts the become-a-bodyguard form as multipart (fields plus
// profilePhoto and idProof files) or as JSON without documents.
func (h *Bodyguards) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	var (
		in             bodyguard.RegisterInput
		photo, idProof *bodyguard.File
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid form: "+err.Error())
			return
		}
		defer r.MultipartForm.RemoveAll()

		var err error
		if in, err = registerInputFromForm(r); err != nil {
			httpjson.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		photo = formFile(r, "profilePhoto")
		idProof = formFile(r, "idProof")
		for _, f := range []*bodyguard.File{photo, idProof} {
			if f != nil {
				defer f.Body.(multipart.File).Close()
			}
		}
	} else if err := httpjson.Read(r, &in); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	reg, err := h.svc.Register(r.Context(), in, photo, idProof)
	if err != nil {
		status, msg := MapBodyguardError(err)
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusCreated, reg)
}

func registerInputFromForm(r *http.Request) (bodyguard.RegisterInput, error) {
	in := bodyguard.RegisterInput{
		FullName: r.FormValue("fullName"),
		Phone:    r.FormValue("phone"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Location: r.FormValue("location"),
	}
	if v := strings.TrimSpace(r.FormValue("experience")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, errors.New("experience must be a whole number of years")
		}
		in.Experience = n
	}
	if v := strings.TrimSpace(r.FormValue("hourlyRate")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return in, errors.New("hourlyRate must be a number")
		}
		in.HourlyRate = f
	}
	return in, nil
}

// formFile returns nil when the field is absent; a missing document is
// stored as no URL.
func formFile(r *http.Request, field string) *bodyguard.File {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil
	}
	return &bodyguard.File{Name: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Body: f}
}

func (h *Bodyguards) Approve(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status, msg := MapBodyguardError(err)
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusOK, b)
}

func (h *Bodyguards) IDProof(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.IDProofURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status, msg := MapBodyguardError(err)
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{"url": url})
}

func MapBodyguardError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case bodyguard.IsErrUnauthorized(err):
		return 403, err.Error()
	case bodyguard.IsErrNotFound(err):
		return 404, err.Error()
	case bodyguard.IsErrBadRequest(err):
		return 400, err.Error()
	case account.IsErrBadRequest(err), account.IsErrEmailExists(err),
		account.IsErrInvalidCredentials(err), account.IsErrNotReady(err):
		return MapAccountError(err)
	default:
		return 500, err.Error()
	}
}
