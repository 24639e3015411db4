package firebase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"

	"securemate/backend/internal/domain/bodyguard"
)

// Files implements bodyguard.FileStore on a Cloud Storage bucket.
type Files struct {
	storage *storage.Client
	iam     *credentials.IamCredentialsClient
	bucket  string
	signer  string
}

func NewFiles(c *Clients, signerEmail string) *Files {
	return &Files{storage: c.Storage, iam: c.IAM, bucket: c.Bucket, signer: signerEmail}
}

func (f *Files) PublicURL(name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", f.bucket, name)
}

// Upload creates name and fails if it already exists.
func (f *Files) Upload(ctx context.Context, name, contentType string, body io.Reader) (bodyguard.Object, error) {
	w := f.storage.Bucket(f.bucket).Object(name).
		If(storage.Conditions{DoesNotExist: true}).
		NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return bodyguard.Object{}, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return bodyguard.Object{}, fmt.Errorf("failed to finalize %s: %w", name, err)
	}
	return bodyguard.Object{Name: name, URL: f.PublicURL(name)}, nil
}

// SignedURL returns a V4 GET URL for name, signed through the IAM
// credentials API so no private key is needed on disk.
func (f *Files) SignedURL(ctx context.Context, name string, ttl time.Duration) (string, error) {
	if f.signer == "" {
		return "", errors.New("SIGNED_URL_SERVICE_ACCOUNT_EMAIL is not set")
	}
	if f.iam == nil {
		return "", errors.New("IAM credentials client not available")
	}

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         http.MethodGet,
		Expires:        time.Now().Add(ttl),
		GoogleAccessID: f.signer,
		SignBytes: func(b []byte) ([]byte, error) {
			resp, err := f.iam.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", f.signer),
				Payload: b,
			})
			if err != nil {
				return nil, err
			}
			return resp.SignedBlob, nil
		},
	}
	url, err := storage.SignedURL(f.bucket, name, opts)
	if err != nil {
		return "", fmt.Errorf("failed to sign url (check service account and permissions): %w", err)
	}
	return url, nil
}
