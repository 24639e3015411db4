package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"securemate/backend/internal/config"
)

// Clients bundles the Firebase and GCP clients the service talks to.
type Clients struct {
	App       *firebase.App
	Auth      *auth.Client
	Firestore *firestore.Client
	Storage   *storage.Client
	// Messaging and IAM are optional; nil disables push and signed URLs.
	Messaging *messaging.Client
	IAM       *credentials.IamCredentialsClient
	// Toolkit is the password sign-in API, reached with the public API key.
	Toolkit *identitytoolkit.Service

	ProjectID string
	Bucket    string
}

// credentialOptions prefers GOOGLE_APPLICATION_CREDENTIALS (a file path),
// then FIREBASE_SERVICE_ACCOUNT_JSON (raw JSON). With neither set,
// Application Default Credentials apply.
func credentialOptions() []option.ClientOption {
	if cred := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); cred != "" {
		return []option.ClientOption{option.WithCredentialsFile(cred)}
	}
	if raw := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	return nil
}

func NewClients(ctx context.Context, cfg config.Config, log *zap.Logger) (*Clients, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("missing FIREBASE_PROJECT_ID or GOOGLE_CLOUD_PROJECT")
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts := credentialOptions()

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}

	fs, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: %w", err)
	}

	st, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	c := &Clients{
		App:       app,
		Auth:      authClient,
		Firestore: fs,
		Storage:   st,
		ProjectID: cfg.ProjectID,
		Bucket:    cfg.StorageBucket,
	}

	if msg, err := app.Messaging(ctx); err != nil {
		log.Warn("messaging unavailable, push notifications disabled", zap.Error(err))
	} else {
		c.Messaging = msg
	}

	if cfg.SignedURLServiceAccountEmail != "" {
		iam, err := credentials.NewIamCredentialsClient(ctx, opts...)
		if err != nil {
			log.Warn("IAM credentials client unavailable, signed URLs disabled", zap.Error(err))
		} else {
			c.IAM = iam
		}
	}

	if cfg.APIKey != "" {
		tk, err := identitytoolkit.NewService(ctx, option.WithAPIKey(cfg.APIKey))
		if err != nil {
			return nil, fmt.Errorf("identity toolkit: %w", err)
		}
		c.Toolkit = tk
	} else {
		log.Warn("FIREBASE_API_KEY not set, password sign-in disabled")
	}

	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Firestore != nil {
		_ = c.Firestore.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.IAM != nil {
		_ = c.IAM.Close()
	}
}
