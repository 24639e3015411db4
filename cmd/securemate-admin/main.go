package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"securemate/backend/internal/config"
	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/domain/booking"
	"securemate/backend/internal/firebase"
	"securemate/backend/internal/logging"
)

// RoleSetter writes account custom claims; *firebase.Identity implements it.
type RoleSetter interface {
	SetRole(ctx context.Context, uid string, userType account.UserType, admin bool) (map[string]interface{}, error)
}

// app holds what the commands operate on. It is built once per invocation.
type app struct {
	roles      RoleSetter
	bodyguards *bodyguard.Service
	bookings   *booking.Service
	close      func()
}

type appFactory func(ctx context.Context) (*app, error)

func firebaseApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	log := logging.Must(cfg.LogLevel, "console")

	clients, err := firebase.NewClients(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	var files bodyguard.FileStore
	if cfg.StorageBucket != "" {
		files = firebase.NewFiles(clients, cfg.SignedURLServiceAccountEmail)
	}
	guards := bodyguard.NewService(bodyguard.NewRepo(clients.Firestore), files, nil, log, nil)
	return &app{
		roles:      firebase.NewIdentity(clients, log),
		bodyguards: guards,
		bookings:   booking.NewService(booking.NewRepo(clients.Firestore), guards, log, booking.WithLocation(cfg.Timezone)),
		close: func() {
			clients.Close()
			_ = log.Sync()
		},
	}, nil
}

func newRootCmd(factory appFactory) *cobra.Command {
	var (
		timeout time.Duration
		a       *app
	)
	root := &cobra.Command{
		Use:           "securemate-admin",
		Short:         "Operate the SecureMate backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")

	// get builds the app on first use so --help works offline.
	get := func(cmd *cobra.Command) (*app, context.Context, context.CancelFunc, error) {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		if a == nil {
			var err error
			if a, err = factory(ctx); err != nil {
				cancel()
				return nil, nil, nil, fmt.Errorf("init: %w", err)
			}
		}
		return a, ctx, cancel, nil
	}
	root.PersistentPostRun = func(*cobra.Command, []string) {
		if a != nil && a.close != nil {
			a.close()
		}
	}

	root.AddCommand(newClaimsCmd(get), newBodyguardsCmd(get), newBookingsCmd(get))
	return root
}

type getter func(cmd *cobra.Command) (*app, context.Context, context.CancelFunc, error)

func main() {
	if err := newRootCmd(firebaseApp).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
