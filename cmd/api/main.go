package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"securemate/backend/internal/cache"
	"securemate/backend/internal/config"
	"securemate/backend/internal/content"
	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/domain/booking"
	"securemate/backend/internal/domain/dashboard"
	"securemate/backend/internal/domain/notifications"
	"securemate/backend/internal/domain/payment"
	"securemate/backend/internal/domain/profile"
	"securemate/backend/internal/firebase"
	apihttp "securemate/backend/internal/http"
	"securemate/backend/internal/logging"
	"securemate/backend/internal/metrics"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	log := logging.Must(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()
	for _, w := range cfg.Warnings {
		log.Warn("config: " + w)
	}

	clients, err := firebase.NewClients(ctx, cfg, log)
	if err != nil {
		log.Fatal("firebase init failed", zap.Error(err))
	}
	defer clients.Close()

	rdb := cache.NewRedisClient(cache.RedisConfig{
		Address:  cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = cache.Close(rdb) }()

	var (
		sessions account.SessionStore     = account.NewMemoryStore()
		idem     booking.IdempotencyStore = booking.NewMemoryIdempotency()
	)
	if err := cache.Ping(ctx, rdb); err != nil {
		log.Error("redis unreachable at startup", zap.Error(err))
	}
	if rdb != nil {
		sessions = account.NewRedisStore(rdb)
		idem = booking.NewRedisIdempotency(rdb)
		log.Info("using redis for sessions and idempotency keys", zap.String("addr", cfg.RedisAddr))
	} else {
		log.Warn("REDIS_ADDR not set, sessions are kept in memory")
	}

	m := metrics.New()
	identity := firebase.NewIdentity(clients, log)

	acct := account.NewContext(identity, sessions, cfg.SessionTTL, log)
	acct.Subscribe(func(e account.Event) {
		log.Info("auth state changed", zap.String("event", string(e.Kind)), zap.String("uid", e.User.ID))
	})

	// Repositories
	bodyguardRepo := bodyguard.NewRepo(clients.Firestore)
	bookingRepo := booking.NewRepo(clients.Firestore)
	profileRepo := profile.NewRepo(clients.Firestore)

	var files bodyguard.FileStore
	if clients.Storage != nil && cfg.StorageBucket != "" {
		files = firebase.NewFiles(clients, cfg.SignedURLServiceAccountEmail)
	}
	var sender notifications.Sender
	if p := firebase.NewPush(clients); p != nil {
		sender = p
	}

	// Services
	notificationsSvc := notifications.NewService(notifications.NewFirestoreStore(clients.Firestore), sender, log)
	bodyguardSvc := bodyguard.NewService(bodyguardRepo, files, acct, log, m)
	bookingSvc := booking.NewService(bookingRepo, bodyguardSvc, log,
		booking.WithNotifier(notificationsSvc),
		booking.WithIdempotency(idem),
		booking.WithMetrics(m),
		booking.WithLocation(cfg.Timezone),
	)
	profileSvc := profile.NewService(profileRepo, identity, log)
	dashboardSvc := dashboard.NewService(bodyguardSvc, bookingSvc, profileSvc, log, m)

	// Stripe is optional
	var paymentSvc *payment.Service
	if cfg.PaymentsEnabled() {
		paymentSvc = payment.NewService(payment.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			Currency:      cfg.StripeCurrency,
			PublicAppURL:  cfg.PublicAppURL,
		}, bookingSvc, bodyguardSvc, log)
		log.Info("stripe payments enabled")
	} else {
		log.Info("STRIPE_SECRET_KEY not set, payments disabled")
	}

	doc, err := content.Load(booking.FormatAmount)
	if err != nil {
		log.Fatal("content load failed", zap.Error(err))
	}

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Cfg:              cfg,
		Log:              log,
		Metrics:          m,
		Account:          acct,
		BodyguardSvc:     bodyguardSvc,
		BookingSvc:       bookingSvc,
		ProfileSvc:       profileSvc,
		DashboardSvc:     dashboardSvc,
		NotificationsSvc: notificationsSvc,
		PaymentSvc:       paymentSvc,
		Content:          doc,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Restore runs alongside the listener; protected routes answer 503 until it returns.
	go func() {
		rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := acct.Restore(rctx); err != nil {
			log.Error("session restore failed", zap.Error(err))
		}
	}()

	// graceful shutdown
	go func() {
		log.Info("API listening", zap.String("port", cfg.Port), zap.String("project", cfg.ProjectID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("shutting down")
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}
