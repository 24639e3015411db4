package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"securemate/backend/internal/authctx"
	"securemate/backend/internal/config"
	"securemate/backend/internal/content"
	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/domain/booking"
	"securemate/backend/internal/domain/dashboard"
	"securemate/backend/internal/domain/notifications"
	"securemate/backend/internal/domain/payment"
	"securemate/backend/internal/domain/profile"
	"securemate/backend/internal/handlers"
	"securemate/backend/internal/httpjson"
	"securemate/backend/internal/metrics"
	"securemate/backend/internal/middleware"
	"securemate/backend/internal/navigation"
)

type RouterDeps struct {
	Cfg              config.Config
	Log              *zap.Logger
	Metrics          *metrics.Metrics
	Account          *account.Context
	BodyguardSvc     *bodyguard.Service
	BookingSvc       *booking.Service
	ProfileSvc       *profile.Service
	DashboardSvc     *dashboard.Service
	NotificationsSvc *notifications.Service
	// PaymentSvc is nil when Stripe is not configured; its routes are not mounted.
	PaymentSvc *payment.Service
	Content    *content.Document
}

func NewRouter(d RouterDeps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.CORS(d.Cfg.AllowedOrigins, log))

	auth := handlers.NewAuth(d.Account, d.BodyguardSvc, d.Metrics, log)
	guards := handlers.NewBodyguards(d.BodyguardSvc, log)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, 200, map[string]any{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if d.Account.Loading() {
			Fail(w, 503, "restoring sessions")
			return
		}
		WriteJSON(w, 200, map[string]any{"ready": true})
	})
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	// ===== Public =====
	r.Get("/v1/content", func(w http.ResponseWriter, _ *http.Request) {
		if d.Content == nil {
			Fail(w, 503, "content not loaded")
			return
		}
		WriteJSON(w, 200, d.Content)
	})

	r.Get("/v1/booking-options", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, 200, d.BookingSvc.Options())
	})

	r.Post("/v1/auth/signup", auth.SignUp)
	r.Post("/v1/auth/signin", auth.SignIn)
	r.Post("/v1/bodyguards/register", guards.Register)

	if d.PaymentSvc != nil {
		r.Post("/v1/stripe/webhook", handlers.NewPayments(d.PaymentSvc).Webhook)
	}

	// ===== Protected =====
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.WithAuth(d.Account))

		pr.Get("/v1/me", auth.Me)
		pr.Post("/v1/auth/signout", auth.SignOut)

		pr.Get("/v1/navigation", func(w http.ResponseWriter, r *http.Request) {
			u, _ := authctx.UserFrom(r.Context())
			status := handlers.BodyguardStatus(r.Context(), d.BodyguardSvc, u)
			WriteJSON(w, 200, navigation.Resolve(r.URL.Query().Get("path"), u, status))
		})

		// ===== Bodyguards =====
		pr.Get("/v1/bodyguards", func(w http.ResponseWriter, r *http.Request) {
			list, err := d.BodyguardSvc.ListApproved(r.Context())
			if err != nil {
				status, msg := handlers.MapBodyguardError(err)
				Fail(w, status, msg)
				return
			}
			out, noMatches := dashboard.Filter(list, r.URL.Query().Get("q"))
			WriteJSON(w, 200, map[string]any{"bodyguards": out, "noMatches": noMatches})
		})

		// ===== Bookings =====
		pr.Get("/v1/bookings/quote", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			duration := 0
			if v := strings.TrimSpace(q.Get("duration")); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					Fail(w, 400, "duration must be a whole number of hours")
					return
				}
				duration = n
			}
			out, err := d.BookingSvc.Quote(r.Context(), strings.TrimSpace(q.Get("bodyguardId")), duration)
			if err != nil {
				status, msg := mapBookingError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.With(middleware.RequireUserType(account.UserTypeClient)).Post("/v1/bookings", func(w http.ResponseWriter, r *http.Request) {
			u, _ := authctx.UserFrom(r.Context())

			// Loose decode: a client-sent total is ignored, not rejected.
			var in booking.CreateInput
			if err := httpjson.ReadLoose(r, &in); err != nil {
				Fail(w, 400, "invalid json")
				return
			}
			in.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))

			out, err := d.BookingSvc.Create(r.Context(), u, in)
			if err != nil {
				status, msg := mapBookingError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 201, out)
		})

		pr.Get("/v1/bookings", func(w http.ResponseWriter, r *http.Request) {
			u, _ := authctx.UserFrom(r.Context())
			var (
				list []booking.Booking
				err  error
			)
			if u.IsBodyguard() {
				list, err = d.BookingSvc.ListForBodyguard(r.Context(), u.ID)
			} else {
				list, err = d.BookingSvc.ListForClient(r.Context(), u.ID)
			}
			if err != nil {
				status, msg := mapBookingError(err)
				Fail(w, status, msg)
				return
			}
			upcoming, past := booking.Partition(list)
			WriteJSON(w, 200, map[string]any{"bookings": list, "upcoming": upcoming, "past": past})
		})

		pr.Post("/v1/bookings/{id}/cancel", transition(d.BookingSvc, booking.StatusCancelled))
		pr.Group(func(gr chi.Router) {
			gr.Use(middleware.RequireUserType(account.UserTypeBodyguard))
			gr.Post("/v1/bookings/{id}/confirm", transition(d.BookingSvc, booking.StatusConfirmed))
			gr.Post("/v1/bookings/{id}/complete", transition(d.BookingSvc, booking.StatusCompleted))
		})

		if d.PaymentSvc != nil {
			pr.Post("/v1/bookings/{id}/checkout", handlers.NewPayments(d.PaymentSvc).Checkout)
		}

		// ===== Profile =====
		pr.Get("/v1/profile", func(w http.ResponseWriter, r *http.Request) {
			u, _ := authctx.UserFrom(r.Context())
			out, err := d.ProfileSvc.Ensure(r.Context(), u)
			if err != nil {
				status, msg := mapProfileError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.Put("/v1/profile", func(w http.ResponseWriter, r *http.Request) {
			u, _ := authctx.UserFrom(r.Context())
			var in profile.UpdateInput
			if err := httpjson.Read(r, &in); err != nil {
				Fail(w, 400, "invalid json")
				return
			}
			out, err := d.ProfileSvc.Update(r.Context(), u, in)
			if err != nil {
				status, msg := mapProfileError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 200, out)
		})

		// ===== Dashboards =====
		pr.Get("/v1/dashboard/client", func(w http.ResponseWriter, r *http.Request) {
			u, _ := authctx.UserFrom(r.Context())
			WriteJSON(w, 200, d.DashboardSvc.Client(r.Context(), u, r.URL.Query().Get("q")))
		})

		pr.With(middleware.RequireUserType(account.UserTypeBodyguard)).Get("/v1/dashboard/bodyguard", func(w http.ResponseWriter, r *http.Request) {
			u, _ := authctx.UserFrom(r.Context())
			out, err := d.DashboardSvc.Bodyguard(r.Context(), u)
			if err != nil {
				status, msg := handlers.MapBodyguardError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 200, out)
		})

		// ===== Notifications =====
		if d.NotificationsSvc != nil {
			pr.Get("/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
				u, _ := authctx.UserFrom(r.Context())
				limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
				out, err := d.NotificationsSvc.List(r.Context(), u.ID, limit)
				if err != nil {
					status, msg := mapNotificationsError(err)
					Fail(w, status, msg)
					return
				}
				WriteJSON(w, 200, out)
			})

			pr.Post("/v1/notifications/{id}/read", func(w http.ResponseWriter, r *http.Request) {
				u, _ := authctx.UserFrom(r.Context())
				if err := d.NotificationsSvc.MarkRead(r.Context(), u.ID, chi.URLParam(r, "id")); err != nil {
					status, msg := mapNotificationsError(err)
					Fail(w, status, msg)
					return
				}
				WriteJSON(w, 200, map[string]any{"success": true})
			})
		}

		// ===== Admin =====
		pr.Route("/v1/admin", func(ar chi.Router) {
			ar.Use(middleware.RequireAdmin())
			ar.Get("/bodyguards", func(w http.ResponseWriter, r *http.Request) {
				raw := r.URL.Query().Get("status")
				if raw == "" {
					raw = string(bodyguard.StatusPending)
				}
				st, ok := bodyguard.ParseStatus(raw)
				if !ok {
					Fail(w, 400, "status must be pending or approved")
					return
				}
				list, err := d.BodyguardSvc.List(r.Context(), st)
				if err != nil {
					status, msg := handlers.MapBodyguardError(err)
					Fail(w, status, msg)
					return
				}
				WriteJSON(w, 200, map[string]any{"bodyguards": list})
			})
			ar.Post("/bodyguards/{id}/approve", guards.Approve)
			ar.Get("/bodyguards/{id}/id-proof", guards.IDProof)
		})
	})

	return r
}

func transition(svc *booking.Service, to booking.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := authctx.UserFrom(r.Context())
		out, err := svc.Transition(r.Context(), u, chi.URLParam(r, "id"), to)
		if err != nil {
			status, msg := mapBookingError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	}
}

func mapBookingError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case booking.IsErrUnauthorized(err):
		return 403, err.Error()
	case booking.IsErrNotFound(err):
		return 404, err.Error()
	case booking.IsErrConflict(err), booking.IsErrDuplicate(err):
		return 409, err.Error()
	case booking.IsErrBadRequest(err):
		return 400, err.Error()
	default:
		return 500, err.Error()
	}
}

func mapProfileError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case profile.IsErrUnauthorized(err):
		return 403, err.Error()
	case profile.IsErrNotFound(err):
		return 404, err.Error()
	case profile.IsErrBadRequest(err):
		return 400, err.Error()
	default:
		return 500, err.Error()
	}
}

func mapNotificationsError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case notifications.IsErrNotFound(err):
		return 404, err.Error()
	case notifications.IsErrBadRequest(err):
		return 400, err.Error()
	default:
		return 500, err.Error()
	}
}
