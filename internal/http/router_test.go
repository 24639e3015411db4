package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"

	"securemate/backend/internal/config"
	"securemate/backend/internal/content"
	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/account/accounttest"
	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/domain/bodyguard/bodyguardtest"
	"securemate/backend/internal/domain/booking"
	"securemate/backend/internal/domain/booking/bookingtest"
	"securemate/backend/internal/domain/dashboard"
	"securemate/backend/internal/domain/payment"
	"securemate/backend/internal/domain/profile"
	"securemate/backend/internal/domain/profile/profiletest"
	api "securemate/backend/internal/http"
	"securemate/backend/internal/metrics"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type env struct {
	h        http.Handler
	idp      *accounttest.Provider
	acct     *account.Context
	guards   *bodyguardtest.Repo
	files    *bodyguardtest.Files
	bookings *bookingtest.Repo
	guardID  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{idp: accounttest.NewProvider()}
	e.acct = account.NewContext(e.idp, account.NewMemoryStore(), time.Hour, nil)
	require.NoError(t, e.acct.Restore(context.Background()))

	g := e.idp.AddUser("vikram@example.com", "guard123", account.Metadata{FullName: "Vikram Singh", UserType: account.UserTypeBodyguard})
	e.guardID = g.ID
	e.idp.AddUser("asha@example.com", "hunter22", account.Metadata{FullName: "Asha Rao", UserType: account.UserTypeClient})
	e.idp.IssueIDToken("admin-token", account.User{ID: "uid-admin", Admin: true})

	e.guards = bodyguardtest.NewRepo(
		bodyguard.Bodyguard{ID: g.ID, FullName: "Vikram Singh", Location: "Mumbai", HourlyRate: 500, Status: bodyguard.StatusApproved},
		bodyguard.Bodyguard{ID: "g-pending", FullName: "Ravi Kumar", Location: "Pune", HourlyRate: 400, Status: bodyguard.StatusPending, IDProofObject: "id-proofs/1.pdf"},
	)
	e.files = bodyguardtest.NewFiles()
	e.bookings = bookingtest.NewRepo()
	m := metrics.New()

	bgSvc := bodyguard.NewService(e.guards, e.files, e.acct, nil, m)
	bkSvc := booking.NewService(e.bookings, bgSvc, nil,
		booking.WithClock(func() time.Time { return time.Date(2026, 3, 10, 10, 0, 0, 0, ist) }),
		booking.WithLocation(ist),
		booking.WithMetrics(m),
	)
	profSvc := profile.NewService(profiletest.NewRepo(), nil, nil)
	paySvc := payment.NewService(payment.Config{SecretKey: "sk_test", WebhookSecret: "whsec_test", PublicAppURL: "http://localhost:5173"}, bkSvc, bgSvc, nil).
		WithSessionCreator(func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
			return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.test/cs_1"}, nil
		})
	doc, err := content.Load(booking.FormatAmount)
	require.NoError(t, err)

	e.h = api.NewRouter(api.RouterDeps{
		Cfg:          config.Config{AllowedOrigins: []string{"http://localhost:5173"}},
		Metrics:      m,
		Account:      e.acct,
		BodyguardSvc: bgSvc,
		BookingSvc:   bkSvc,
		ProfileSvc:   profSvc,
		DashboardSvc: dashboard.NewService(bgSvc, bkSvc, profSvc, nil, m),
		PaymentSvc:   paySvc,
		Content:      doc,
	})
	return e
}

func (e *env) do(t *testing.T, method, path, token string, body interface{}, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (e *env) signIn(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/auth/signin", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["token"].(string)
}

func TestHealthAndContent(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/readyz", "", nil).Code)

	rec := e.do(t, http.MethodGet, "/v1/content", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"icon":"shield-check"`)

	rec = e.do(t, http.MethodGet, "/v1/booking-options", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-03-10", decode(t, rec)["today"])

	rec = e.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Contains(t, rec.Body.String(), "securemate_http_request_duration_seconds")
}

func TestReadyzWhileLoading(t *testing.T) {
	acct := account.NewContext(accounttest.NewProvider(), account.NewMemoryStore(), time.Hour, nil)
	h := api.NewRouter(api.RouterDeps{Account: acct})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]string{"email": "neha@example.com", "password": "secret99", "fullName": "Neha"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "/old-dashboard", out["redirect"])
	token := out["token"].(string)

	rec = e.do(t, http.MethodGet, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, "neha@example.com", me["user"].(map[string]interface{})["email"])

	rec = e.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]string{"email": "neha@example.com", "password": "secret99", "fullName": "Neha"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "EMAIL_EXISTS")

	rec = e.do(t, http.MethodPost, "/v1/auth/signin", "", map[string]string{"email": "asha@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "INVALID_PASSWORD")

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/v1/auth/signout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/v1/me", token, nil).Code)
}

func TestSignOutWithIDTokenRevokes(t *testing.T) {
	e := newEnv(t)
	e.idp.IssueIDToken("browser-jwt", account.User{ID: "uid-browser", Email: "b@example.com"})

	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/v1/me", "browser-jwt", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/v1/auth/signout", "browser-jwt", nil).Code)
	assert.Contains(t, e.idp.Revoked, "uid-browser")
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/v1/me", "browser-jwt", nil).Code)
}

func TestRegisterBodyguardMultipart(t *testing.T) {
	e := newEnv(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"fullName": "Kabir Das", "phone": "+91 98200 00000", "email": "kabir@example.com",
		"password": "guard999", "experience": "5", "hourlyRate": "650", "location": "Delhi",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("profilePhoto", "me.JPG")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("jpeg bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/bodyguards/register", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, "/bodyguard-pending", out["redirect"])
	g := out["bodyguard"].(map[string]interface{})
	assert.Equal(t, "pending", g["status"])
	assert.Contains(t, g["image_url"], "profiles/")
	assert.NotContains(t, rec.Body.String(), "guard999")

	token := out["token"].(string)
	rec = e.do(t, http.MethodGet, "/v1/navigation?path=/bodyguard-dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nav := decode(t, rec)
	assert.Equal(t, false, nav["allowed"])
	assert.Equal(t, "/bodyguard-pending", nav["redirect"])
}

func TestBookingFlow(t *testing.T) {
	e := newEnv(t)
	client := e.signIn(t, "asha@example.com", "hunter22")
	guard := e.signIn(t, "vikram@example.com", "guard123")

	rec := e.do(t, http.MethodGet, "/v1/bookings/quote?bodyguardId="+e.guardID+"&duration=3", client, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1500.0, decode(t, rec)["totalAmount"])

	in := map[string]interface{}{
		"bodyguardId": e.guardID, "date": "2026-03-12", "time": "09:00",
		"durationHours": 3, "specialRequirements": "  Two entrances ", "totalAmount": 1,
	}
	rec = e.do(t, http.MethodPost, "/v1/bookings", client, in, "Idempotency-Key", "form-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, 1500.0, created["total_amount"])
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "Two entrances", created["special_requirements"])
	id := created["id"].(string)

	rec = e.do(t, http.MethodPost, "/v1/bookings", client, in, "Idempotency-Key", "form-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, e.bookings.Inserts)

	rec = e.do(t, http.MethodPost, "/v1/bookings", guard, in)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodGet, "/v1/bookings", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)
	require.Len(t, list["bookings"], 1)
	assert.Len(t, list["upcoming"], 1)
	assert.Equal(t, "Vikram Singh", list["bookings"].([]interface{})[0].(map[string]interface{})["bodyguard"].(map[string]interface{})["full_name"])

	rec = e.do(t, http.MethodPost, "/v1/bookings/"+id+"/confirm", client, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/v1/bookings/"+id+"/checkout", client, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://checkout.stripe.test/cs_1", decode(t, rec)["url"])

	rec = e.do(t, http.MethodPost, "/v1/bookings/"+id+"/confirm", guard, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "confirmed", decode(t, rec)["status"])

	rec = e.do(t, http.MethodPost, "/v1/bookings/"+id+"/checkout", client, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/v1/bookings/"+id+"/cancel", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decode(t, rec)["status"])

	rec = e.do(t, http.MethodPost, "/v1/bookings/"+id+"/complete", guard, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingConflictAndValidation(t *testing.T) {
	e := newEnv(t)
	client := e.signIn(t, "asha@example.com", "hunter22")

	first := map[string]interface{}{"bodyguardId": e.guardID, "date": "2026-03-12", "time": "09:00", "durationHours": 3}
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/v1/bookings", client, first).Code)

	overlap := map[string]interface{}{"bodyguardId": e.guardID, "date": "2026-03-12", "time": "10:00", "durationHours": 1}
	assert.Equal(t, http.StatusConflict, e.do(t, http.MethodPost, "/v1/bookings", client, overlap).Code)

	past := map[string]interface{}{"bodyguardId": e.guardID, "date": "2026-03-01", "time": "09:00", "durationHours": 1}
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/v1/bookings", client, past).Code)

	pending := map[string]interface{}{"bodyguardId": "g-pending", "date": "2026-03-12", "time": "09:00", "durationHours": 1}
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/v1/bookings", client, pending).Code)

	missing := map[string]interface{}{"bodyguardId": "nobody", "date": "2026-03-12", "time": "09:00", "durationHours": 1}
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/v1/bookings", client, missing).Code)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/v1/bookings/quote?bodyguardId="+e.guardID+"&duration=abc", client, nil).Code)
}

func TestProfileAndDashboards(t *testing.T) {
	e := newEnv(t)
	client := e.signIn(t, "asha@example.com", "hunter22")
	guard := e.signIn(t, "vikram@example.com", "guard123")

	rec := e.do(t, http.MethodGet, "/v1/profile", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Asha Rao", decode(t, rec)["full_name"])

	rec = e.do(t, http.MethodPut, "/v1/profile", client, map[string]string{"phone": "+91 90000 11111"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode(t, rec)
	assert.Equal(t, "Asha Rao", p["full_name"])
	assert.Equal(t, "+91 90000 11111", p["phone"])

	rec = e.do(t, http.MethodGet, "/v1/dashboard/client?q=mumbai", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode(t, rec)
	assert.Len(t, dash["bodyguards"], 1)
	assert.Equal(t, false, dash["noMatches"])

	rec = e.do(t, http.MethodGet, "/v1/bodyguards?q=chennai", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["noMatches"])

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/v1/dashboard/bodyguard", client, nil).Code)
	rec = e.do(t, http.MethodGet, "/v1/dashboard/bodyguard", guard, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, decode(t, rec)["pending"])
}

func TestAdminRoutes(t *testing.T) {
	e := newEnv(t)
	client := e.signIn(t, "asha@example.com", "hunter22")

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPost, "/v1/admin/bodyguards/g-pending/approve", client, nil).Code)

	rec := e.do(t, http.MethodGet, "/v1/admin/bodyguards", "admin-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["bodyguards"], 1)

	rec = e.do(t, http.MethodGet, "/v1/admin/bodyguards/g-pending/id-proof", "admin-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(decode(t, rec)["url"].(string), "https://files.test/id-proofs/1.pdf"))

	rec = e.do(t, http.MethodPost, "/v1/admin/bodyguards/g-pending/approve", "admin-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "approved", decode(t, rec)["status"])

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/v1/admin/bodyguards/nobody/approve", "admin-token", nil).Code)
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/v1/stripe/webhook", "", map[string]string{"type": "checkout.session.completed"}, "Stripe-Signature", "t=1,v1=bad")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
