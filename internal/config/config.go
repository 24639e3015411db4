package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectID                    string
	APIKey                       string
	Port                         string
	AllowedOrigins               []string
	StorageBucket                string
	SignedURLServiceAccountEmail string
	StripeSecretKey              string
	StripeWebhookSecret          string
	StripeCurrency               string
	PublicAppURL                 string
	RedisAddr                    string
	RedisPassword                string
	RedisDB                      int
	SessionTTL                   time.Duration
	LogLevel                     string
	LogFormat                    string
	Timezone                     *time.Location

	// Warnings collects values that were present but unusable and fell back
	// to defaults. The logger does not exist yet when Load runs.
	Warnings []string
}

const (
	DefaultPort         = "8080"
	DefaultBucket       = "bodyguard-files"
	DefaultOrigin       = "http://localhost:5173"
	DefaultCurrency     = "inr"
	DefaultSessionTTL   = 7 * 24 * time.Hour
	DefaultTimezoneName = "Asia/Kolkata"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
)

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary lookup function so tests can
// feed a map instead of mutating the process environment.
func FromLookup(lookup func(string) (string, bool)) Config {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	var warnings []string

	projectID := get("FIREBASE_PROJECT_ID", "")
	if projectID == "" {
		projectID = get("GOOGLE_CLOUD_PROJECT", "")
	}

	allowed := []string{}
	for _, o := range strings.Split(get("ALLOWED_ORIGINS", DefaultOrigin), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			allowed = append(allowed, o)
		}
	}

	redisDB := 0
	if raw := get("REDIS_DB", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			warnings = append(warnings, "REDIS_DB is not a non-negative integer, using 0")
		} else {
			redisDB = n
		}
	}

	ttl := DefaultSessionTTL
	if raw := get("SESSION_TTL", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			warnings = append(warnings, "SESSION_TTL is not a positive duration, using "+DefaultSessionTTL.String())
		} else {
			ttl = d
		}
	}

	tzName := get("TIMEZONE", DefaultTimezoneName)
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		warnings = append(warnings, "TIMEZONE "+tzName+" is unknown, using UTC")
		tz = time.UTC
	}

	return Config{
		ProjectID:                    projectID,
		APIKey:                       get("FIREBASE_API_KEY", ""),
		Port:                         get("PORT", DefaultPort),
		AllowedOrigins:               allowed,
		StorageBucket:                get("FIREBASE_STORAGE_BUCKET", DefaultBucket),
		SignedURLServiceAccountEmail: get("SIGNED_URL_SERVICE_ACCOUNT_EMAIL", ""),
		StripeSecretKey:              get("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:          get("STRIPE_WEBHOOK_SECRET", ""),
		StripeCurrency:               strings.ToLower(get("STRIPE_CURRENCY", DefaultCurrency)),
		PublicAppURL:                 strings.TrimRight(get("PUBLIC_APP_URL", DefaultOrigin), "/"),
		RedisAddr:                    get("REDIS_ADDR", ""),
		RedisPassword:                get("REDIS_PASSWORD", ""),
		RedisDB:                      redisDB,
		SessionTTL:                   ttl,
		LogLevel:                     strings.ToLower(get("LOG_LEVEL", DefaultLogLevel)),
		LogFormat:                    strings.ToLower(get("LOG_FORMAT", DefaultLogFormat)),
		Timezone:                     tz,
		Warnings:                     warnings,
	}
}

func (c Config) PaymentsEnabled() bool { return c.StripeSecretKey != "" }
