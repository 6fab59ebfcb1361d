// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, rate limiting,
// observability, and the gamification tuning knobs (verification thresholds
// and per-event point amounts).
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "kolokwa-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Gamification holds the community-review thresholds and the per-event point
// amounts consumed by the entry lifecycle engine. All point amounts are
// positive; the sign applied to a grant is decided by the operation, not the
// configuration.
type Gamification struct {
	// VerifyThreshold is the number of "accurate" verifications that
	// auto-promotes a pending entry to verified.
	VerifyThreshold int
	// RejectThreshold is the number of "incorrect" verifications that
	// auto-rejects a pending entry.
	RejectThreshold int

	ContributionPoints         int // new entry submitted
	VotePoints                 int // voter participation reward
	VerifyPoints               int // verifier reward on the verify transition
	ContributionVerifiedPoints int // contributor reward on the verify transition
	AccuratePoints             int // verifier reward for "accurate" below threshold
	VerificationReceivedPoints int // contributor reward for "accurate" below threshold
	ReviewPoints               int // verifier reward for needs_revision/incorrect

	// StreakBonusEvery pays a bonus every Nth consecutive contribution day.
	StreakBonusEvery int
	// EarlyAdopterCutoff bounds the "early adopter" special badge: users who
	// joined at or before this instant qualify.
	EarlyAdopterCutoff time.Time
}

// EmbeddingConfig describes the optional embedding collaborator. The core
// calls it best-effort after verify transitions; it is never awaited inside
// a core transaction.
type EmbeddingConfig struct {
	Enabled  bool          // EMBEDDING_ENABLED
	Endpoint string        // EMBEDDING_ENDPOINT (OpenAI-compatible embeddings URL)
	APIKey   string        // EMBEDDING_API_KEY
	Model    string        // EMBEDDING_MODEL
	Timeout  time.Duration // EMBEDDING_TIMEOUT
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// App
	DBPath string // SQLite path

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Domain tuning
	Gamify Gamification

	// Collaborators
	Embedding EmbeddingConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "kolokwa.db"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Domain tuning
		Gamify: Gamification{
			VerifyThreshold:            getint("VERIFY_THRESHOLD", 3),
			RejectThreshold:            getint("REJECT_THRESHOLD", 2),
			ContributionPoints:         getint("POINTS_CONTRIBUTION", 2),
			VotePoints:                 getint("POINTS_VOTE", 1),
			VerifyPoints:               getint("POINTS_VERIFY", 5),
			ContributionVerifiedPoints: getint("POINTS_CONTRIBUTION_VERIFIED", 10),
			AccuratePoints:             getint("POINTS_ACCURATE", 3),
			VerificationReceivedPoints: getint("POINTS_VERIFICATION_RECEIVED", 2),
			ReviewPoints:               getint("POINTS_REVIEW", 2),
			StreakBonusEvery:           getint("STREAK_BONUS_EVERY", 7),
			EarlyAdopterCutoff:         gettime("EARLY_ADOPTER_CUTOFF", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		},

		// Collaborators
		Embedding: EmbeddingConfig{
			Enabled:  getbool("EMBEDDING_ENABLED", false),
			Endpoint: getenv("EMBEDDING_ENDPOINT", "https://api.openai.com/v1/embeddings"),
			APIKey:   getenv("EMBEDDING_API_KEY", ""),
			Model:    getenv("EMBEDDING_MODEL", "text-embedding-3-small"),
			Timeout:  getdur("EMBEDDING_TIMEOUT", 10*time.Second),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "kolokwa-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.Gamify.VerifyThreshold < 1 {
		return cfg, errors.New("VERIFY_THRESHOLD must be >= 1")
	}
	if cfg.Gamify.RejectThreshold < 1 {
		return cfg, errors.New("REJECT_THRESHOLD must be >= 1")
	}
	for _, p := range []int{
		cfg.Gamify.ContributionPoints,
		cfg.Gamify.VotePoints,
		cfg.Gamify.VerifyPoints,
		cfg.Gamify.ContributionVerifiedPoints,
		cfg.Gamify.AccuratePoints,
		cfg.Gamify.VerificationReceivedPoints,
		cfg.Gamify.ReviewPoints,
	} {
		if p <= 0 {
			return cfg, errors.New("point amounts must be positive integers")
		}
	}
	if cfg.Gamify.StreakBonusEvery < 1 {
		return cfg, errors.New("STREAK_BONUS_EVERY must be >= 1")
	}
	if cfg.Embedding.Timeout <= 0 {
		return cfg, errors.New("EMBEDDING_TIMEOUT must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func gettime(k string, def time.Time) time.Time {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
