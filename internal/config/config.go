// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server settings,
// logging, database path, rate limiting, observability, the external image
// service, and the reward constants of the quota ledger, so the initial
// grant, referral reward, and purchase credits have exactly one
// authoritative source.
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
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// RewardsConfig holds the quota-ledger constants. The server is the single
// source of truth for these; any client-side defaults are advisory caches.
type RewardsConfig struct {
	InitialFreeGenerations int            // grant on first device touch
	ReferralReward         int            // credited to each side of a claim
	ProductCredits         map[string]int // product id → credit per transaction
}

// GeminiConfig configures the external image-transform service.
type GeminiConfig struct {
	APIKey     string        // GEMINI_API_KEY
	ImageModel string        // GEMINI_IMAGE_MODEL
	TextModel  string        // GEMINI_TEXT_MODEL
	Timeout    time.Duration // GENERATE_TIMEOUT (mobile client allows ~2m)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodyBytes      int64 // generate payloads carry base64 images
	GinMode           string

	// Logging
	LogLevel  string
	LogPretty bool

	// App
	DBPath          string
	ReferralBaseURL string // prefix for share URLs
	AffiliateTag    string // Amazon affiliate tag, optional

	Rewards RewardsConfig
	Gemini  GeminiConfig

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

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
		ReadTimeout:       getdur("READ_TIMEOUT", 30*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 150*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 10<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App
		DBPath:          getenv("DB_PATH", "app.db"),
		ReferralBaseURL: getenv("REFERRAL_BASE_URL", "https://holidayhomeai.up.railway.app/r/"),
		AffiliateTag:    getenv("AMAZON_AFFILIATE_TAG", ""),

		Rewards: RewardsConfig{
			InitialFreeGenerations: getint("INITIAL_FREE_GENERATIONS", 3),
			ReferralReward:         getint("REFERRAL_REWARD", 3),
			ProductCredits: map[string]int{
				"holiday_basic_pack": getint("HOLIDAY_PACK_BONUS", 10),
			},
		},

		Gemini: GeminiConfig{
			APIKey:     getenv("GEMINI_API_KEY", ""),
			ImageModel: getenv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
			TextModel:  getenv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
			Timeout:    getdur("GENERATE_TIMEOUT", 2*time.Minute),
		},

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

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "holidayhome-backend"),
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
	if !strings.HasSuffix(cfg.ReferralBaseURL, "/") {
		cfg.ReferralBaseURL += "/"
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
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Rewards.InitialFreeGenerations < 0 {
		return cfg, errors.New("INITIAL_FREE_GENERATIONS must be >= 0")
	}
	if cfg.Rewards.ReferralReward <= 0 {
		return cfg, errors.New("REFERRAL_REWARD must be > 0")
	}
	for product, credit := range cfg.Rewards.ProductCredits {
		if credit <= 0 {
			return cfg, errors.New("credit per transaction must be > 0 for product " + product)
		}
	}
	if cfg.Gemini.Timeout <= 0 {
		return cfg, errors.New("GENERATE_TIMEOUT must be > 0")
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
