package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Profile string

	HTTPAddr    string
	CORSOrigins []string
	BodyLimit   int64

	APIRateLimitRPM  int
	AuthRateLimitRPM int

	DatabaseDriver string
	DatabaseDSN    string

	RedisAddr    string
	RedisEnabled bool

	JWTIssuer       string
	JWTAudience     string
	JWTAccessSecret string
	JWTAccessTTL    time.Duration

	SessionTTL    time.Duration
	SessionPepper string

	StripeAPIKey   string
	StripeCurrency string
	IdempotencyTTL time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsEnabled        bool
	OTELTracesEnabled         bool
	OTELLogsEnabled           bool
	OTELMetricsExportInterval time.Duration

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
}

// Load reads configuration from the environment (PROPFOLIO_ prefix) with
// sane development defaults, validates it, and records the outcome.
func Load(ctx context.Context) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PROPFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		Profile: v.GetString("profile"),

		HTTPAddr:    v.GetString("http.addr"),
		CORSOrigins: splitCSV(v.GetString("http.cors_origins")),
		BodyLimit:   v.GetInt64("http.body_limit"),

		APIRateLimitRPM:  v.GetInt("http.api_rate_limit_rpm"),
		AuthRateLimitRPM: v.GetInt("http.auth_rate_limit_rpm"),

		DatabaseDriver: v.GetString("database.driver"),
		DatabaseDSN:    v.GetString("database.dsn"),

		RedisAddr:    v.GetString("redis.addr"),
		RedisEnabled: v.GetBool("redis.enabled"),

		JWTIssuer:       v.GetString("jwt.issuer"),
		JWTAudience:     v.GetString("jwt.audience"),
		JWTAccessSecret: v.GetString("jwt.access_secret"),
		JWTAccessTTL:    v.GetDuration("jwt.access_ttl"),

		SessionTTL:    v.GetDuration("session.ttl"),
		SessionPepper: v.GetString("session.pepper"),

		StripeAPIKey:   v.GetString("stripe.api_key"),
		StripeCurrency: v.GetString("stripe.currency"),
		IdempotencyTTL: v.GetDuration("stripe.idempotency_ttl"),

		OTELServiceName:           v.GetString("otel.service_name"),
		OTELEnvironment:           v.GetString("otel.environment"),
		OTELExporterOTLPEndpoint:  v.GetString("otel.exporter_otlp_endpoint"),
		OTELExporterOTLPInsecure:  v.GetBool("otel.exporter_otlp_insecure"),
		OTELMetricsEnabled:        v.GetBool("otel.metrics_enabled"),
		OTELTracesEnabled:         v.GetBool("otel.traces_enabled"),
		OTELLogsEnabled:           v.GetBool("otel.logs_enabled"),
		OTELMetricsExportInterval: v.GetDuration("otel.metrics_export_interval"),

		ShutdownTimeout:              v.GetDuration("shutdown.timeout"),
		ShutdownHTTPDrainTimeout:     v.GetDuration("shutdown.http_drain_timeout"),
		ShutdownObservabilityTimeout: v.GetDuration("shutdown.observability_timeout"),
	}

	if err := cfg.validate(); err != nil {
		recordConfigValidationEvent(ctx, cfg.Profile, "error", classifyConfigLoadError(err))
		return nil, err
	}
	recordConfigValidationEvent(ctx, cfg.Profile, "success", "none")
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("profile", "dev")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.cors_origins", "http://localhost:3000")
	v.SetDefault("http.body_limit", 1<<20)
	v.SetDefault("http.api_rate_limit_rpm", 600)
	v.SetDefault("http.auth_rate_limit_rpm", 60)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:propfolio.db?cache=shared")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("jwt.issuer", "propfolio")
	v.SetDefault("jwt.audience", "propfolio-api")
	v.SetDefault("jwt.access_secret", "")
	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.pepper", "")
	v.SetDefault("stripe.api_key", "")
	v.SetDefault("stripe.currency", "usd")
	v.SetDefault("stripe.idempotency_ttl", 24*time.Hour)
	v.SetDefault("otel.service_name", "propfolio")
	v.SetDefault("otel.environment", "dev")
	v.SetDefault("otel.exporter_otlp_endpoint", "localhost:4317")
	v.SetDefault("otel.exporter_otlp_insecure", true)
	v.SetDefault("otel.metrics_enabled", false)
	v.SetDefault("otel.traces_enabled", false)
	v.SetDefault("otel.logs_enabled", false)
	v.SetDefault("otel.metrics_export_interval", 30*time.Second)
	v.SetDefault("shutdown.timeout", 15*time.Second)
	v.SetDefault("shutdown.http_drain_timeout", 5*time.Second)
	v.SetDefault("shutdown.observability_timeout", 5*time.Second)
}

func (c *Config) validate() error {
	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("validate config: unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("validate config: database DSN is required")
	}
	if c.Profile == "prod" {
		if c.JWTAccessSecret == "" {
			return fmt.Errorf("validate config: JWT access secret is required in prod")
		}
		if c.SessionPepper == "" {
			return fmt.Errorf("validate config: session pepper is required in prod")
		}
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("validate config: session TTL must be positive")
	}
	if c.JWTAccessTTL <= 0 {
		return fmt.Errorf("validate config: JWT access TTL must be positive")
	}
	return nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
