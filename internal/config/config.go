package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultAddr          = ":8080"
	DefaultRootDomain    = "complyhq.org"
	DefaultLocalMarker   = ".localhost"
	DefaultPreviewMarker = "---"
	DefaultSessionTTL    = 7 * 24 * time.Hour
)

var errMissingSecret = errors.New("config: COMPLY_SESSION_SECRET is not set")

// Config holds the immutable runtime configuration shared by every request.
type Config struct {
	Addr string

	// RootDomain is the apex domain the service is published under. Hostnames
	// that are strict subdomains of it carry the tenant key.
	RootDomain string
	// Protocol is http or https; controls the Secure cookie attribute.
	Protocol string
	// LocalMarker marks local development hostnames (label before it is the
	// tenant key), e.g. "acme.localhost:3000".
	LocalMarker string
	// PreviewMarker splits preview-deployment hostnames, e.g.
	// "acme---feature-x.preview.app".
	PreviewMarker string

	SessionSecret string
	SessionTTL    time.Duration

	PostgresDSN string

	RateBurst  int
	RatePerSec int
}

// FromEnv reads configuration from COMPLY_* environment variables.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:          envOr("COMPLY_ADDR", DefaultAddr),
		RootDomain:    strings.ToLower(envOr("COMPLY_ROOT_DOMAIN", DefaultRootDomain)),
		Protocol:      envOr("COMPLY_PROTOCOL", "https"),
		LocalMarker:   envOr("COMPLY_LOCAL_MARKER", DefaultLocalMarker),
		PreviewMarker: envOr("COMPLY_PREVIEW_MARKER", DefaultPreviewMarker),
		SessionSecret: strings.TrimSpace(os.Getenv("COMPLY_SESSION_SECRET")),
		SessionTTL:    DefaultSessionTTL,
		PostgresDSN:   strings.TrimSpace(os.Getenv("COMPLY_PG_DSN")),
		RateBurst:     envInt("COMPLY_RATE_BURST", 20),
		RatePerSec:    envInt("COMPLY_RATE_PER_SEC", 10),
	}
	if cfg.SessionSecret == "" {
		return Config{}, errMissingSecret
	}
	if raw := strings.TrimSpace(os.Getenv("COMPLY_SESSION_TTL")); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return Config{}, errors.New("config: invalid COMPLY_SESSION_TTL")
		}
		cfg.SessionTTL = ttl
	}
	if cfg.Protocol != "http" && cfg.Protocol != "https" {
		return Config{}, errors.New("config: COMPLY_PROTOCOL must be http or https")
	}
	return cfg, nil
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func (c Config) SecureCookies() bool {
	return c.Protocol == "https"
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
