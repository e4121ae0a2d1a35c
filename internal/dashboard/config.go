package dashboard

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultListenAddr        = ":9090"
	defaultAllowedOrigin     = "http://localhost:3000"
	defaultSessionIssuer     = "walletdash"
	defaultSessionCookie     = "wd_session"
	defaultSessionTTL        = 24 * time.Hour
	defaultUpstreamTimeout   = 10 * time.Second
	defaultRecentLimit       = 5
	defaultHistoryFetchLimit = 50
	defaultHistoryPageSize   = 10
)

// Config aggregates runtime settings for the dashboard gateway.
type Config struct {
	ListenAddr         string
	APIBaseURL         string
	AllowedOrigins     []string
	SessionSigningKey  string
	SessionIssuer      string
	SessionCookieName  string
	SecureCookies      bool
	SessionTTL         time.Duration
	UpstreamTimeout    time.Duration
	DepositCallbackURL string
}

// Validate ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	cfg.SessionIssuer = defaultIfEmpty(cfg.SessionIssuer, defaultSessionIssuer)
	cfg.SessionCookieName = defaultIfEmpty(cfg.SessionCookieName, defaultSessionCookie)
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = defaultUpstreamTimeout
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return fmt.Errorf("api base url is required")
	}
	if len(cfg.SessionSigningKey) == 0 {
		return fmt.Errorf("session signing key is required")
	}
	return nil
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
