package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/spewpay/walletdash/internal/dashboard"
)

const (
	flagListenAddr         = "listen-addr"
	flagAPIBaseURL         = "api-base-url"
	flagDatabaseURL        = "database-url"
	flagAllowedOrigins     = "allowed-origins"
	flagSessionSigningKey  = "session-signing-key"
	flagSessionIssuer      = "session-issuer"
	flagSessionCookieName  = "session-cookie-name"
	flagSecureCookies      = "secure-cookies"
	flagSessionTTL         = "session-ttl"
	flagUpstreamTimeout    = "upstream-timeout"
	flagDepositCallbackURL = "deposit-callback-url"

	configKeyListenAddr         = "listen_addr"
	configKeyAPIBaseURL         = "api_base_url"
	configKeyDatabaseURL        = "database_url"
	configKeyAllowedOrigins     = "allowed_origins"
	configKeySessionSigningKey  = "session_signing_key"
	configKeySessionIssuer      = "session_issuer"
	configKeySessionCookieName  = "session_cookie_name"
	configKeySecureCookies      = "secure_cookies"
	configKeySessionTTL         = "session_ttl"
	configKeyUpstreamTimeout    = "upstream_timeout"
	configKeyDepositCallbackURL = "deposit_callback_url"

	defaultDatabaseURL = "sqlite:///tmp/walletdash.db"
)

type runtimeConfig struct {
	DatabaseURL string
	Dashboard   dashboard.Config
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "walletdashd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "walletdashd",
		Short:         "Wallet dashboard gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().String(flagListenAddr, "", "HTTP listen address")
	cmd.Flags().String(flagAPIBaseURL, "", "wallet backend REST root")
	cmd.Flags().String(flagDatabaseURL, defaultDatabaseURL, "session store connection string")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated CORS origins")
	cmd.Flags().String(flagSessionSigningKey, "", "HMAC key for session cookies")
	cmd.Flags().String(flagSessionIssuer, "", "session cookie issuer")
	cmd.Flags().String(flagSessionCookieName, "", "session cookie name")
	cmd.Flags().Bool(flagSecureCookies, false, "mark session cookies HTTPS-only")
	cmd.Flags().Duration(flagSessionTTL, 0, "session lifetime")
	cmd.Flags().Duration(flagUpstreamTimeout, 0, "per-request backend timeout")
	cmd.Flags().String(flagDepositCallbackURL, "", "redirect URL after gateway checkout")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	bindings := map[string]string{
		configKeyListenAddr:         "LISTEN_ADDR",
		configKeyAPIBaseURL:         "API_BASE_URL",
		configKeyDatabaseURL:        "DATABASE_URL",
		configKeyAllowedOrigins:     "ALLOWED_ORIGINS",
		configKeySessionSigningKey:  "SESSION_SIGNING_KEY",
		configKeySessionIssuer:      "SESSION_ISSUER",
		configKeySessionCookieName:  "SESSION_COOKIE_NAME",
		configKeySecureCookies:      "SECURE_COOKIES",
		configKeySessionTTL:         "SESSION_TTL",
		configKeyUpstreamTimeout:    "UPSTREAM_TIMEOUT",
		configKeyDepositCallbackURL: "DEPOSIT_CALLBACK_URL",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return err
		}
	}

	flags := map[string]string{
		configKeyListenAddr:         flagListenAddr,
		configKeyAPIBaseURL:         flagAPIBaseURL,
		configKeyDatabaseURL:        flagDatabaseURL,
		configKeyAllowedOrigins:     flagAllowedOrigins,
		configKeySessionSigningKey:  flagSessionSigningKey,
		configKeySessionIssuer:      flagSessionIssuer,
		configKeySessionCookieName:  flagSessionCookieName,
		configKeySecureCookies:      flagSecureCookies,
		configKeySessionTTL:         flagSessionTTL,
		configKeyUpstreamTimeout:    flagUpstreamTimeout,
		configKeyDepositCallbackURL: flagDepositCallbackURL,
	}
	for key, flag := range flags {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}

	cfg.DatabaseURL = viper.GetString(configKeyDatabaseURL)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	cfg.Dashboard = dashboard.Config{
		ListenAddr:         viper.GetString(configKeyListenAddr),
		APIBaseURL:         viper.GetString(configKeyAPIBaseURL),
		AllowedOrigins:     dashboard.ParseAllowedOrigins(viper.GetString(configKeyAllowedOrigins)),
		SessionSigningKey:  viper.GetString(configKeySessionSigningKey),
		SessionIssuer:      viper.GetString(configKeySessionIssuer),
		SessionCookieName:  viper.GetString(configKeySessionCookieName),
		SecureCookies:      viper.GetBool(configKeySecureCookies),
		SessionTTL:         viper.GetDuration(configKeySessionTTL),
		UpstreamTimeout:    viper.GetDuration(configKeyUpstreamTimeout),
		DepositCallbackURL: viper.GetString(configKeyDepositCallbackURL),
	}
	return cfg.Dashboard.Validate()
}

func runServer(ctx context.Context, cfg *runtimeConfig) error {
	gormDB, cleanup, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer func() { _ = cleanup() }()

	return dashboard.Run(ctx, cfg.Dashboard, gormDB)
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, err
	}

	var db *gorm.DB
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{})
	default:
		return nil, nil, fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Path
		if path == "" {
			path = u.Host
		}
		if path == "" || path == "/" {
			path = "walletdash.db"
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return "sqlite", sqlitePath, err
	}
	// Treat everything else as a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return "sqlite", sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}
