// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for manpro.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, token_secret, etc.
//   - Environment variables: MANPRO_MONGO_URI, MANPRO_TOKEN_SECRET, etc.
//   - Command-line flags: --mongo_uri, --token_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "manpro", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Bearer-token auth
	{Name: "token_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Access token signing key (must be strong in production)"},
	{Name: "token_expiry", Default: "24h", Desc: "Access token lifetime (e.g., 24h, 8h, 30m)"},

	// Email/SMTP configuration (blank host means log-only delivery)
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@manpro.local", Desc: "From email address"},

	// Base URL for invitation links
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Base URL for invitation links"},

	// System-admin bootstrap
	{Name: "system_admin_email", Default: "", Desc: "Email of the system admin user (promoted on startup)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have access
// to configuration before backends or handlers are built. Precedence is
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MANPRO", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		TokenSecret: appValues.String("token_secret"),
		TokenExpiry: appValues.Duration("token_expiry", 24*time.Hour),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),

		BaseURL: appValues.String("base_url"),

		SystemAdminEmail: appValues.String("system_admin_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked here so a typo fails fast instead of surfacing
// as a connect timeout.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if coreCfg.Env == "prod" && appCfg.TokenSecret == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("token_secret must be set in production")
	}
	if appCfg.TokenExpiry <= 0 {
		return fmt.Errorf("token_expiry must be positive")
	}
	return nil
}
