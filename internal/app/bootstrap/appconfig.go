// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration: CoreConfig handles ports,
// TLS, logging level, CORS, and so on.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer-token auth
	TokenSecret string        // HMAC signing key for access tokens (must be strong in production)
	TokenExpiry time.Duration // Access token lifetime

	// Email/SMTP configuration. Blank host means log-only delivery, which
	// is what dev environments and the test suite want.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string

	// Base URL embedded in invitation links
	BaseURL string // e.g., "https://manpro.example.com" or "http://localhost:8080"

	// System-admin bootstrap: this email is promoted on startup.
	SystemAdminEmail string
}
