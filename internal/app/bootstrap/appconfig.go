// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers framework-level settings (ports, TLS,
// logging, CORS). AppConfig is everything specific to CareTrack:
// database, sessions, mail, OAuth, and the background engine knobs.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // secret key for signing session cookies
	SessionName   string // cookie name (default: caretrack-session)
	SessionDomain string // cookie domain (blank means current host)

	// Email/SMTP configuration
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Base URL for links placed in outgoing email
	BaseURL  string
	SiteName string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Login rate limiting: attempts per client IP and per target email
	LoginIPLimit     int
	LoginIPWindow    time.Duration
	LoginEmailLimit  int
	LoginEmailWindow time.Duration

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAuth     string
	AuditLogActivity string

	// Background engine intervals
	EscalationInterval time.Duration // overdue-task sweep cadence
	DeliveryInterval   time.Duration // pending-notification drain cadence

	// Retention windows for maintenance jobs
	NotificationRetention time.Duration
	AuditRetention        time.Duration

	// Bootstrap admin: promoted or created on startup when set
	AdminEmail string
}
