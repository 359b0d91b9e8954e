package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	// Datenbank: "postgres" (Produktion) oder "sqlite" (lokal, Tests)
	DBDriver          string        `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL       string        `envconfig:"DATABASE_URL"`
	DBHost            string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort            int           `envconfig:"DB_PORT" default:"5432"`
	DBUser            string        `envconfig:"DB_USER" default:"postgres"`
	DBPassword        string        `envconfig:"DB_PASSWORD"`
	DBName            string        `envconfig:"DB_NAME" default:"paper_birthdays"`
	DBSSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
	SQLitePath        string        `envconfig:"SQLITE_PATH" default:"paper-birthdays.db"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	HTTPPort          string        `envconfig:"HTTP_PORT" default:"8080"`
	SiteURL           string        `envconfig:"SITE_URL" default:"https://happybdaypaper.com"`
	Timezone          string        `envconfig:"TIMEZONE" default:"UTC"`
	APISecretKey      string        `envconfig:"API_SECRET_KEY"`
	LogDevelopment    bool          `envconfig:"LOG_DEVELOPMENT" default:"false"`
	SearchLimit       int           `envconfig:"SEARCH_LIMIT" default:"20"`

	// E-Mail-Versand, Anbieter wird über EMAIL_SERVICE gewählt
	EmailService    string `envconfig:"EMAIL_SERVICE" default:"resend"`
	EmailDryRun     bool   `envconfig:"EMAIL_DRY_RUN" default:"false"`
	FromEmail       string `envconfig:"FROM_EMAIL" default:"noreply@happybdaypaper.com"`
	FromName        string `envconfig:"FROM_NAME" default:"Paper Birthdays"`
	ResendAPIKey    string `envconfig:"RESEND_API_KEY"`
	ResendBaseURL   string `envconfig:"RESEND_BASE_URL" default:"https://api.resend.com"`
	SendGridAPIKey  string `envconfig:"SENDGRID_API_KEY"`
	SendGridBaseURL string `envconfig:"SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
	MailgunAPIKey   string `envconfig:"MAILGUN_API_KEY"`
	MailgunDomain   string `envconfig:"MAILGUN_DOMAIN"`
	MailgunBaseURL  string `envconfig:"MAILGUN_BASE_URL" default:"https://api.mailgun.net"`

	// Cron-Zeitpläne
	DispatchCron string `envconfig:"DISPATCH_CRON" default:"0 8 * * *"`
	SnapshotCron string `envconfig:"SNAPSHOT_CRON" default:"15 0 * * *"`

	// Redis-Cache für Tageslisten (optional)
	RedisURL      string        `envconfig:"REDIS_URL"`
	PaperCacheTTL time.Duration `envconfig:"PAPER_CACHE_TTL" default:"1h"`

	// S3-Export der JSON-Snapshots (optional)
	SnapshotS3URL    string `envconfig:"SNAPSHOT_S3_URL"`
	SnapshotS3Region string `envconfig:"SNAPSHOT_S3_REGION" default:"eu-central-1"`
	SnapshotS3Key    string `envconfig:"SNAPSHOT_S3_KEY"`
	SnapshotS3Secret string `envconfig:"SNAPSHOT_S3_SECRET"`
	SnapshotS3Bucket string `envconfig:"SNAPSHOT_S3_BUCKET"`
	SnapshotS3Prefix string `envconfig:"SNAPSHOT_S3_PREFIX" default:"data"`

	// Datenbank-Backups landen im selben Bucket unter eigenem Präfix
	BackupS3Prefix string `envconfig:"BACKUP_S3_PREFIX" default:"backups"`
	KeepBackups    int    `envconfig:"KEEP_BACKUPS" default:"4"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
// DATABASE_URL hat Vorrang vor den Einzelwerten.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// Location liefert die Zeitzone, in der "heute" bestimmt wird.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// SnapshotEnabled meldet, ob ein Bucket für den JSON-Export konfiguriert ist.
func (c *Config) SnapshotEnabled() bool {
	return c.SnapshotS3Bucket != ""
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("SEARCH_LIMIT must be positive")
	}
	c.SiteURL = strings.TrimRight(c.SiteURL, "/")
	c.EmailService = strings.ToLower(strings.TrimSpace(c.EmailService))
	return nil
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
