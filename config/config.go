// Package config for the mayl email dispatch service
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Config contains this application's runtime configuration.
type Config struct {
	ServerAddress  string `env:"MAYL_SERVER_ADDRESS" envDefault:":8080"`
	MetricsAddress string `env:"MAYL_METRICS_ADDRESS" envDefault:":9090"`

	EmailProvider string `env:"MAYL_EMAIL_PROVIDER" envDefault:"SMTP"`
	SMTPHost      string `env:"MAYL_SMTP_HOST" envDefault:"localhost"`
	SMTPPort      int    `env:"MAYL_SMTP_PORT" envDefault:"1025"`
	SMTPUser      string `env:"MAYL_SMTP_USER" envDefault:""`
	SMTPPassword  string `env:"MAYL_SMTP_PASS" envDefault:""`

	QueuePollInterval   time.Duration `env:"MAYL_QUEUE_POLL_INTERVAL" envDefault:"5s"`
	MaxDeliveryAttempts int           `env:"MAYL_MAX_DELIVERY_ATTEMPTS" envDefault:"25"`
	ArchiveMaxRows      int64         `env:"MAYL_ARCHIVE_MAX_ROWS" envDefault:"100000"`
	ArchiveCullInterval time.Duration `env:"MAYL_ARCHIVE_CULL_INTERVAL" envDefault:"600s"`

	// SeedDomains are registered at startup with freshly generated tokens
	// unless already present.
	SeedDomains []string `env:"MAYL_DOMAINS" envSeparator:","`

	Database DbConfig
}

// DbConfig is the connection configuration for the postgres store.
type DbConfig struct {
	Host     string `env:"MAYL_DATABASE_HOST" envDefault:"localhost"`
	Port     int    `env:"MAYL_DATABASE_PORT" envDefault:"5432"`
	Name     string `env:"MAYL_DATABASE_NAME" envDefault:"mayl"`
	User     string `env:"MAYL_DATABASE_USER" envDefault:"postgres"`
	Password string `env:"MAYL_DATABASE_PASSWORD" envDefault:"postgres"`
	SSLMode  string `env:"MAYL_DATABASE_SSL_MODE" envDefault:"disable"`
}

// GetConfig retrieves the current runtime configuration from the environment and returns it.
func GetConfig() (*Config, error) {
	c := Config{}
	if err := env.Parse(&c); err != nil {
		return nil, errors.Wrap(err, "unable to parse runtime configuration from environment")
	}

	var configErrors *multierror.Error

	if c.EmailProvider != "SMTP" && c.EmailProvider != "LOG" {
		configErrors = multierror.Append(configErrors,
			errors.Errorf("MAYL_EMAIL_PROVIDER must be SMTP or LOG, got %q", c.EmailProvider))
	}
	if c.SMTPPort < 1 || c.SMTPPort > 65535 {
		configErrors = multierror.Append(configErrors,
			errors.Errorf("MAYL_SMTP_PORT must be a valid port, got %d", c.SMTPPort))
	}
	if c.QueuePollInterval <= 0 {
		configErrors = multierror.Append(configErrors,
			errors.New("MAYL_QUEUE_POLL_INTERVAL must be positive"))
	}
	if c.ArchiveCullInterval <= 0 {
		configErrors = multierror.Append(configErrors,
			errors.New("MAYL_ARCHIVE_CULL_INTERVAL must be positive"))
	}
	if c.ArchiveMaxRows < 0 {
		configErrors = multierror.Append(configErrors,
			errors.New("MAYL_ARCHIVE_MAX_ROWS must not be negative"))
	}
	if c.MaxDeliveryAttempts < 1 {
		configErrors = multierror.Append(configErrors,
			errors.New("MAYL_MAX_DELIVERY_ATTEMPTS must be at least 1"))
	}

	if err := configErrors.ErrorOrNil(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration settings")
	}
	return &c, nil
}
