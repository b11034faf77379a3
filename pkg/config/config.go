// Package config loads the server's environment-derived configuration,
// grounded on cmd/revad/config's viper.AutomaticEnv idiom, bound instead
// to the exact variable names spec.md §6 lists rather than a REVA_-style
// prefixed/nested tree: this server has one binary and a flat config.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is every environment-derived setting the daemon reads at
// startup. Nothing here is reloaded at runtime; the reconciler re-reads
// its declarative resources independently of this struct.
type Config struct {
	DatabaseURL     string `mapstructure:"database_url"`
	PrimaryOrigin   string `mapstructure:"primary_origin"`
	EnableDev       bool   `mapstructure:"enable_dev"`
	DevAllowOrigins []string

	OIDCIssuer       string `mapstructure:"oidc_issuer"`
	OIDCClientID     string `mapstructure:"oidc_client_id"`
	OIDCClientSecret string `mapstructure:"oidc_client_secret"`

	DefaultStorageLimit int64 `mapstructure:"default_storage_limit"`

	ReconcileIntervalSeconds          int `mapstructure:"reconcile_interval_seconds"`
	SessionTimeoutOnInactivitySeconds int `mapstructure:"session_timeout_on_inactivity_seconds"`
	JobTimeoutSeconds                 int `mapstructure:"job_timeout_seconds"`

	// RedisURL backs the upload advisory lock (pkg/upload); empty falls
	// back to an in-process lock table.
	RedisURL string `mapstructure:"redis_url"`
	// JobqueueNATSURL backs job lifecycle event publishing (pkg/events);
	// empty disables publishing.
	JobqueueNATSURL string `mapstructure:"jobqueue_nats_url"`

	LogMode string `mapstructure:"log_mode"` // "dev" or "prod"

	HTTPAddr string `mapstructure:"http_addr"`

	// Minio* are the bootstrap credentials for the default location
	// created on first run. Any other StorageLocation carries its own
	// credentials in its stored ProviderConfig; only the default location
	// gets a provider installed at startup.
	MinioEndpoint        string `mapstructure:"minio_endpoint"`
	MinioBucket          string `mapstructure:"minio_bucket"`
	MinioAccessKeyID     string `mapstructure:"minio_access_key_id"`
	MinioSecretAccessKey string `mapstructure:"minio_secret_access_key"`
	MinioUseSSL          bool   `mapstructure:"minio_use_ssl"`

	PosixRootDir string `mapstructure:"posix_root_dir"`
}

// Load reads every recognized variable from the process environment. Env
// var names match spec.md §6 verbatim (upper-cased, no prefix) so the
// mapping from spec to deployment manifest is direct.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{
		"database_url", "primary_origin", "enable_dev", "dev_allow_origins",
		"oidc_issuer", "oidc_client_id", "oidc_client_secret",
		"default_storage_limit", "reconcile_interval_seconds",
		"session_timeout_on_inactivity_seconds", "job_timeout_seconds",
		"redis_url", "jobqueue_nats_url", "log_mode", "http_addr",
		"minio_endpoint", "minio_bucket", "minio_access_key_id", "minio_secret_access_key", "minio_use_ssl",
		"posix_root_dir",
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, errors.Wrapf(err, "config: binding %s", key)
		}
	}

	v.SetDefault("reconcile_interval_seconds", 30)
	v.SetDefault("session_timeout_on_inactivity_seconds", 3600)
	v.SetDefault("job_timeout_seconds", 3600)
	v.SetDefault("log_mode", "prod")
	v.SetDefault("http_addr", ":9141")
	v.SetDefault("default_storage_limit", int64(10)<<30) // 10 GiB
	v.SetDefault("posix_root_dir", "/var/lib/filez/data")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "config: unmarshaling")
	}
	if raw := v.GetString("dev_allow_origins"); raw != "" {
		c.DevAllowOrigins = strings.Split(raw, ",")
	}
	if c.DatabaseURL == "" {
		return Config{}, errors.New("config: DATABASE_URL is required")
	}
	return c, nil
}

// ReconcileInterval is ReconcileIntervalSeconds as a time.Duration.
func (c Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// SessionTimeout is SessionTimeoutOnInactivitySeconds as a time.Duration.
func (c Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutOnInactivitySeconds) * time.Second
}

// JobTimeout is JobTimeoutSeconds as a time.Duration.
func (c Config) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSeconds) * time.Second
}
