// Package config loads kernel configuration from environment variables
// (spec.md §6.3), with environment variables always taking precedence
// over an optional file loaded via viper. Grounded on the teacher's
// config.EnvConfig (Get*/Must* accessors) generalized with a viper-backed
// file overlay, following the teacher's own cli/root.go viper usage.
package config

import (
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds the recognised KERNEL_* options (spec.md §6.3).
type Config struct {
	CouchDBDSN             string
	CouchDBReplicaSet      string
	CouchDBReadPreference  string
	PrometheusEnabled      bool
	PrometheusPort         int
	MaxRetries             int
	BackoffFactor          float64
}

// Load reads configuration from an optional file (path from
// KERNEL_CONFIG_FILE) merged under environment-variable precedence, and
// applies spec.md §6.3's documented defaults.
func Load() Config {
	v := viper.New()
	v.SetDefault("app.couchdb_dsn", "http://db:5984")
	v.SetDefault("app.couchdb_replicaset", "")
	v.SetDefault("app.couchdb_readpreference", "secondaryPreferred")
	v.SetDefault("app.prometheus_enabled", true)
	v.SetDefault("app.prometheus_port", 8087)
	v.SetDefault("lib.max_retries", 4)
	v.SetDefault("lib.backoff_factor", 1.2)

	if path := os.Getenv("KERNEL_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig() // a missing/unreadable file just leaves defaults in place
	}

	cfg := Config{
		CouchDBDSN:            v.GetString("app.couchdb_dsn"),
		CouchDBReplicaSet:     v.GetString("app.couchdb_replicaset"),
		CouchDBReadPreference: v.GetString("app.couchdb_readpreference"),
		PrometheusEnabled:     v.GetBool("app.prometheus_enabled"),
		PrometheusPort:        v.GetInt("app.prometheus_port"),
		MaxRetries:            v.GetInt("lib.max_retries"),
		BackoffFactor:         v.GetFloat64("lib.backoff_factor"),
	}

	applyEnvOverride(&cfg.CouchDBDSN, "KERNEL_APP_COUCHDB_DSN")
	applyEnvOverride(&cfg.CouchDBReplicaSet, "KERNEL_APP_COUCHDB_REPLICASET")
	applyEnvOverride(&cfg.CouchDBReadPreference, "KERNEL_APP_COUCHDB_READPREFERENCE")
	applyBoolEnvOverride(&cfg.PrometheusEnabled, "KERNEL_APP_PROMETHEUS_ENABLED")
	applyIntEnvOverride(&cfg.PrometheusPort, "KERNEL_APP_PROMETHEUS_PORT")
	applyIntEnvOverride(&cfg.MaxRetries, "KERNEL_LIB_MAX_RETRIES")
	applyFloatEnvOverride(&cfg.BackoffFactor, "KERNEL_LIB_BACKOFF_FACTOR")

	return cfg
}

func applyEnvOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func applyBoolEnvOverride(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func applyIntEnvOverride(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func applyFloatEnvOverride(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
