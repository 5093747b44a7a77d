package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	applog "atm/internal/log"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	// Persistence
	StateBackend string `mapstructure:"STATE_BACKEND"`
	StateFile    string `mapstructure:"STATE_FILE"`
	SQLiteDBPath string `mapstructure:"SQLITE_DB_PATH"`

	// AMQP (optional; empty URL disables session summaries)
	AMQPURL      string `mapstructure:"AMQP_URL"`
	AMQPExchange string `mapstructure:"AMQP_EXCHANGE"`
	AMQPQueue    string `mapstructure:"AMQP_QUEUE"`

	// Audit consumer
	AuditJournal string `mapstructure:"AUDIT_JOURNAL"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"STATE_BACKEND":  BackendFile,
	"STATE_FILE":     "atm_state.txt",
	"SQLITE_DB_PATH": "./data/atm.db",
	"AMQP_URL":       "",
	"AMQP_EXCHANGE":  "atm",
	"AMQP_QUEUE":     "session_summaries",
	"AUDIT_JOURNAL":  "atm_audit.jsonl",
	"LOG_LEVEL":      "warn",
	"LOG_FORMAT":     applog.FormatText,
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"backend":     "STATE_BACKEND",
	"state-file":  "STATE_FILE",
	"sqlite-path": "SQLITE_DB_PATH",
	"log-level":   "LOG_LEVEL",
	"journal":     "AUDIT_JOURNAL",
}

// RegisterFlags defines the command-line flags understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("backend", BackendFile, "state backend: file or sqlite")
	fs.String("state-file", "atm_state.txt", "path of the state file (file backend)")
	fs.String("sqlite-path", "./data/atm.db", "path of the SQLite database (sqlite backend)")
	fs.String("log-level", "warn", "log level: debug, info, warn or error")
}

// RegisterAuditFlags defines the flags of the audit consumer.
func RegisterAuditFlags(fs *pflag.FlagSet) {
	fs.String("journal", "atm_audit.jsonl", "path of the audit journal")
	fs.String("log-level", "warn", "log level: debug, info, warn or error")
}

// ValidateAudit checks the settings the audit consumer depends on in
// addition to Validate.
func (c *Config) ValidateAudit() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var errors []string
	if !c.AMQPEnabled() {
		errors = append(errors, "AMQP URL is required for the audit consumer")
	}
	if strings.TrimSpace(c.AuditJournal) == "" {
		errors = append(errors, "audit journal path cannot be empty")
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Load reads configuration from the environment, with flags from fs taking
// precedence when they were set explicitly. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{BackendFile, BackendSQLite}
	if !slices.Contains(validBackends, c.StateBackend) {
		errors = append(errors, fmt.Sprintf("invalid state backend '%s': must be one of %v", c.StateBackend, validBackends))
	}

	if c.StateBackend == BackendFile && strings.TrimSpace(c.StateFile) == "" {
		errors = append(errors, "state file path cannot be empty when using file backend")
	}
	if c.StateBackend == BackendSQLite && strings.TrimSpace(c.SQLiteDBPath) == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != applog.FormatText && c.LogFormat != applog.FormatJSON {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether session summaries should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}
