// Package config loads and validates the promoter configuration file.
//
// Configuration is optional: every field has a default or a CLI flag/env
// fallback, so most CI invocations run without a config file at all. When a
// file is given, environment variable references like ${GITOPS_TOKEN} are
// expanded before parsing so tokens never live in the file itself.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Repo          RepoConfig          `yaml:"repo"`
	Paths         PathsConfig         `yaml:"paths"`
	Retry         RetryConfig         `yaml:"retry"`
	Notifications NotificationsConfig `yaml:"notifications"`
	History       HistoryConfig       `yaml:"history"`
}

// RepoConfig identifies the GitOps state repository and how to reach it.
type RepoConfig struct {
	Owner   string    `yaml:"owner"`
	Name    string    `yaml:"name"`
	Branch  string    `yaml:"branch,omitempty"`
	Store   StoreType `yaml:"store,omitempty"`
	BaseURL string    `yaml:"base_url,omitempty"`
	Token   string    `yaml:"token,omitempty"`
	// Path points at a local working copy of the state repo. Only used by
	// the local store backend.
	Path string `yaml:"path,omitempty"`
}

// PathsConfig holds the in-repo layout of the deployment catalog. The
// defaults are a path contract shared with the Helm tooling that consumes the
// documents; override them only when the state repo layout really differs.
type PathsConfig struct {
	Previews   string `yaml:"previews,omitempty"`
	Production string `yaml:"production,omitempty"`
	Registry   string `yaml:"registry,omitempty"`
}

// RetryConfig controls the conflict-retry budget of the synchronizer.
// Delay fields are duration strings ("500ms", "5s") validated at load time.
type RetryConfig struct {
	MaxAttempts  int              `yaml:"max_attempts,omitempty"`
	Backoff      RetryBackoffMode `yaml:"backoff,omitempty"`
	InitialDelay string           `yaml:"initial_delay,omitempty"`
	MaxDelay     string           `yaml:"max_delay,omitempty"`
}

// NotificationsConfig configures the best-effort reporting sinks.
type NotificationsConfig struct {
	Comment     CommentConfig     `yaml:"comment"`
	NATS        NATSConfig        `yaml:"nats"`
	Pushgateway PushgatewayConfig `yaml:"pushgateway"`
}

// CommentConfig controls the PR comment upsert sink. Enabled defaults to
// true when unset; the sink additionally needs a source repository, PR
// number, and comment token before it can act.
type CommentConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// NATSConfig configures the optional promotion event publisher. An empty URL
// disables the sink.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// PushgatewayConfig configures the optional Prometheus Pushgateway push. An
// empty URL disables the push.
type PushgatewayConfig struct {
	URL string `yaml:"url,omitempty"`
	Job string `yaml:"job,omitempty"`
}

// HistoryConfig configures the local promotion ledger. An empty path disables
// recording.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Default values applied by Load and Defaults.
const (
	DefaultBranch        = "main"
	DefaultPreviewsDir   = "previews"
	DefaultProductionDir = "production"
	DefaultRegistryPath  = "services.yaml"
	DefaultMaxAttempts   = 3
	DefaultInitialDelay  = "500ms"
	DefaultMaxDelay      = "5s"
	DefaultNATSSubject   = "promoter.events"
	DefaultPushJob       = "promoter"
)

// Defaults returns a configuration with every default applied and no
// repository set. Used when the caller runs without a config file.
func Defaults() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	LoadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDefaults fills zero values with defaults.
func (c *Config) applyDefaults() {
	if c.Repo.Branch == "" {
		c.Repo.Branch = DefaultBranch
	}
	if c.Repo.Store == "" {
		c.Repo.Store = StoreForgejo
	}
	if c.Paths.Previews == "" {
		c.Paths.Previews = DefaultPreviewsDir
	}
	if c.Paths.Production == "" {
		c.Paths.Production = DefaultProductionDir
	}
	if c.Paths.Registry == "" {
		c.Paths.Registry = DefaultRegistryPath
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Retry.Backoff == "" {
		c.Retry.Backoff = RetryBackoffFixed
	}
	if c.Retry.InitialDelay == "" {
		c.Retry.InitialDelay = DefaultInitialDelay
	}
	if c.Retry.MaxDelay == "" {
		c.Retry.MaxDelay = DefaultMaxDelay
	}
	if c.Notifications.NATS.URL != "" && c.Notifications.NATS.Subject == "" {
		c.Notifications.NATS.Subject = DefaultNATSSubject
	}
	if c.Notifications.Pushgateway.URL != "" && c.Notifications.Pushgateway.Job == "" {
		c.Notifications.Pushgateway.Job = DefaultPushJob
	}
}

// Validate checks invariants that cannot be expressed through types alone.
func (c *Config) Validate() error {
	if got := NormalizeStoreType(string(c.Repo.Store)); got == "" {
		return fmt.Errorf("invalid repo.store: %s (allowed: forgejo|github|local)", c.Repo.Store)
	}
	if c.Repo.Store == StoreLocal && c.Repo.Path == "" {
		return fmt.Errorf("repo.path is required when repo.store is local")
	}
	if got := NormalizeRetryBackoff(string(c.Retry.Backoff)); got == "" {
		return fmt.Errorf("invalid retry.backoff: %s (allowed: fixed|linear|exponential)", c.Retry.Backoff)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}

	initDur, err := time.ParseDuration(c.Retry.InitialDelay)
	if err != nil {
		return fmt.Errorf("invalid retry.initial_delay: %s: %w", c.Retry.InitialDelay, err)
	}
	maxDur, err := time.ParseDuration(c.Retry.MaxDelay)
	if err != nil {
		return fmt.Errorf("invalid retry.max_delay: %s: %w", c.Retry.MaxDelay, err)
	}
	if maxDur < initDur {
		return fmt.Errorf("retry.max_delay (%s) must be >= retry.initial_delay (%s)",
			c.Retry.MaxDelay, c.Retry.InitialDelay)
	}

	return nil
}

// CommentsEnabled reports whether the PR comment sink may run.
func (c *Config) CommentsEnabled() bool {
	if c.Notifications.Comment.Enabled == nil {
		return true
	}
	return *c.Notifications.Comment.Enabled
}

// InitialDelayDuration returns the parsed initial delay. Validate must have
// accepted the config first.
func (c *Config) InitialDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.Retry.InitialDelay)
	return d
}

// MaxDelayDuration returns the parsed max delay. Validate must have accepted
// the config first.
func (c *Config) MaxDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.Retry.MaxDelay)
	return d
}

// LoadEnvFiles loads .env then .env.local if present. Existing environment
// variables always win, so CI secrets cannot be shadowed by a checked-in
// file. Safe to call more than once.
func LoadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
		}
	}
}
