package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/clawtake/clawtake/internal/database/dbretry"
	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrJWTSecretMissing      = errors.New("api.auth.jwt_secret must be set")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.1.0"

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentAPIVersion    = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	API    APIConfig
}

// CommonConfig contains configuration shared between the API server and the db tool.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	Retry      Retry      `koanf:"retry"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Telemetry  Telemetry  `koanf:"telemetry"`
}

// APIConfig contains HTTP API specific configuration.
type APIConfig struct {
	// Version of the api config.
	Version    int        `koanf:"version"`
	Server     Server     `koanf:"server"`
	Auth       Auth       `koanf:"auth"`
	IP         IP         `koanf:"ip"`
	RateLimit  RateLimit  `koanf:"rate_limit"`
	Reputation Reputation `koanf:"reputation"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// Retry contains the retry policy for transient database failures.
type Retry struct {
	// Maximum retry attempts.
	MaxRetries uint64 `koanf:"max_retries"`
	// Initial retry delay in milliseconds.
	Delay int `koanf:"delay"`
	// Maximum retry delay in milliseconds.
	MaxDelay int `koanf:"max_delay"`
	// Total time budget across attempts in milliseconds.
	MaxElapsed int `koanf:"max_elapsed"`
}

// Policy converts the retry settings into a dbretry policy, falling back to
// the defaults for unset values.
func (r Retry) Policy() dbretry.Policy {
	policy := dbretry.DefaultPolicy

	if r.MaxRetries > 0 {
		policy.MaxRetries = r.MaxRetries
	}
	if r.Delay > 0 {
		policy.InitialInterval = time.Duration(r.Delay) * time.Millisecond
	}
	if r.MaxDelay > 0 {
		policy.MaxInterval = time.Duration(r.MaxDelay) * time.Millisecond
	}
	if r.MaxElapsed > 0 {
		policy.MaxElapsedTime = time.Duration(r.MaxElapsed) * time.Millisecond
	}

	return policy
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Require TLS for the connection.
	SSL bool `koanf:"ssl"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
	// Apply pending migrations on startup without asking.
	AutoMigrate bool `koanf:"auto_migrate"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Telemetry contains OpenTelemetry export settings.
type Telemetry struct {
	// Uptrace DSN. Tracing stays disabled when empty.
	UptraceDSN string `koanf:"uptrace_dsn"`
	// Deployment environment reported with every span.
	Environment string `koanf:"environment"`
}

// Server contains HTTP server configuration.
type Server struct {
	// Host to bind to.
	Host string `koanf:"host"`
	// Port to listen on.
	Port int `koanf:"port"`
	// Read timeout in milliseconds.
	ReadTimeout int `koanf:"read_timeout"`
	// Write timeout in milliseconds.
	WriteTimeout int `koanf:"write_timeout"`
	// Shutdown grace period in milliseconds.
	ShutdownTimeout int `koanf:"shutdown_timeout"`
	// Allowed CORS origins.
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// Auth contains bearer token verification settings.
type Auth struct {
	// HMAC secret used to sign access tokens.
	JWTSecret string `koanf:"jwt_secret"`
	// Expected token issuer, empty to skip the check.
	Issuer string `koanf:"issuer"`
}

// IP contains client IP extraction settings.
type IP struct {
	// Honour forwarding headers from trusted proxies.
	EnableHeaderValidation bool `koanf:"enable_header_validation"`
	// Proxy addresses or CIDR ranges whose forwarding headers are trusted.
	TrustedProxies []string `koanf:"trusted_proxies"`
	// Headers checked for the client address, in order.
	CustomHeaders []string `koanf:"custom_headers"`
	// Allow loopback client addresses.
	AllowLocalIPs bool `koanf:"allow_local_ips"`
}

// RateLimit contains per-IP rate limit windows.
type RateLimit struct {
	// Requests allowed per window on all API routes.
	GlobalRequests int `koanf:"global_requests"`
	// Global window length in seconds.
	GlobalWindow int `koanf:"global_window"`
	// Requests allowed per window on the vote routes.
	VoteRequests int `koanf:"vote_requests"`
	// Vote window length in seconds.
	VoteWindow int `koanf:"vote_window"`
}

// Reputation contains the reputation weights applied by votes and best answers.
type Reputation struct {
	// Reputation gained per upvote.
	Upvote int `koanf:"upvote"`
	// Reputation lost per downvote.
	Downvote int `koanf:"downvote"`
	// Reputation gained for a best answer.
	BestAnswer int `koanf:"best_answer"`
}

// Weights returns the configured reputation weights with defaults for unset values.
func (r Reputation) Weights() types.ReputationWeights {
	weights := types.DefaultReputationWeights

	if r.Upvote > 0 {
		weights.Upvote = r.Upvote
	}
	if r.Downvote > 0 {
		weights.Downvote = r.Downvote
	}
	if r.BestAnswer > 0 {
		weights.BestAnswer = r.BestAnswer
	}

	return weights
}

// LoadConfig loads the configuration files from the first matching search path.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return LoadConfigFrom([]string{
		".clawtake",
		homeDir + "/.clawtake/config",
		"/etc/clawtake/config",
		"/app/config",
		"config",
		".",
	})
}

// LoadConfigFrom loads the configuration files from the given search paths.
func LoadConfigFrom(configPaths []string) (*Config, string, error) {
	k := koanf.New(".")

	var usedConfigPath string

	// Each file is namespaced under its own key so sections never collide
	configFiles := []string{"common", "api"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)

			sub := koanf.New(".")
			if err := sub.Load(file.Provider(configPath), toml.Parser()); err != nil {
				continue
			}

			if err := k.MergeAt(sub, configName); err != nil {
				return nil, "", fmt.Errorf("failed to merge %s.toml: %w", configName, err)
			}

			configLoaded = true

			if usedConfigPath == "" {
				usedConfigPath = path
			}

			break
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("api", config.API.Version, CurrentAPIVersion); err != nil {
		return nil, "", err
	}

	if strings.TrimSpace(config.API.Auth.JWTSecret) == "" {
		return nil, "", fmt.Errorf("%w: %s/api.toml", ErrJWTSecretMissing, usedConfigPath)
	}

	return &config, usedConfigPath, nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/clawtake/clawtake/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
