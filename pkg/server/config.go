package server

import (
	"fmt"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/clintecker/hector/pkg/protocol"
)

// Identity backends.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// Config holds server configuration. Values are layered: DefaultConfig, then
// the YAML config file, then HECTOR_* environment variables, then flags.
type Config struct {
	ServerName  string `yaml:"server_name" env:"HECTOR_SERVER_NAME" validate:"required,hostname_rfc1123"`
	ListenAddr  string `yaml:"listen_addr" env:"HECTOR_LISTEN_ADDR" validate:"required,hostname_port"`
	MetricsAddr string `yaml:"metrics_addr" env:"HECTOR_METRICS_ADDR" validate:"omitempty,hostname_port"` // empty = disabled

	IdentityBackend string `yaml:"identity_backend" env:"HECTOR_IDENTITY_BACKEND" validate:"oneof=yaml sqlite"`
	IdentitiesFile  string `yaml:"identities_file" env:"HECTOR_IDENTITIES_FILE" validate:"required_if=IdentityBackend yaml"`
	DBPath          string `yaml:"db_path" env:"HECTOR_DB_PATH" validate:"required_if=IdentityBackend sqlite"`

	PingInterval        time.Duration `yaml:"ping_interval" env:"HECTOR_PING_INTERVAL" validate:"gt=0s"`
	RegistrationTimeout time.Duration `yaml:"registration_timeout" env:"HECTOR_REGISTRATION_TIMEOUT" validate:"gt=0s"`
	SendQueueSize       int           `yaml:"send_queue_size" env:"HECTOR_SEND_QUEUE_SIZE" validate:"min=1"`
	MaxLineLength       int           `yaml:"max_line_length" env:"HECTOR_MAX_LINE_LENGTH" validate:"min=64,max=8192"`

	LogLevel  string `yaml:"log_level" env:"HECTOR_LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	LogFormat string `yaml:"log_format" env:"HECTOR_LOG_FORMAT" validate:"oneof=text json"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ServerName:          "localhost",
		ListenAddr:          ":6767",
		MetricsAddr:         ":6768",
		IdentityBackend:     BackendYAML,
		IdentitiesFile:      "identities.yml",
		DBPath:              "hector.db",
		PingInterval:        2 * time.Minute,
		RegistrationTimeout: 30 * time.Second,
		SendQueueSize:       256,
		MaxLineLength:       protocol.MaxLineLength,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// LoadConfig applies the YAML file at path (if any) and the environment on
// top of DefaultConfig. The result is not validated, since flags may still
// override it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI flag
		if err != nil {
			return Config{}, fmt.Errorf("server: read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("server: parse config: %w", err)
		}
	}

	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("server: config from environment: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("server: invalid config: %w", err)
	}
	return nil
}
