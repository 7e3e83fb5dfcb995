package resources

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const MinAuthSecretLength = 20

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

type Config struct {
	Name           string
	Version        string
	HTTPHost       string
	HTTPPort       string
	DebugPort      string
	LogLevel       string
	DB             DBConfig
	AuthSecret     string
	AuthTokenTTL   time.Duration
	InviteTokenTTL time.Duration
	DirectoryFile  string
	OtelEnabled    bool
	OtelEndpoint   string
}

// Configured reports whether the data backend can be reached. Without it the
// application serves the directory read-only.
func (c *Config) Configured() bool {
	return strings.TrimSpace(c.DB.Host) != "" && len(c.AuthSecret) >= MinAuthSecretLength
}

func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("HTTP_HOST", "localhost")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DEBUG_PORT", "6060")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "clubs")
	v.SetDefault("AUTH_TOKEN_TTL", "12h")
	v.SetDefault("INVITE_TOKEN_TTL", "168h")
	v.SetDefault("DIRECTORY_FILE", "data/organizations.yaml")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_ENDPOINT", "localhost:4317")

	v.AutomaticEnv()

	return v
}

// LoadConfig reads the configuration from the environment and, when
// CONFIG_FILE is set, from that file. Environment variables take precedence.
func LoadConfig(v *viper.Viper, name string, version string) (*Config, error) {
	file := v.GetString("CONFIG_FILE")
	if file != "" {
		v.SetConfigFile(file)

		err := v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Name:      name,
		Version:   version,
		HTTPHost:  v.GetString("HTTP_HOST"),
		HTTPPort:  v.GetString("HTTP_PORT"),
		DebugPort: v.GetString("DEBUG_PORT"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		DB: DBConfig{
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
		},
		AuthSecret:     v.GetString("AUTH_SECRET"),
		AuthTokenTTL:   v.GetDuration("AUTH_TOKEN_TTL"),
		InviteTokenTTL: v.GetDuration("INVITE_TOKEN_TTL"),
		DirectoryFile:  v.GetString("DIRECTORY_FILE"),
		OtelEnabled:    v.GetBool("OTEL_ENABLED"),
		OtelEndpoint:   v.GetString("OTEL_ENDPOINT"),
	}

	var errs []error

	if cfg.HTTPPort == "" {
		errs = append(errs, errors.New("HTTP_PORT is required"))
	}

	if cfg.AuthTokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL must be a positive duration"))
	}

	if cfg.InviteTokenTTL <= 0 {
		errs = append(errs, errors.New("INVITE_TOKEN_TTL must be a positive duration"))
	}

	if cfg.OtelEnabled && cfg.OtelEndpoint == "" {
		errs = append(errs, errors.New("OTEL_ENDPOINT is required when OTEL_ENABLED is set"))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	return cfg, nil
}
