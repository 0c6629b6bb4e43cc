package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DevSessionSecret is the fallback used by LoadWithDefaults.
const DevSessionSecret = "dev-secret-change-me"

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Auth     AuthConfig     `yaml:"auth"`
	QR       QRConfig       `yaml:"qr"`
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"rice_shop.db"` // SQLite database file path
}

// HTTPConfig contains web server settings.
type HTTPConfig struct {
	Address        string `yaml:"address" env:"HTTP_ADDRESS" env-default:":5001"`
	StaticDir      string `yaml:"static_dir" env:"STATIC_DIR" env-default:"static"`
	UploadDir      string `yaml:"upload_dir" env:"UPLOAD_DIR" env-default:"static/uploads"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" env-default:"10485760"`
}

// GRPCConfig contains catalog RPC settings. An empty Address disables the server.
type GRPCConfig struct {
	Address string `yaml:"address" env:"GRPC_ADDRESS" env-default:""`
}

// AuthConfig contains session settings.
type AuthConfig struct {
	SessionSecret string        `yaml:"session_secret" env:"SESSION_SECRET"`
	SessionTTL    time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"24h"`
	CookieSecure  bool          `yaml:"cookie_secure" env:"COOKIE_SECURE" env-default:"false"`
}

// QRConfig toggles payment QR generation for new farmers.
type QRConfig struct {
	Enabled bool `yaml:"enabled" env:"QR_ENABLED" env-default:"true"`
}

// Load reads configuration from CONFIG_PATH (YAML, overridable by env) or from
// the environment alone. A .env file in the working directory is loaded first
// if present. SESSION_SECRET is required.
func Load() (*Config, error) {
	cfg, err := read(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, err
	}
	if cfg.Auth.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but falls back to a development session secret.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := read(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, err
	}
	if cfg.Auth.SessionSecret == "" {
		cfg.Auth.SessionSecret = DevSessionSecret
	}
	return cfg, nil
}

// LoadFile reads the YAML file at path, then applies env overrides.
func LoadFile(path string, requireSecret bool) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.SessionSecret == "" {
		if requireSecret {
			return nil, errors.New("session secret is not set")
		}
		cfg.Auth.SessionSecret = DevSessionSecret
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[cfg] .env not loaded: %v", err)
	}
	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &cfg, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, static: %s, uploads: %s, gRPC: %q, session TTL: %s, QR: %t, Auth: *** (masked) ***}",
		c.Database.Path, c.HTTP.Address, c.HTTP.StaticDir, c.HTTP.UploadDir, c.GRPC.Address, c.Auth.SessionTTL, c.QR.Enabled)
}
