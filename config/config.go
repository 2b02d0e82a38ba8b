package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the server needs to start. Values come
// from an optional YAML file, overridden by environment variables
// (a .env file is honored if present).
type Config struct {
	// Address the API listens on, e.g. ":8080".
	ListenAddr string `yaml:"listen_addr" validate:"required"`

	// Feed archive to serve: an http(s) URL or a local zip path.
	// May be left empty here; the CLI enforces it after merging in
	// the --feed flag.
	FeedSource string `yaml:"feed_source"`

	// Directory for the sqlite parse cache. Empty runs fully
	// in-memory.
	StorageDir string `yaml:"storage_dir"`

	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// CORS origins allowed to call the API. Empty allows all, which
	// suits a read-only dashboard API.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads configuration from the given YAML path (skipped when
// empty or missing) and then applies environment overrides.
func Load(path string) (*Config, error) {
	// Pull a .env into the environment if there is one.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
	}

	if path == "" {
		path = os.Getenv("TRANSITDASH_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.ListenAddr = ":" + v
	}
	if v := os.Getenv("FEED_SOURCE"); v != "" {
		cfg.FeedSource = v
	} else if v := os.Getenv("FEED_URL"); v != "" {
		cfg.FeedSource = v
	}
	if v := os.Getenv("STORAGE_DIR"); v != "" {
		cfg.StorageDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
		for i := range cfg.AllowedOrigins {
			cfg.AllowedOrigins[i] = strings.TrimSpace(cfg.AllowedOrigins[i])
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
