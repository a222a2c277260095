// Package config loads the server configuration and stores the runtime
// settings editable through the API.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-envparse"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NEWSMAP_"

// Config represents the structure of the newsmap config file.
type Config struct {
	Server struct {
		Addr        string   `yaml:"addr"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Storage struct {
		DSN string `yaml:"dsn"`
	} `yaml:"storage"`
	Auth struct {
		SecretKey     string        `yaml:"secret_key"`
		TokenTTL      time.Duration `yaml:"token_ttl"`
		AdminUsername string        `yaml:"admin_username"`
		AdminPassword string        `yaml:"admin_password"`
	} `yaml:"auth"`
	Registry struct {
		Path string `yaml:"path"`
	} `yaml:"registry"`
	GeoIP struct {
		Database string `yaml:"database"`
	} `yaml:"geoip"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = "localhost:8080"
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Storage.DSN = "newsmap.db"
	cfg.Auth.SecretKey = "your-secret-key-change-in-production"
	cfg.Auth.TokenTTL = 24 * time.Hour
	cfg.Auth.AdminUsername = "admin"
	cfg.Auth.AdminPassword = "admin123"
	cfg.Log.Level = "info"
	return &cfg
}

// Load reads the YAML file at path over the defaults, then applies NEWSMAP_*
// environment overrides. An empty path or a missing file is not an error.
// ${VAR} references in the file are expanded.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

// LoadWithEnvFile is like Load, but variables from the dotenv-style file at
// envFile take precedence over the process environment.
func LoadWithEnvFile(path, envFile string) (*Config, error) {
	vars, err := ReadEnvFile(envFile)
	if err != nil {
		return nil, err
	}

	return load(path, func(key string) (string, bool) {
		if v, ok := vars[key]; ok {
			return v, true
		}
		return os.LookupEnv(key)
	})
}

// ReadEnvFile parses a file of KEY=value lines.
func ReadEnvFile(name string) (map[string]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open env file: %w", err)
	}
	defer f.Close()

	vars, err := envparse.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse env file: %w", err)
	}
	return vars, nil
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			expanded := os.Expand(string(data), func(key string) string {
				v, _ := lookup(key)
				return v
			})
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from the environment.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	str("ADDR", &c.Server.Addr)
	str("DB", &c.Storage.DSN)
	str("SECRET_KEY", &c.Auth.SecretKey)
	str("ADMIN_USERNAME", &c.Auth.AdminUsername)
	str("ADMIN_PASSWORD", &c.Auth.AdminPassword)
	str("REGISTRY", &c.Registry.Path)
	str("GEOIP_DATABASE", &c.GeoIP.Database)
	str("LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "TOKEN_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sTOKEN_TTL: %w", EnvPrefix, err)
		}
		c.Auth.TokenTTL = ttl
	}
	if v, ok := lookup(EnvPrefix + "LOG_PRETTY"); ok {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sLOG_PRETTY: %w", EnvPrefix, err)
		}
		c.Log.Pretty = pretty
	}
	return nil
}

// Validate checks the fields the server can't start without.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Storage.DSN == "" {
		return errors.New("storage.dsn is required")
	}
	if c.Auth.SecretKey == "" {
		return errors.New("auth.secret_key is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
