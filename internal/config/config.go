// Package config loads the optional YAML client profile.
// It applies defaults so the CLI can rely on fully populated values.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the server's default REST listener.
const DefaultBaseURL = "http://127.0.0.1:8080"

// AuthConfig holds HTTP authentication settings.
type AuthConfig struct {
	Type     string `yaml:"type"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config mirrors the profile file schema.
type Config struct {
	BaseURL  string     `yaml:"base_url"`
	Auth     AuthConfig `yaml:"auth"`
	Insecure bool       `yaml:"insecure"`
	NoColor  bool       `yaml:"no_color"`
	Timeout  string     `yaml:"timeout"`
	Log      LogConfig  `yaml:"log"`
}

// Default returns the configuration used when no profile is given.
func Default() Config {
	c := Config{}
	applyDefaults(&c)
	return c
}

// Load reads a YAML profile from fsys, applies defaults, and validates it.
func Load(fsys afero.Fs, path string) (Config, error) {
	var c Config
	if strings.TrimSpace(path) == "" {
		return c, errors.New("config path is required")
	}
	b, err := afero.ReadFile(fsys, path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	applyDefaults(&c)
	if err := validate(&c); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.Auth.Type = strings.ToLower(strings.TrimSpace(c.Auth.Type))
	return c, nil
}

// TimeoutDuration parses Timeout. Empty means no timeout.
func (c Config) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(c.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(c.Timeout))
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}
	if d < 0 {
		return 0, errors.New("timeout must not be negative")
	}
	return d, nil
}

func applyDefaults(c *Config) {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
}

// validate performs sanity checks without mutating c.
func validate(c *Config) error {
	u, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil || u.Host == "" {
		return errors.New("base_url is invalid")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("base_url must be http or https")
	}
	switch strings.ToLower(strings.TrimSpace(c.Auth.Type)) {
	case "", "none":
	case "basic", "digest":
		if c.Auth.User == "" {
			return errors.New("auth.user is required when auth.type is set")
		}
	default:
		return errors.New("auth.type must be basic, digest or none")
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}
