package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration, loaded from YAML with
// GATEHOUSE_* environment overrides on top.
type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
		// MetricsAddr, when set, exposes /metrics on a separate listener so the
		// scrape endpoint never rides the gated console port.
		MetricsAddr string `yaml:"metrics_addr"`
		// Origin is the single origin echoed in Access-Control-Allow-Origin.
		// Never a wildcard.
		Origin string `yaml:"origin"`
	} `yaml:"server"`

	// Credentials of the one administrator account. All three empty means the
	// service runs in bootstrap mode (console reachable, API unprotected) until
	// an operator sets them.
	Credentials struct {
		Username string `yaml:"username"`
		// PasswordHash is hex sha256(password + salt).
		PasswordHash string `yaml:"password_hash"`
		Salt         string `yaml:"salt"`
	} `yaml:"credentials"`

	Auth struct {
		SessionTTL    string `yaml:"session_ttl"`
		RememberMeTTL string `yaml:"remember_me_ttl"`
		CookieName    string `yaml:"cookie_name"`
		// MaxOrigin: pc | lan | wan. Requests from networks beyond this tier are
		// rejected before any credential check.
		MaxOrigin string `yaml:"max_origin"`
	} `yaml:"auth"`

	State struct {
		Path string `yaml:"path"`
	} `yaml:"state"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads the YAML config at path and applies defaults and env overrides.
// A missing file is not an error: the zero config plus defaults is a valid
// bootstrap-mode setup.
func Load(path string) (*Config, error) {
	var c Config
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	c.applyEnv()

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:47990"
	}
	if c.Server.Origin == "" {
		c.Server.Origin = "https://localhost:47990"
	}
	if c.Auth.SessionTTL == "" {
		c.Auth.SessionTTL = "12h"
	}
	if c.Auth.RememberMeTTL == "" {
		c.Auth.RememberMeTTL = "720h" // 30d
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "gh_session"
	}
	if c.Auth.MaxOrigin == "" {
		c.Auth.MaxOrigin = "lan"
	}
	if c.State.Path == "" {
		c.State.Path = "gatehouse_state.json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.App.Env, "GATEHOUSE_ENV")
	set(&c.Server.Addr, "GATEHOUSE_ADDR")
	set(&c.Server.MetricsAddr, "GATEHOUSE_METRICS_ADDR")
	set(&c.Server.Origin, "GATEHOUSE_ORIGIN")
	set(&c.Credentials.Username, "GATEHOUSE_USERNAME")
	set(&c.Credentials.PasswordHash, "GATEHOUSE_PASSWORD_HASH")
	set(&c.Credentials.Salt, "GATEHOUSE_SALT")
	set(&c.State.Path, "GATEHOUSE_STATE_PATH")
	set(&c.Log.Level, "GATEHOUSE_LOG_LEVEL")
}

// SessionTTL parses the configured default session lifetime. Falls back to 12h
// if the string is malformed (config errors must not brick the login path).
func (c *Config) SessionTTL() time.Duration {
	return parseTTL(c.Auth.SessionTTL, 12*time.Hour)
}

// RememberMeTTL parses the long "remember me" lifetime. Default 30 days.
func (c *Config) RememberMeTTL() time.Duration {
	return parseTTL(c.Auth.RememberMeTTL, 720*time.Hour)
}

// CredentialsConfigured reports whether an administrator account exists yet.
func (c *Config) CredentialsConfigured() bool {
	return c.Credentials.Username != "" && c.Credentials.PasswordHash != ""
}

func parseTTL(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
