package config

import (
	"strings"
	"time"
)

// Config represents the complete configuration structure
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the remote torrent client connection details. The
// password field is optional: when empty, the credential is looked up in the
// OS keychain instead of the config file.
type ServerConfig struct {
	Client   string `mapstructure:"client"`
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UseHTTPS bool   `mapstructure:"use_https"`
	Timeout  int    `mapstructure:"timeout"` // seconds
}

// BaseURL returns the server URL with a scheme. A scheme already present in
// URL wins; otherwise use_https decides.
func (s ServerConfig) BaseURL() string {
	u := strings.TrimSpace(s.URL)
	if u == "" {
		return ""
	}
	u = strings.TrimRight(u, "/")
	if strings.Contains(u, "://") {
		return u
	}
	if s.UseHTTPS {
		return "https://" + u
	}
	return "http://" + u
}

// TimeoutDuration returns the per-operation timeout, defaulting to 30s.
func (s ServerConfig) TimeoutDuration() time.Duration {
	if s.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

// NotifyConfig holds the notification service URLs relay outcomes are sent to.
type NotifyConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	URLs    []string `mapstructure:"urls"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
