// Package app provides application-level configuration and initialization.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lazyvibe/axial/internal/model"
)

// Config holds the application configuration.
type Config struct {
	// APIURL is the base URL of the detection service's session API.
	APIURL string `json:"api_url"`
	// StreamURL is the base URL of the status stream. Empty means APIURL.
	StreamURL string `json:"stream_url,omitempty"`
	// RequestTimeoutSec bounds each start/stop call.
	RequestTimeoutSec int `json:"request_timeout_sec,omitempty"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`
	// LogFile overrides the log path. Empty means <config dir>/axial.log.
	LogFile string `json:"log_file,omitempty"`
	// MaxToasts caps how many transient notifications are shown at once.
	MaxToasts int `json:"max_toasts,omitempty"`
	// Notifications configures native popups and webhooks.
	Notifications model.NotificationConfig `json:"notifications"`
	// Session is the last channel selection.
	Session model.SessionConfig `json:"session"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		APIURL:            "http://localhost:8000",
		RequestTimeoutSec: 10,
		LogLevel:          "info",
		MaxToasts:         5,
		Notifications: model.NotificationConfig{
			Desktop:        true,
			DedupWindowSec: 30,
			RatePerMin:     12,
		},
		Session: model.DefaultSessionConfig(),
	}
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/axial (or the platform equivalent).
func DefaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "axial")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".axial")
}

// ConfigPath returns the path to the config file.
func ConfigPath(configDir string) string {
	return filepath.Join(configDir, "config.json")
}

// LoadConfig loads the configuration from disk, then applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(configDir string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(ConfigPath(configDir))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", ConfigPath(configDir), err)
		}
	}

	config.ApplyEnv()
	return config, nil
}

// SaveConfig saves the configuration to disk.
func SaveConfig(configDir string, config *Config) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(ConfigPath(configDir), data, 0644)
}

// LoadDotEnv loads a .env file from the working directory if present.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// ApplyEnv overrides fields from AXIAL_* environment variables.
func (c *Config) ApplyEnv() {
	c.APIURL = getEnv("AXIAL_API_URL", c.APIURL)
	c.StreamURL = getEnv("AXIAL_STREAM_URL", c.StreamURL)
	c.LogLevel = getEnv("AXIAL_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("AXIAL_LOG_FILE", c.LogFile)
	c.RequestTimeoutSec = getEnvAsInt("AXIAL_REQUEST_TIMEOUT_SEC", c.RequestTimeoutSec)
	c.Notifications.Desktop = getEnvAsBool("AXIAL_DESKTOP_NOTIFICATIONS", c.Notifications.Desktop)
	c.Notifications.WebhookURL = getEnv("AXIAL_WEBHOOK_URL", c.Notifications.WebhookURL)
}

// Validate checks the URLs and numeric limits.
func (c *Config) Validate() error {
	if err := checkURL("api_url", c.APIURL, "http", "https"); err != nil {
		return err
	}
	if c.StreamURL != "" {
		if err := checkURL("stream_url", c.StreamURL, "http", "https", "ws", "wss"); err != nil {
			return err
		}
	}
	if c.Notifications.WebhookURL != "" {
		if err := checkURL("notifications.webhook_url", c.Notifications.WebhookURL, "http", "https"); err != nil {
			return err
		}
	}
	if c.RequestTimeoutSec < 0 {
		return fmt.Errorf("request_timeout_sec must not be negative")
	}
	if c.MaxToasts < 0 {
		return fmt.Errorf("max_toasts must not be negative")
	}
	return nil
}

// StreamBase returns the stream base URL, defaulting to the API URL.
func (c *Config) StreamBase() string {
	if c.StreamURL != "" {
		return c.StreamURL
	}
	return c.APIURL
}

// RequestTimeout returns the per-call timeout for the session API.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// LogPath returns the log file location.
func (c *Config) LogPath(configDir string) string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(configDir, "axial.log")
}

func checkURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s: %q is not a valid %s url", field, raw, strings.Join(schemes, "/"))
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
