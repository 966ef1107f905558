package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	APNS       APNSConfig       `yaml:"apns"`
	Crossing   CrossingConfig   `yaml:"crossing"`
	TokenSweep TokenSweepConfig `yaml:"token_sweep"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Presence   PresenceConfig   `yaml:"presence"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// JWTConfig holds access and refresh token configuration
type JWTConfig struct {
	Secret           string `yaml:"secret"`
	AccessTTLMinutes int    `yaml:"access_ttl_minutes"`
	RefreshTTLDays   int    `yaml:"refresh_ttl_days"`
}

// APNSConfig holds push notification credentials. An empty KeyFile
// disables push delivery.
type APNSConfig struct {
	KeyFile    string `yaml:"key_file"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// CrossingConfig holds the crossing detector schedule and threshold
type CrossingConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	RadiusMeters    float64 `yaml:"radius_meters"`
}

// TokenSweepConfig holds the refresh token expiry sweep schedule
type TokenSweepConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// RateLimitConfig holds the sliding window admission parameters
type RateLimitConfig struct {
	WindowSeconds int `yaml:"window_seconds"`
	MaxRequests   int `yaml:"max_requests"`
}

// PresenceConfig controls live connection replacement behavior
type PresenceConfig struct {
	CloseReplaced bool `yaml:"close_replaced"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.JWT.AccessTTLMinutes <= 0 {
		c.JWT.AccessTTLMinutes = 30
	}
	if c.JWT.RefreshTTLDays <= 0 {
		c.JWT.RefreshTTLDays = 7
	}
	if c.Crossing.IntervalSeconds <= 0 {
		c.Crossing.IntervalSeconds = 60
	}
	if c.Crossing.RadiusMeters <= 0 {
		c.Crossing.RadiusMeters = 100
	}
	if c.TokenSweep.IntervalSeconds <= 0 {
		c.TokenSweep.IntervalSeconds = 3600
	}
	if c.RateLimit.WindowSeconds <= 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = 30
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Interval returns the crossing scan interval as a duration
func (c *CrossingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Interval returns the sweep interval as a duration
func (c *TokenSweepConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Window returns the rate limit window as a duration
func (c *RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}
