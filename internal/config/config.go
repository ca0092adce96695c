// Package config handles application configuration from environment
// variables, an optional .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	PMSBaseURL     string
	CacheTTL       time.Duration
	HTTPTimeout    time.Duration
	RefreshTimeout time.Duration

	RenderWidth     int
	RenderRowHeight int
	RenderFontPath  string
	RenderFontSize  float64
}

// fileConfig is the YAML layout. Pointers tell "unset" from zero.
type fileConfig struct {
	Port     *string `yaml:"port"`
	Env      *string `yaml:"env"`
	LogLevel *string `yaml:"log_level"`
	PMS      struct {
		BaseURL               *string `yaml:"base_url"`
		CacheTTLMillis        *int    `yaml:"cache_ttl_ms"`
		HTTPTimeoutSeconds    *int    `yaml:"http_timeout_seconds"`
		RefreshTimeoutSeconds *int    `yaml:"refresh_timeout_seconds"`
	} `yaml:"pms"`
	Render struct {
		Width     *int     `yaml:"width"`
		RowHeight *int     `yaml:"row_height"`
		FontPath  *string  `yaml:"font_path"`
		FontSize  *float64 `yaml:"font_size"`
	} `yaml:"render"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:            "3000",
		Env:             "development",
		LogLevel:        "info",
		PMSBaseURL:      "http://pms.sustc.edu.cn",
		CacheTTL:        60 * time.Second,
		HTTPTimeout:     10 * time.Second,
		RefreshTimeout:  30 * time.Second,
		RenderWidth:     750,
		RenderRowHeight: 30,
		RenderFontSize:  14,
	}
}

// Load reads .env (if present), then the YAML file named by
// PMS_CONFIG_FILE (if set), then environment variables. Later sources win.
func Load() (*Config, error) {
	return load(".env")
}

func load(dotenvPath string) (*Config, error) {
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", dotenvPath, err)
	}

	cfg := Default()
	if path := os.Getenv("PMS_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	setString(&c.Port, fc.Port)
	setString(&c.Env, fc.Env)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.PMSBaseURL, fc.PMS.BaseURL)
	if fc.PMS.CacheTTLMillis != nil {
		c.CacheTTL = time.Duration(*fc.PMS.CacheTTLMillis) * time.Millisecond
	}
	if fc.PMS.HTTPTimeoutSeconds != nil {
		c.HTTPTimeout = time.Duration(*fc.PMS.HTTPTimeoutSeconds) * time.Second
	}
	if fc.PMS.RefreshTimeoutSeconds != nil {
		c.RefreshTimeout = time.Duration(*fc.PMS.RefreshTimeoutSeconds) * time.Second
	}
	if fc.Render.Width != nil {
		c.RenderWidth = *fc.Render.Width
	}
	if fc.Render.RowHeight != nil {
		c.RenderRowHeight = *fc.Render.RowHeight
	}
	setString(&c.RenderFontPath, fc.Render.FontPath)
	if fc.Render.FontSize != nil {
		c.RenderFontSize = *fc.Render.FontSize
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Env = getEnv("ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.PMSBaseURL = getEnv("PMS_BASE_URL", c.PMSBaseURL)
	c.CacheTTL = getDurationEnv("CACHE_TTL_MS", c.CacheTTL, time.Millisecond)
	c.HTTPTimeout = getDurationEnv("HTTP_TIMEOUT_SECONDS", c.HTTPTimeout, time.Second)
	c.RefreshTimeout = getDurationEnv("REFRESH_TIMEOUT_SECONDS", c.RefreshTimeout, time.Second)
	c.RenderWidth = getIntEnv("RENDER_WIDTH", c.RenderWidth)
	c.RenderRowHeight = getIntEnv("RENDER_ROW_HEIGHT", c.RenderRowHeight)
	c.RenderFontPath = getEnv("RENDER_FONT_PATH", c.RenderFontPath)
	if value := os.Getenv("RENDER_FONT_SIZE"); value != "" {
		if size, err := strconv.ParseFloat(value, 64); err == nil {
			c.RenderFontSize = size
		}
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// SlogLevel parses LogLevel, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	u, err := url.Parse(c.PMSBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("PMS_BASE_URL %q is not an http(s) URL", c.PMSBaseURL)
	}
	if c.Port == "" {
		return errors.New("PORT is empty")
	}
	if c.CacheTTL <= 0 {
		return errors.New("CACHE_TTL_MS must be positive")
	}
	if c.HTTPTimeout <= 0 || c.RefreshTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.RenderWidth <= 0 || c.RenderRowHeight <= 0 {
		return errors.New("render width and row height must be positive")
	}
	if c.RenderFontPath != "" && c.RenderFontSize <= 0 {
		return errors.New("RENDER_FONT_SIZE must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue, unit time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * unit
		}
	}
	return defaultValue
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
