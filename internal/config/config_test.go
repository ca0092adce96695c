package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment does
// not leak into the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "PMS_BASE_URL", "PMS_CONFIG_FILE",
		"CACHE_TTL_MS", "HTTP_TIMEOUT_SECONDS", "REFRESH_TIMEOUT_SECONDS",
		"RENDER_WIDTH", "RENDER_ROW_HEIGHT", "RENDER_FONT_PATH", "RENDER_FONT_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CacheTTL != 60*time.Second {
		t.Errorf("CacheTTL = %v, want 60s", cfg.CacheTTL)
	}
	if cfg.RenderWidth != 750 || cfg.RenderRowHeight != 30 {
		t.Errorf("render = %dx%d, want 750x30", cfg.RenderWidth, cfg.RenderRowHeight)
	}
	if cfg.PMSBaseURL != "http://pms.sustc.edu.cn" {
		t.Errorf("PMSBaseURL = %q", cfg.PMSBaseURL)
	}
	if !cfg.IsDevelopment() {
		t.Error("default env should be development")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("CACHE_TTL_MS", "1500")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("RENDER_ROW_HEIGHT", "40")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.CacheTTL != 1500*time.Millisecond {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.RenderRowHeight != 40 {
		t.Errorf("RenderRowHeight = %d", cfg.RenderRowHeight)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v", cfg.SlogLevel())
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "pms.yaml", `
port: "9000"
env: production
pms:
  base_url: https://pms.example.edu
  cache_ttl_ms: 30000
  refresh_timeout_seconds: 5
render:
  width: 900
  font_path: /usr/share/fonts/noto.ttf
`)
	t.Setenv("PMS_CONFIG_FILE", path)
	t.Setenv("PORT", "9100")

	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("Port = %q, environment should beat YAML", cfg.Port)
	}
	if cfg.Env != "production" || cfg.IsDevelopment() {
		t.Errorf("Env = %q", cfg.Env)
	}
	if cfg.PMSBaseURL != "https://pms.example.edu" {
		t.Errorf("PMSBaseURL = %q", cfg.PMSBaseURL)
	}
	if cfg.CacheTTL != 30*time.Second || cfg.RefreshTimeout != 5*time.Second {
		t.Errorf("CacheTTL = %v RefreshTimeout = %v", cfg.CacheTTL, cfg.RefreshTimeout)
	}
	if cfg.RenderWidth != 900 || cfg.RenderRowHeight != 30 {
		t.Errorf("render = %dx%d", cfg.RenderWidth, cfg.RenderRowHeight)
	}
	if cfg.RenderFontPath != "/usr/share/fonts/noto.ttf" {
		t.Errorf("RenderFontPath = %q", cfg.RenderFontPath)
	}
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("PMS_CONFIG_FILE", writeFile(t, "bad.yaml", "pms: [unclosed"))

	if _, err := load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadDotenv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("PMS_BASE_URL")
	t.Cleanup(func() { os.Unsetenv("PMS_BASE_URL") })

	path := writeFile(t, ".env", "PMS_BASE_URL=http://127.0.0.1:8081\n")
	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PMSBaseURL != "http://127.0.0.1:8081" {
		t.Errorf("PMSBaseURL = %q, want value from .env", cfg.PMSBaseURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad url", func(c *Config) { c.PMSBaseURL = "pms.sustc.edu.cn" }},
		{"ftp url", func(c *Config) { c.PMSBaseURL = "ftp://pms" }},
		{"zero ttl", func(c *Config) { c.CacheTTL = 0 }},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }},
		{"zero width", func(c *Config) { c.RenderWidth = 0 }},
		{"font without size", func(c *Config) { c.RenderFontPath = "x.ttf"; c.RenderFontSize = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
