package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
calendars:
  dir: config/calendars
  start_year: 2020
  end_year: 2025
cache:
  ttl: 30m
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "test" {
		t.Fatalf("unexpected environment %q", cfg.Environment)
	}
	if cfg.Calendars.StartYear != 2020 || cfg.Calendars.EndYear != 2025 {
		t.Fatalf("unexpected window %d..%d", cfg.Calendars.StartYear, cfg.Calendars.EndYear)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Fatalf("unexpected ttl %v", cfg.Cache.TTL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"missing environment",
			"calendars:\n  dir: x\n  start_year: 2020\n  end_year: 2021\n",
			"environment",
		},
		{
			"missing source",
			"environment: test\ncalendars:\n  start_year: 2020\n  end_year: 2021\n",
			"calendars.dir",
		},
		{
			"inverted window",
			"environment: test\ncalendars:\n  dir: x\n  start_year: 2025\n  end_year: 2020\n",
			"end_year",
		},
		{
			"kafka without brokers",
			"environment: test\ncalendars:\n  dir: x\n  start_year: 2020\n  end_year: 2021\nkafka:\n  enabled: true\n  topic: t\n",
			"kafka.brokers",
		},
		{
			"audit without host",
			"environment: test\ncalendars:\n  dir: x\n  start_year: 2020\n  end_year: 2021\naudit:\n  enabled: true\n",
			"audit.host",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestURLSatisfiesSourceRequirement(t *testing.T) {
	body := "environment: test\ncalendars:\n  url: http://example.com/calendars\n  start_year: 2020\n  end_year: 2021\n"
	if _, err := Load(writeConfig(t, body)); err != nil {
		t.Fatalf("url-only source should validate: %v", err)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("CALENDARS_DIR", "/srv/calendars")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Calendars.Dir != "/srv/calendars" {
		t.Fatalf("env override missed: %q", cfg.Calendars.Dir)
	}
	if cfg.Cache.Redis.Addr != "redis:6379" {
		t.Fatalf("env override missed: %q", cfg.Cache.Redis.Addr)
	}
}
