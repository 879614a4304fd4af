package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FileWithDefaults(t *testing.T) {
	path := writeConfigFile(t, `
postgres_dsn: "postgres://localhost/analytics?sslmode=disable"
dashboard_key: "s3cret"
log_level: "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.PostgresDSN != "postgres://localhost/analytics?sslmode=disable" {
		t.Errorf("dsn = %q", cfg.PostgresDSN)
	}
	if cfg.DashboardKey != "s3cret" {
		t.Errorf("key = %q", cfg.DashboardKey)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	// Untouched fields keep their defaults.
	if cfg.ListenAddr != ":8080" || cfg.LogFormat != "json" || cfg.TimelineDays != 90 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
postgres_dsn: "postgres://file/db"
dashboard_key: "from-file"
`)
	t.Setenv("UAS_DASHBOARD_KEY", "from-env")
	t.Setenv("UAS_LISTEN_ADDR", ":9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DashboardKey != "from-env" {
		t.Errorf("key = %q, want env value", cfg.DashboardKey)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("listen addr = %q, want env value", cfg.ListenAddr)
	}
	if cfg.PostgresDSN != "postgres://file/db" {
		t.Errorf("dsn = %q, want file value", cfg.PostgresDSN)
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no dsn", `dashboard_key: "k"`},
		{"no key", `postgres_dsn: "postgres://localhost/db"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, tc.yaml)
			if _, err := Load(path); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_BadTimelineDaysFallsBack(t *testing.T) {
	path := writeConfigFile(t, `
postgres_dsn: "postgres://localhost/db"
dashboard_key: "k"
timeline_days: -3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TimelineDays != 90 {
		t.Errorf("timeline days = %d, want fallback 90", cfg.TimelineDays)
	}
}

func TestLoad_UnreadableFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for explicit missing file")
	}
}
