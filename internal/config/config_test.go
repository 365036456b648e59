package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var keys = []string{
	"DB_DRIVER", "DATABASE_URL", "APP_ADDR", "ADMIN_USER", "LOG_PATH", "JWT_SECRET_KEY",
	"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "AMQP_URL",
}

// clearEnv blanks every variable Load reads. godotenv does not override
// variables that are already set, so they are unset rather than emptied.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.DBURL != "inventario.sqlite3" || cfg.Addr != ":8080" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.AdminUser != "admin" {
		t.Errorf("expected admin user 'admin', got %q", cfg.AdminUser)
	}
	if cfg.AccessTTL != time.Hour || cfg.RefreshTTL != 720*time.Hour {
		t.Errorf("unexpected TTLs: %v %v", cfg.AccessTTL, cfg.RefreshTTL)
	}
	if cfg.RedisAddr != "" || cfg.AMQPURL != "" {
		t.Error("expected optional services to be disabled")
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := "DB_DRIVER=mysql\nDATABASE_URL=user:pw@tcp(db:3306)/inventario\nACCESS_TOKEN_TTL=15m\nREDIS_ADDR=redis:6379\nREDIS_DB=2\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// The process environment wins over the file.
	t.Setenv("APP_ADDR", ":9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDriver != "mysql" || cfg.DBURL != "user:pw@tcp(db:3306)/inventario" {
		t.Errorf("unexpected database settings: %q %q", cfg.DBDriver, cfg.DBURL)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Errorf("expected 15m access TTL, got %v", cfg.AccessTTL)
	}
	if cfg.RedisAddr != "redis:6379" || cfg.RedisDB != 2 {
		t.Errorf("unexpected redis settings: %q %d", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("expected env to override file, got %q", cfg.Addr)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"ACCESS_TOKEN_TTL", "soon"},
		{"REFRESH_TOKEN_TTL", "-1h"},
		{"REDIS_DB", "one"},
	}
	for _, tt := range tests {
		clearEnv(t)
		t.Setenv(tt.key, tt.value)
		if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
			t.Errorf("%s=%q: expected error", tt.key, tt.value)
		}
	}
}
