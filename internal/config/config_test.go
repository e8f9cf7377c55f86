package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	uploads := filepath.Join(t.TempDir(), "uploads")
	dir := writeConfig(t, `
database:
  driver: sqlite
jwt:
  secret: dev
storage:
  local_path: `+uploads+`
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Server.Mode != "debug" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.JWT.ExpireTime != 24*time.Hour {
		t.Errorf("jwt expire = %v, want 24h", cfg.JWT.ExpireTime)
	}
	if cfg.Image.Width != 300 || cfg.Image.Height != 200 || cfg.Image.Processor != "native" {
		t.Errorf("image = %+v", cfg.Image)
	}
	if !cfg.Quiz.AllowRetakes || cfg.Quiz.MaxImportBytes != 2<<20 || cfg.Quiz.RecentAttempts != 20 || !cfg.Quiz.DedupeSubmissions {
		t.Errorf("quiz = %+v", cfg.Quiz)
	}
	if cfg.ConfigDir != dir {
		t.Errorf("config dir = %q, want %q", cfg.ConfigDir, dir)
	}
	if _, err := os.Stat(uploads); err != nil {
		t.Errorf("local storage dir not created: %v", err)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"short secret in release", "server:\n  mode: release\njwt:\n  secret: short\n", "JWT secret is too short"},
		{"unknown mode", "server:\n  mode: staging\n", "unsupported server mode"},
		{"unknown driver", "database:\n  driver: oracle\n", "unsupported database driver"},
		{"unknown processor", "database:\n  driver: sqlite\nimage:\n  processor: gimp\n", "unsupported image processor"},
		{"zero image size", "database:\n  driver: sqlite\nimage:\n  width: 0\n", "image size must be positive"},
		{"zero import size", "database:\n  driver: sqlite\nquiz:\n  max_import_bytes: 0\n", "max_import_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body + "storage:\n  local_path: " + filepath.Join(t.TempDir(), "u") + "\n"
			_, err := LoadConfig(writeConfig(t, body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, "database:\n  driver: sqlite\nstorage:\n  local_path: "+filepath.Join(t.TempDir(), "u")+"\n")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_DRIVER", "postgres")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("jwt secret = %q, want from-env", cfg.JWT.Secret)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q, want postgres", cfg.Database.Driver)
	}
}
