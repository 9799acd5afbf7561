package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadJobEnv(t *testing.T) {
	t.Setenv(EnvJobKey, "1/2/3")
	t.Setenv(EnvJobAuth, "abcd")
	t.Setenv(EnvStorage, "storage-url")
	t.Setenv(EnvUserAgent, "")

	env := LoadJobEnv()
	if env.JobKey != "1/2/3" || env.Auth != "abcd" || env.Endpoint != "storage-url" {
		t.Errorf("unexpected job env: %+v", env)
	}
	if env.UserAgent != "" {
		t.Errorf("expected empty user agent, got %q", env.UserAgent)
	}

	got := env.Environ()
	want := []string{"SHUB_JOBKEY=1/2/3", "SHUB_JOBAUTH=abcd", "SHUB_STORAGE=storage-url"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "")
	t.Setenv("SEED_FILE", "")
	t.Setenv("REQUIRE_AUTH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8123" {
		t.Errorf("unexpected port: %s", cfg.Port)
	}
	if !cfg.RequireAuth {
		t.Error("expected auth to be required by default")
	}
	if len(cfg.Seed.Projects) != 0 {
		t.Errorf("expected empty seed, got %d projects", len(cfg.Seed.Projects))
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	data := `
projects:
  - id: "1"
    name: demo
    jobs:
      - key: 1/2/3
        spider: example
        secret: authstr
        metadata:
          priority: "2"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEED_FILE", path)
	t.Setenv("REQUIRE_AUTH", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.RequireAuth {
		t.Error("expected auth to be disabled")
	}
	if len(cfg.Seed.Projects) != 1 || len(cfg.Seed.Projects[0].Jobs) != 1 {
		t.Fatalf("unexpected seed: %+v", cfg.Seed)
	}
	job := cfg.Seed.Projects[0].Jobs[0]
	if job.Key != "1/2/3" || job.Secret != "authstr" || job.Metadata["priority"] != "2" {
		t.Errorf("unexpected job seed: %+v", job)
	}
}

func TestLoadSeedFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("projects: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEED_FILE", path)

	if _, err := Load(); err == nil {
		t.Error("expected error for malformed seed file")
	}
}

func TestParseLogLevel(t *testing.T) {
	if ParseLogLevel("debug") != slog.LevelDebug {
		t.Error("expected debug level")
	}
	if ParseLogLevel("WARN") != slog.LevelWarn {
		t.Error("expected warn level")
	}
	if ParseLogLevel("bogus") != slog.LevelInfo {
		t.Error("expected info fallback")
	}
}
