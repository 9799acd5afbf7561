package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Job environment variables exported by the scheduler into every job process.
const (
	EnvJobKey    = "SHUB_JOBKEY"
	EnvJobAuth   = "SHUB_JOBAUTH"
	EnvStorage   = "SHUB_STORAGE"
	EnvUserAgent = "SHUB_HS_USER_AGENT"
)

// JobEnv is the job context as found in the process environment.
// Empty fields mean the variable was not set.
type JobEnv struct {
	JobKey    string
	Auth      string // hex encoded "<jobkey>:<secret>"
	Endpoint  string
	UserAgent string
}

// LoadJobEnv reads the job context from the environment.
func LoadJobEnv() JobEnv {
	return JobEnv{
		JobKey:    os.Getenv(EnvJobKey),
		Auth:      os.Getenv(EnvJobAuth),
		Endpoint:  os.Getenv(EnvStorage),
		UserAgent: os.Getenv(EnvUserAgent),
	}
}

// Environ renders the set fields as KEY=value pairs.
func (e JobEnv) Environ() []string {
	var env []string
	for _, kv := range [][2]string{
		{EnvJobKey, e.JobKey},
		{EnvJobAuth, e.Auth},
		{EnvStorage, e.Endpoint},
		{EnvUserAgent, e.UserAgent},
	} {
		if kv[1] != "" {
			env = append(env, kv[0]+"="+kv[1])
		}
	}
	return env
}

type JobSeed struct {
	Key      string            `yaml:"key"`
	Spider   string            `yaml:"spider"`
	Secret   string            `yaml:"secret"`
	State    string            `yaml:"state"`
	Metadata map[string]string `yaml:"metadata"`
}

type ProjectSeed struct {
	ID   string    `yaml:"id"`
	Name string    `yaml:"name"`
	Jobs []JobSeed `yaml:"jobs"`
}

type SeedConfig struct {
	Projects []ProjectSeed `yaml:"projects"`
}

// Config configures the storage emulator.
type Config struct {
	Port        string
	SeedFile    string
	LogLevel    string
	RequireAuth bool
	Seed        *SeedConfig
}

func Load() (*Config, error) {
	// .env.local is optional
	_ = godotenv.Load(".env.local")

	cfg := &Config{
		Port:        getEnv("PORT", "8123"),
		SeedFile:    getEnv("SEED_FILE", "./hubstorage.yaml"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		RequireAuth: getEnvBool("REQUIRE_AUTH", true),
	}

	seed, err := loadSeedConfig(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("loading seed config: %w", err)
	}
	cfg.Seed = seed

	return cfg, nil
}

func loadSeedConfig(path string) (*SeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No seed file is fine - the emulator starts empty
			return &SeedConfig{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg SeedConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// ParseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
