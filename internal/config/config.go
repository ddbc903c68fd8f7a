package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the API server and gradectl read from the
// environment. A YAML file may override any of them.
type Config struct {
	Port                  int    `yaml:"port"`
	DatabaseURL           string `yaml:"database_url"`
	GradesDir             string `yaml:"grades_dir"`
	FirebaseConfig        string `yaml:"firebase_config"`
	StorageBucket         string `yaml:"storage_bucket"`
	AdminAPIKey           string `yaml:"admin_api_key"`
	LogLevel              string `yaml:"log_level"`
	APIKeyCacheTTLSeconds int    `yaml:"api_key_cache_ttl_seconds"`
	RateLimitSweepSeconds int    `yaml:"rate_limit_sweep_seconds"`
}

// New reads the environment, falling back to defaults for unset values.
func New() *Config {
	return &Config{
		Port:                  getEnvAsInt("PORT", 8080),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		GradesDir:             getEnv("GRADES_DIR", ""),
		FirebaseConfig:        getEnv("FIREBASE_CONFIG", ""),
		StorageBucket:         getEnv("FIREBASE_STORAGE_BUCKET", ""),
		AdminAPIKey:           getEnv("ADMIN_API_KEY", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		APIKeyCacheTTLSeconds: getEnvAsInt("API_KEY_CACHE_TTL_SECONDS", 300),
		RateLimitSweepSeconds: getEnvAsInt("RATE_LIMIT_SWEEP_SECONDS", 60),
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// APIKeyCacheTTL is how long a validated key is trusted without a lookup.
func (c *Config) APIKeyCacheTTL() time.Duration {
	return positiveSeconds(c.APIKeyCacheTTLSeconds, 5*time.Minute)
}

func (c *Config) RateLimitSweepInterval() time.Duration {
	return positiveSeconds(c.RateLimitSweepSeconds, time.Minute)
}

func positiveSeconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}
