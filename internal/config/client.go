package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backends accepted by ClientConfig.CacheBackend.
const (
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// ClientConfig configures the fitroute CLI and the reconciliation core it drives.
type ClientConfig struct {
	APIURL         string        `mapstructure:"API_URL"`
	CacheBackend   string        `mapstructure:"CACHE_BACKEND"`
	CacheDir       string        `mapstructure:"CACHE_DIR"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
}

// NewClientViper returns a viper instance with the client defaults and
// FITROUTE_-prefixed environment binding. Callers may bind flags onto it
// before passing it to LoadClient.
func NewClientViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("FITROUTE")
	v.AutomaticEnv()

	v.SetDefault("API_URL", "http://localhost:3000")
	v.SetDefault("CACHE_BACKEND", CacheFile)
	v.SetDefault("CACHE_DIR", defaultCacheDir())
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REQUEST_TIMEOUT", 10*time.Second)
	v.SetDefault("LOG_LEVEL", "warn")
	return v
}

// LoadClient decodes v into a ClientConfig and validates it.
func LoadClient(v *viper.Viper) (ClientConfig, error) {
	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("config.LoadClient: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.CacheBackend = strings.ToLower(cfg.CacheBackend)

	var problems []string
	if cfg.APIURL == "" {
		problems = append(problems, "FITROUTE_API_URL is required")
	}
	switch cfg.CacheBackend {
	case CacheMemory, CacheFile, CacheRedis:
	default:
		problems = append(problems, fmt.Sprintf("FITROUTE_CACHE_BACKEND %q is not one of memory, file, redis", cfg.CacheBackend))
	}
	if cfg.CacheBackend == CacheFile && cfg.CacheDir == "" {
		problems = append(problems, "FITROUTE_CACHE_DIR is required for the file cache")
	}
	if cfg.RequestTimeout <= 0 {
		problems = append(problems, "FITROUTE_REQUEST_TIMEOUT must be positive")
	}

	if len(problems) > 0 {
		return ClientConfig{}, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "fitroute")
	}
	return filepath.Join(os.TempDir(), "fitroute")
}
