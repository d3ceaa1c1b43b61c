package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment. A .env file
// in the working directory is honoured when present.
type Config struct {
	Port      string
	DBPath    string
	CacheDir  string
	CacheTTL  time.Duration
	PageSize  int
	LogLevel  string
	ERPDriver string
	ERPDSN    string
}

// Load reads the environment (and an optional .env file) into a Config.
func Load() Config {
	godotenv.Load()

	return Config{
		Port:      getenv("PORT", "8080"),
		DBPath:    getenv("DB_PATH", "lossprev.db"),
		CacheDir:  getenv("CACHE_DIR", "cache"),
		CacheTTL:  getenvDuration("CACHE_TTL", time.Hour),
		PageSize:  getenvInt("PAGE_SIZE", 50),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		ERPDriver: getenv("ERP_DRIVER", "mysql"),
		ERPDSN:    os.Getenv("ERP_DSN"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
