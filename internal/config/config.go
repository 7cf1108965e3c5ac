package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	DataDir           string
	Env               string
	AllowedOrigin     string
	StarboardInterval time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads configuration from a .env file (if present, without
// overriding real environment variables) and the environment.
func Load() Config {
	_ = godotenv.Load()

	interval := 60 * time.Second
	if v := os.Getenv("STARBOARD_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		}
	}

	return Config{
		Addr:              ":" + getenv("PORT", "3012"),
		DataDir:           getenv("DATA_DIR", "./data"),
		Env:               getenv("APP_ENV", "dev"),
		AllowedOrigin:     getenv("ALLOWED_ORIGIN", ""),
		StarboardInterval: interval,
	}
}
