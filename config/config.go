package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	GinMode        string
	DatabaseURL    string
	DataDir        string
	DevMode        bool
	RateLimitRPS   float64
	RateLimitBurst int
	CacheSize      int
}

// Load reads .env.development or .env when present, then the environment
func Load() *Config {
	// Local development file wins over the regular .env
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}

	return FromEnv()
}

// FromEnv builds the configuration from environment variables only
func FromEnv() *Config {
	return &Config{
		Port:           getEnv("PORT", "8082"),
		GinMode:        getEnv("GIN_MODE", "release"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DataDir:        getEnv("DATA_DIR", "data"),
		DevMode:        getEnv("DEV_MODE", "") == "true",
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 5),
		CacheSize:      getInt("CACHE_SIZE", 1000),
	}
}

// PersistenceEnabled reports whether analyses can be saved
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		log.Printf("Ignoring invalid %s=%q, using %v", key, value, fallback)
		return fallback
	}
	return f
}

func getInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Ignoring invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}
