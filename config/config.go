package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the process reads from the environment. A .env
// file is loaded first when present; every value has a development default
// except the Mongo URI and the JWT secret.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string

	// ChangeChannel is the Redis pub/sub channel mutations announce on.
	ChangeChannel string

	JWTSecret   string
	Environment string
	Domain      string

	PollInterval       time.Duration
	ValidationInterval time.Duration

	// DailyIssueLimit caps submissions per user per 24h window.
	DailyIssueLimit int
	RateLimitPrefix string
}

// Load reads the environment into a Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MongoURI:           getEnv("MONGODB_URI", ""),
		MongoDB:            getEnv("MONGODB_DATABASE", "civicsync"),
		RedisAddr:          getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		ChangeChannel:      getEnv("REDIS_CHANGE_CHANNEL", "civicsync:changes"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		Environment:        getEnv("GO_ENV", "development"),
		Domain:             getEnv("DOMAIN", ""),
		PollInterval:       getDuration("POLL_INTERVAL", 30*time.Second),
		ValidationInterval: getDuration("VALIDATION_INTERVAL", time.Minute),
		DailyIssueLimit:    getInt("DAILY_ISSUE_LIMIT", 5),
		RateLimitPrefix:    getEnv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "civicsync:issue-limit"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Invalid value for %s, using default %d", key, fallback)
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid value for %s, using default %s", key, fallback)
	}
	return fallback
}
