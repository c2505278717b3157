// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Store       StoreConfig
	AWS         AWSConfig
	Media       MediaConfig
	Events      EventsConfig
	Allocator   AllocatorConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type StoreConfig struct {
	// RqliteURL empty means the in-memory store (local development).
	RqliteURL   string
	Consistency string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
}

type MediaConfig struct {
	PlaceholderObject string
	SignedURLTTLMins  int
	MetadataTimeoutMS int
}

type EventsConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Topic         string
}

type AllocatorConfig struct {
	// Strategy is "scan" (max+1 scan, low-concurrency only) or
	// "counter" (atomic counter document).
	Strategy string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Store: StoreConfig{
			RqliteURL:   getEnv("RQLITE_URL", ""),
			Consistency: getEnv("RQLITE_CONSISTENCY", "weak"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "storefront-media"),
		},
		Media: MediaConfig{
			PlaceholderObject: getEnv("MEDIA_PLACEHOLDER_OBJECT", "coming-soon.jpg"),
			SignedURLTTLMins:  getEnvAsInt("MEDIA_SIGNED_URL_TTL_MINUTES", 60),
			MetadataTimeoutMS: getEnvAsInt("MEDIA_METADATA_TIMEOUT_MS", 2000),
		},
		Events: EventsConfig{
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			Topic:         getEnv("EVENTS_TOPIC", "storefront.products"),
		},
		Allocator: AllocatorConfig{
			Strategy: getEnv("ID_ALLOCATOR", "scan"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.Allocator.Strategy != "scan" && c.Allocator.Strategy != "counter" {
		return fmt.Errorf("ID_ALLOCATOR must be \"scan\" or \"counter\", got %q", c.Allocator.Strategy)
	}
	if c.Environment == "production" && c.Allocator.Strategy == "scan" {
		return fmt.Errorf("the scan allocator hands out duplicate ids under concurrency; use ID_ALLOCATOR=counter in production")
	}
	if c.Media.SignedURLTTLMins < 1 {
		return fmt.Errorf("MEDIA_SIGNED_URL_TTL_MINUTES must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
