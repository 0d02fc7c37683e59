// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	Queue       QueueConfig
	AWS         AWSConfig
	AI          AIConfig
	Pipeline    PipelineConfig
	Email       EmailConfig
	I18n        I18nConfig
	CORS        CORSConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	RateLimit    float64 // requests per second per client
	RateBurst    int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type QueueConfig struct {
	Enabled     bool
	RunWorker   bool // consume tasks in this process as well as enqueue them
	Concurrency int
	Queue       string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

// AIConfig points at the research, copy, image and video endpoints.
type AIConfig struct {
	BaseURL         string
	APIKey          string
	ResearchTimeout time.Duration
	CopyTimeout     time.Duration
	ImageTimeout    time.Duration
	VideoTimeout    time.Duration
	RatePerSecond   float64
	RateBurst       int
	ImageModel      string
	VideoModel      string
}

type PipelineConfig struct {
	Language             string
	Tone                 string
	ImageConcurrency     int
	VideoDurationSeconds int
	StaleRunAfter        time.Duration
}

type EmailConfig struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

type I18nConfig struct {
	DefaultLocale string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			RateLimit:    getEnvAsFloat("SERVER_RATE_LIMIT", 10),
			RateBurst:    getEnvAsInt("SERVER_RATE_BURST", 20),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "listing_studio"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Queue: QueueConfig{
			Enabled:     getEnvAsBool("QUEUE_ENABLED", false),
			RunWorker:   getEnvAsBool("QUEUE_RUN_WORKER", true),
			Concurrency: getEnvAsInt("QUEUE_CONCURRENCY", 4),
			Queue:       getEnv("QUEUE_NAME", "listings"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "eu-west-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", ""),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		AI: AIConfig{
			BaseURL:         strings.TrimRight(getEnv("AI_BASE_URL", "http://localhost:54321/functions/v1"), "/"),
			APIKey:          getEnv("AI_API_KEY", ""),
			ResearchTimeout: getEnvAsDuration("AI_RESEARCH_TIMEOUT", 60*time.Second),
			CopyTimeout:     getEnvAsDuration("AI_COPY_TIMEOUT", 90*time.Second),
			ImageTimeout:    getEnvAsDuration("AI_IMAGE_TIMEOUT", 120*time.Second),
			VideoTimeout:    getEnvAsDuration("AI_VIDEO_TIMEOUT", 300*time.Second),
			RatePerSecond:   getEnvAsFloat("AI_RATE_PER_SECOND", 2),
			RateBurst:       getEnvAsInt("AI_RATE_BURST", 4),
			ImageModel:      getEnv("AI_IMAGE_MODEL", "nano-banana-pro"),
			VideoModel:      getEnv("AI_VIDEO_MODEL", "veo-3.1-fast"),
		},
		Pipeline: PipelineConfig{
			Language:             getEnv("PIPELINE_LANGUAGE", "EN"),
			Tone:                 getEnv("PIPELINE_TONE", "professional"),
			ImageConcurrency:     getEnvAsInt("PIPELINE_IMAGE_CONCURRENCY", 1),
			VideoDurationSeconds: getEnvAsInt("PIPELINE_VIDEO_DURATION", 6),
			StaleRunAfter:        getEnvAsDuration("PIPELINE_STALE_RUN_AFTER", 30*time.Minute),
		},
		Email: EmailConfig{
			Enabled:      getEnvAsBool("EMAIL_ENABLED", false),
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@listingstudio.app"),
			FromName:     getEnv("FROM_NAME", "Listing Studio"),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.AI.BaseURL == "" {
		return fmt.Errorf("AI_BASE_URL is required")
	}

	if c.Pipeline.ImageConcurrency < 1 {
		return fmt.Errorf("PIPELINE_IMAGE_CONCURRENCY must be at least 1")
	}

	// a run sits in one phase for at most the longest call timeout
	if c.Pipeline.StaleRunAfter <= c.AI.VideoTimeout || c.Pipeline.StaleRunAfter <= c.AI.ImageTimeout {
		return fmt.Errorf("PIPELINE_STALE_RUN_AFTER must exceed the AI call timeouts")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (r *RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
