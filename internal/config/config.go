package config

import (
	"errors"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	Listen   string

	// Storage
	DBType     string
	DBDSN      string
	FileSleep  string
	FileHeart  string
	FileWeight string

	// Auth
	AuthToken      string
	AuthServiceURL string

	// Model endpoint
	ModelBaseURL string
	ModelAPIKey  string
	ModelName    string
	ModelTimeout time.Duration

	// Insight pipeline
	InsightCacheTTL     time.Duration
	InsightCacheMaxSize int
	InsightWaitTimeout  time.Duration
	MaxPromptLen        int
	AggregationVersion  string
	PromptVersion       string
	Timezone            string
}

var (
	cfg  *Config
	once sync.Once
)

func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		cfg = &Config{
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
			Listen:   getEnv("LISTEN_ADDR", ":8088"),

			DBType:     getEnv("STORAGE_BACKEND", "file"),
			DBDSN:      getEnv("POSTGRES_DSN", ""),
			FileSleep:  getEnv("SLEEP_FILE", "data/sleep_records.json"),
			FileHeart:  getEnv("HEART_RATE_FILE", "data/heart_rate_records.json"),
			FileWeight: getEnv("WEIGHT_FILE", "data/weight_records.json"),

			AuthToken:      getEnv("AUTH_TOKEN", "MOCK-TOKEN"),
			AuthServiceURL: getEnv("AUTH_SERVICE_URL", ""),

			ModelBaseURL: getEnv("MODEL_BASE_URL", ""),
			ModelAPIKey:  getEnv("MODEL_API_KEY", ""),
			ModelName:    getEnv("MODEL_NAME", "meditron-7b"),
			ModelTimeout: getDuration("MODEL_TIMEOUT", 60*time.Second),

			InsightCacheTTL:     getDuration("INSIGHT_CACHE_TTL", 24*time.Hour),
			InsightCacheMaxSize: getInt("INSIGHT_CACHE_MAX_SIZE", 256),
			InsightWaitTimeout:  getDuration("INSIGHT_WAIT_TIMEOUT", 90*time.Second),
			MaxPromptLen:        getInt("MAX_PROMPT_LEN", 4000),
			AggregationVersion:  getEnv("AGGREGATION_VERSION", "agg-v1"),
			PromptVersion:       getEnv("PROMPT_VERSION", "tpl-v1"),
			Timezone:            getEnv("TIMEZONE", "Local"),
		}
		if err := cfg.Validate(); err != nil {
			panic("Invalid config: " + err.Error())
		}
	})
	return cfg
}

func (c *Config) Validate() error {
	if c.DBType == "postgres" && c.DBDSN == "" {
		return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
	}
	if c.DBType == "file" && (c.FileSleep == "" || c.FileHeart == "" || c.FileWeight == "") {
		return errors.New("File storage requires SLEEP_FILE, HEART_RATE_FILE and WEIGHT_FILE to be set")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.Env != "development" && c.AuthServiceURL == "" {
		return errors.New("AUTH_SERVICE_URL is required outside development")
	}
	if c.InsightCacheMaxSize <= 0 {
		return errors.New("INSIGHT_CACHE_MAX_SIZE must be positive")
	}
	if c.InsightCacheTTL <= 0 {
		return errors.New("INSIGHT_CACHE_TTL must be positive")
	}
	if c.MaxPromptLen <= 0 {
		return errors.New("MAX_PROMPT_LEN must be positive")
	}
	if c.ModelTimeout <= 0 || c.InsightWaitTimeout <= 0 {
		return errors.New("model and insight wait timeouts must be positive")
	}
	return nil
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
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
