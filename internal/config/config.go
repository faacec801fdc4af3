package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Object Storage Config
	StorageBaseURL string        `env:"STORAGE_BASE_URL"`
	StorageAPIKey  string        `env:"STORAGE_API_KEY"`
	StorageBucket  string        `env:"STORAGE_BUCKET" envDefault:"incident-images"`
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" envDefault:"10s"`

	// Notification Config
	NotifyAPIURL     string        `env:"NOTIFY_API_URL"`
	NotifyServiceID  string        `env:"NOTIFY_SERVICE_ID"`
	NotifyReportTpl  string        `env:"NOTIFY_REPORT_TEMPLATE"`
	NotifyStatusTpl  string        `env:"NOTIFY_STATUS_TEMPLATE"`
	NotifyPublicKey  string        `env:"NOTIFY_PUBLIC_KEY"`
	NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
	NotifyMaxRetries int           `env:"NOTIFY_MAX_RETRIES" envDefault:"3"`
	NotifyBaseDelay  time.Duration `env:"NOTIFY_BASE_DELAY" envDefault:"1s"`

	// Список адресов администраторов для уведомлений о новых инцидентах
	AdminEmails []string `env:"ADMIN_EMAILS"`

	// Session Config
	SessionFile string `env:"SESSION_FILE" envDefault:".session.json"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		StorageBaseURL:   os.Getenv("STORAGE_BASE_URL"),
		StorageAPIKey:    os.Getenv("STORAGE_API_KEY"),
		StorageBucket:    getEnv("STORAGE_BUCKET", "incident-images"),
		StorageTimeout:   getEnvAsDuration("STORAGE_TIMEOUT", 10*time.Second),
		NotifyAPIURL:     os.Getenv("NOTIFY_API_URL"),
		NotifyServiceID:  os.Getenv("NOTIFY_SERVICE_ID"),
		NotifyReportTpl:  os.Getenv("NOTIFY_REPORT_TEMPLATE"),
		NotifyStatusTpl:  os.Getenv("NOTIFY_STATUS_TEMPLATE"),
		NotifyPublicKey:  os.Getenv("NOTIFY_PUBLIC_KEY"),
		NotifyTimeout:    getEnvAsDuration("NOTIFY_TIMEOUT", 5*time.Second),
		NotifyMaxRetries: getEnvAsInt("NOTIFY_MAX_RETRIES", 3),
		NotifyBaseDelay:  getEnvAsDuration("NOTIFY_BASE_DELAY", time.Second),
		SessionFile:      getEnv("SESSION_FILE", ".session.json"),
	}

	// Загрузка адресов администраторов
	adminEmailsStr := os.Getenv("ADMIN_EMAILS")
	if adminEmailsStr != "" {
		cfg.AdminEmails = strings.Split(adminEmailsStr, ",")
		for i, email := range cfg.AdminEmails {
			cfg.AdminEmails[i] = strings.TrimSpace(email)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
