package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"spectrum-academy/internal/apperrors"
)

// DatabaseConfig конфигурация БД
type DatabaseConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Name     string
	SSLMode  string
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Name, d.SSLMode,
	)
}

// Load загружает конфигурацию из окружения (и .env, если он есть)
func Load() (*Config, error) {
	// .env опционален, в контейнере переменные приходят из окружения
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Environment: env,
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		Storage:     getEnv("STORAGE", "postgres"),
		Bot: BotConfig{
			Token:    getEnv("BOT_TOKEN", ""),
			Debug:    getEnvAsBool("BOT_DEBUG", env != "production"),
			AdminIDs: parseAdminIDs(getEnv("ADMIN_IDS", "")),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Username: getEnv("DB_USER", ""),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "academy"),
			SSLMode:  getSSLMode(env),
		},
		Payment: PaymentConfig{
			Gateway:   getEnv("PAYMENT_GATEWAY", "razorpay"),
			KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
			Currency:  getEnv("PAYMENT_CURRENCY", "INR"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate проверяет обязательные параметры
func (c *Config) validate() error {
	var errors []string

	if c.Storage != "postgres" && c.Storage != "memory" {
		errors = append(errors, "STORAGE must be postgres or memory")
	}

	if c.Storage == "postgres" && c.Database.Username == "" {
		errors = append(errors, "DB_USER is required")
	}

	if c.Database.Password == "" && c.IsProduction() {
		errors = append(errors, "DB_PASSWORD is required in production")
	}

	switch c.Payment.Gateway {
	case "razorpay":
		if c.Payment.KeyID == "" {
			errors = append(errors, "RAZORPAY_KEY_ID is required")
		}
	case "sandbox":
		if c.IsProduction() {
			errors = append(errors, "sandbox payment gateway is not allowed in production")
		}
	default:
		errors = append(errors, "PAYMENT_GATEWAY must be razorpay or sandbox")
	}

	// без секрета невозможно проверять подписи, это не ошибка запроса
	if c.Payment.KeySecret == "" {
		errors = append(errors, "RAZORPAY_KEY_SECRET is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%w: config validation failed: %s", apperrors.ErrConfiguration, strings.Join(errors, ", "))
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

// getSSLMode возвращает режим SSL в зависимости от окружения
func getSSLMode(env string) string {
	if env == "production" {
		return "require" // В продакшене всегда SSL
	}
	return "disable"
}

// parseAdminIDs парсит список ID администраторов
func parseAdminIDs(ids string) []int64 {
	if ids == "" {
		return []int64{}
	}

	var result []int64
	for _, idStr := range strings.Split(ids, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64); err == nil {
			result = append(result, id)
		}
	}
	return result
}
