package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Telegram TelegramConfig
	App      AppConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	Environment string
}

// TelegramConfig holds bot settings
type TelegramConfig struct {
	BotToken  string
	WebAppURL string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret         string
	SessionDuration   time.Duration
	ReplayWindow      time.Duration
	MiningDuration    time.Duration
	ReferralBonus     decimal.Decimal
	DefaultEarnPerSec decimal.Decimal
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "hamsterverse"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "3000"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Telegram: TelegramConfig{
			BotToken:  getEnv("BOT_TOKEN", ""),
			WebAppURL: getEnv("WEBAPP_URL", ""),
		},
		App: AppConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			SessionDuration:   getEnvDuration("SESSION_DURATION", 7*24*time.Hour),
			ReplayWindow:      getEnvDuration("REPLAY_WINDOW", 300*time.Second),
			MiningDuration:    getEnvDuration("MINING_DURATION", 8*time.Hour),
			ReferralBonus:     getEnvDecimal("REF_BONUS", decimal.NewFromInt(50)),
			DefaultEarnPerSec: getEnvDecimal("DEFAULT_EARN_PER_SEC", decimal.NewFromInt(2)),
		},
	}

	// Validate required fields
	if config.Telegram.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// IsProduction reports whether the server runs with production cookie settings
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable with a fallback default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration gets a duration environment variable (seconds or Go duration syntax)
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// getEnvDecimal gets a decimal environment variable with a fallback default value
func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return defaultValue
	}
	return d
}
