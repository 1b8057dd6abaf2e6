package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Telegram TelegramConfig
	Redis    RedisConfig
	Jobs     JobsConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
	// Client endpoint limit per Telegram user.
	ClientRatePerSecond float64
	ClientBurst         int
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int32
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

type TelegramConfig struct {
	BotToken string
	// AuthBypass skips init data validation. Ignored in production.
	AuthBypass bool
	MaxAge     time.Duration
}

// RedisConfig is optional. With an empty Addr, attendance locks stay in process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// LockWait bounds how long a request waits for a per-key lock, with or
	// without Redis.
	LockWait time.Duration
}

type JobsConfig struct {
	// ShiftAutogenDays > 0 enables the rolling shift generation job.
	ShiftAutogenDays     int
	ShiftAutogenInterval time.Duration
	LateGraceMinutes     int
	// StaleShiftAfter > 0 enables closing active shifts left open that long
	// past their planned end.
	StaleShiftAfter    time.Duration
	StaleShiftInterval time.Duration
}

// Load reads configuration from the environment. A .env file is loaded when
// present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var (
		config = &Config{}
		p      parser
	)

	config.App = AppConfig{
		Port:                p.getInt("APP_PORT", 8080),
		Env:                 getEnv("APP_ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:      getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		ClientRatePerSecond: p.getFloat("CLIENT_RATE_PER_SECOND", 2),
		ClientBurst:         p.getInt("CLIENT_RATE_BURST", 10),
	}

	config.Database = DatabaseConfig{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        p.getInt("DB_PORT", 5432),
		User:        getEnv("DB_USER", "postgres"),
		Password:    getEnv("DB_PASSWORD", ""),
		Name:        getEnv("DB_NAME", "shiftcheck"),
		SSLMode:     getEnv("DB_SSL_MODE", "disable"),
		MaxConns:    int32(p.getInt("DB_MAX_CONNS", 25)),
		AutoMigrate: p.getBool("DB_AUTO_MIGRATE", true),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: p.getDuration("JWT_ACCESS_EXPIRATION_TIME", time.Hour),
	}

	config.Telegram = TelegramConfig{
		BotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		AuthBypass: p.getBool("TELEGRAM_AUTH_BYPASS", false),
		MaxAge:     p.getDuration("TELEGRAM_INIT_DATA_MAX_AGE", 24*time.Hour),
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       p.getInt("REDIS_DB", 0),
		LockWait: p.getDuration("LOCK_WAIT", 5*time.Second),
	}

	config.Jobs = JobsConfig{
		ShiftAutogenDays:     p.getInt("SHIFT_AUTOGEN_DAYS", 0),
		ShiftAutogenInterval: p.getDuration("SHIFT_AUTOGEN_INTERVAL", 24*time.Hour),
		LateGraceMinutes:     p.getInt("LATE_GRACE_MINUTES", 5),
		StaleShiftAfter:      p.getDuration("SHIFT_AUTOCLOSE_AFTER", 6*time.Hour),
		StaleShiftInterval:   p.getDuration("SHIFT_AUTOCLOSE_INTERVAL", time.Hour),
	}

	if p.err != nil {
		return nil, p.err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if config.Telegram.AuthBypass && config.IsProduction() {
		slog.Warn("TELEGRAM_AUTH_BYPASS ignored in production")
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Telegram.BotToken == "" && !c.TelegramBypass() {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Jobs.ShiftAutogenDays < 0 || c.Jobs.ShiftAutogenDays > 365 {
		return fmt.Errorf("SHIFT_AUTOGEN_DAYS must be between 0 and 365")
	}
	if c.Jobs.ShiftAutogenDays > 0 && c.Jobs.ShiftAutogenInterval <= 0 {
		return fmt.Errorf("SHIFT_AUTOGEN_INTERVAL must be positive")
	}
	if c.Jobs.LateGraceMinutes < 0 {
		return fmt.Errorf("LATE_GRACE_MINUTES must not be negative")
	}
	if c.Jobs.StaleShiftAfter < 0 {
		return fmt.Errorf("SHIFT_AUTOCLOSE_AFTER must not be negative")
	}
	if c.Jobs.StaleShiftAfter > 0 && c.Jobs.StaleShiftInterval <= 0 {
		return fmt.Errorf("SHIFT_AUTOCLOSE_INTERVAL must be positive")
	}
	if c.Redis.LockWait < 0 {
		return fmt.Errorf("LOCK_WAIT must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// TelegramBypass reports whether init data validation is skipped.
func (c *Config) TelegramBypass() bool {
	return c.Telegram.AuthBypass && !c.IsProduction()
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback []string) []string {
	value := getEnv(env, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}

// parser reads typed env vars and keeps the first error.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (p *parser) getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return v
}

func (p *parser) getFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return v
}

func (p *parser) getBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return v
}

func (p *parser) getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return v
}
