package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config собирает настройки сервиса из окружения.
type Config struct {
	HTTPAddr string

	DBDriver   string // postgres | sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// FreeCountStore принимает redis или memory. memory годится только для одного процесса.
	FreeCountStore string

	JWTAccessSecret []byte
	AccessTokenTTL  time.Duration

	SweepSpec         string
	SlotPollSpec      string
	CleanupSpec       string
	TerminalRetention time.Duration
	DispatchBaseURL   string

	DefaultTimeoutMinutes int
}

// Load читает .env (если не задан ENV_CHEK) и переменные окружения.
func Load() (*Config, error) {
	if os.Getenv("ENV_CHEK") == "" {
		fmt.Println("Подключение к .env")
		if err := godotenv.Load(); err != nil {
			log.Println("Файл .env не найден, используются переменные окружения")
		}
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	retentionHours, err := intEnv("TERMINAL_RETENTION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	timeoutMinutes, err := intEnv("DEFAULT_TIMEOUT_MINUTES", 2)
	if err != nil {
		return nil, err
	}
	tokenMinutes, err := intEnv("ACCESS_TOKEN_MINUTES", 60*12)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		DBDriver:          env("DB_DRIVER", "postgres"),
		DBHost:            os.Getenv("DB_HOST"),
		DBPort:            env("DB_PORT", "5432"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		SQLitePath:        env("SQLITE_PATH", "taxi_buffer.db"),
		RedisAddr:         env("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		FreeCountStore:    env("FREE_COUNT_STORE", "redis"),
		JWTAccessSecret:   []byte(os.Getenv("JWT_ACCESS_SECRET")),
		AccessTokenTTL:    time.Duration(tokenMinutes) * time.Minute,
		SweepSpec:         env("SWEEP_SPEC", "@every 15s"),
		SlotPollSpec:      env("SLOT_POLL_SPEC", "@every 30s"),
		CleanupSpec:       env("CLEANUP_SPEC", "0 0 3 * * *"),
		TerminalRetention: time.Duration(retentionHours) * time.Hour,
		DispatchBaseURL:   env("DISPATCH_BASE_URL", "/queueing/queue"),

		DefaultTimeoutMinutes: timeoutMinutes,
	}
	return cfg, cfg.Validate()
}

// Validate проверяет обязательные параметры.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres":
		if c.DBHost == "" || c.DBName == "" {
			return fmt.Errorf("для postgres нужны DB_HOST и DB_NAME")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("для sqlite нужен SQLITE_PATH")
		}
	default:
		return fmt.Errorf("неизвестный DB_DRIVER %q", c.DBDriver)
	}
	if c.FreeCountStore != "redis" && c.FreeCountStore != "memory" {
		return fmt.Errorf("неизвестный FREE_COUNT_STORE %q", c.FreeCountStore)
	}
	if c.DefaultTimeoutMinutes <= 0 {
		return fmt.Errorf("DEFAULT_TIMEOUT_MINUTES должен быть положительным")
	}
	if len(c.JWTAccessSecret) == 0 {
		return fmt.Errorf("не задан JWT_ACCESS_SECRET")
	}
	return nil
}

// PostgresDSN собирает строку подключения в формате драйвера pgx.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: ожидается целое число: %w", key, err)
	}
	return n, nil
}
