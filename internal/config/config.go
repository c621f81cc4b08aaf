package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

type Config struct {
	AppEnv  string `mapstructure:"APP_ENV"`
	AppPort string `mapstructure:"APP_PORT"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBScheme   string `mapstructure:"DB_SCHEME"`

	// --- Кеш ---
	CacheDriver   string `mapstructure:"CACHE_DRIVER"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// --- Политика листингов ---
	ListTTL    time.Duration `mapstructure:"LIST_TTL"`
	CountTTL   time.Duration `mapstructure:"COUNT_TTL"`
	WarmWindow int           `mapstructure:"WARM_WINDOW"`
	HTTPMaxAge int           `mapstructure:"HTTP_MAX_AGE"`

	// --- S3 (архив отчётов прогрева, опционально) ---
	S3Endpoint   string `mapstructure:"S3_ENDPOINT"`
	S3Region     string `mapstructure:"S3_REGION"`
	S3Bucket     string `mapstructure:"S3_BUCKET"`
	S3AccessKey  string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey  string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL     bool   `mapstructure:"S3_USE_SSL"`
	S3PathStyle  bool   `mapstructure:"S3_PATH_STYLE"`
	ReportPrefix string `mapstructure:"REPORT_PREFIX"`
}

var defaults = map[string]any{
	"APP_ENV":       "dev",
	"APP_PORT":      ":8080",
	"DB_HOST":       "localhost",
	"DB_PORT":       5432,
	"DB_SCHEME":     "public",
	"CACHE_DRIVER":  CacheRedis,
	"REDIS_ADDR":    "localhost:6379",
	"REDIS_DB":      0,
	"LIST_TTL":      "24h",
	"COUNT_TTL":     "5m",
	"WARM_WINDOW":   2000,
	"HTTP_MAX_AGE":  60,
	"S3_PATH_STYLE": true,
	"REPORT_PREFIX": "warmup-reports",
}

// String реализует интерфейс Stringer
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  AppEnv: %s\n", c.AppEnv)
	fmt.Fprintf(&sb, "  AppPort: %s\n", c.AppPort)
	fmt.Fprintf(&sb, "  DBHost: %s\n", c.DBHost)
	fmt.Fprintf(&sb, "  DBPort: %d\n", c.DBPort)
	fmt.Fprintf(&sb, "  DBUser: %s\n", c.DBUser)
	fmt.Fprintf(&sb, "  DBName: %s\n", c.DBName)
	fmt.Fprintf(&sb, "  DBScheme: %s\n", c.DBScheme)
	sb.WriteString("  DBPassword: " + mask(c.DBPassword) + "\n")

	fmt.Fprintf(&sb, "  CacheDriver: %s\n", c.CacheDriver)
	fmt.Fprintf(&sb, "  RedisAddr: %s\n", c.RedisAddr)
	fmt.Fprintf(&sb, "  RedisDB: %d\n", c.RedisDB)
	sb.WriteString("  RedisPassword: " + mask(c.RedisPassword) + "\n")

	fmt.Fprintf(&sb, "  ListTTL: %s\n", c.ListTTL)
	fmt.Fprintf(&sb, "  CountTTL: %s\n", c.CountTTL)
	fmt.Fprintf(&sb, "  WarmWindow: %d\n", c.WarmWindow)
	fmt.Fprintf(&sb, "  HTTPMaxAge: %d\n", c.HTTPMaxAge)

	// S3
	fmt.Fprintf(&sb, "  S3Endpoint: %s\n", c.S3Endpoint)
	fmt.Fprintf(&sb, "  S3Region: %s\n", c.S3Region)
	fmt.Fprintf(&sb, "  S3Bucket: %s\n", c.S3Bucket)
	sb.WriteString("  S3AccessKey: " + mask(c.S3AccessKey) + "\n")
	sb.WriteString("  S3SecretKey: " + mask(c.S3SecretKey) + "\n")
	fmt.Fprintf(&sb, "  S3UseSSL: %v\n", c.S3UseSSL)
	fmt.Fprintf(&sb, "  S3PathStyle: %v\n", c.S3PathStyle)
	fmt.Fprintf(&sb, "  ReportPrefix: %s\n", c.ReportPrefix)

	return sb.String()
}

func mask(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "********"
}

// LoadFromEnv загружает конфигурацию из переменных окружения
func LoadFromEnv() (*Config, error) {
	// Загружаем .env только для локальной разработки
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	// Регистрируем интересующие ключи окружения
	keys := []string{
		"APP_ENV", "APP_PORT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SCHEME",
		"CACHE_DRIVER", "REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD",
		"LIST_TTL", "COUNT_TTL", "WARM_WINDOW", "HTTP_MAX_AGE",
		"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
		"S3_USE_SSL", "S3_PATH_STYLE", "REPORT_PREFIX",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.CacheDriver {
	case CacheRedis, CacheMemory:
	default:
		return fmt.Errorf("CACHE_DRIVER %q: %w", c.CacheDriver, domain.ErrBadParams)
	}
	if c.ListTTL < time.Second || c.CountTTL < time.Second {
		return fmt.Errorf("LIST_TTL and COUNT_TTL must be >= 1s: %w", domain.ErrBadParams)
	}
	if c.WarmWindow < 0 {
		return fmt.Errorf("WARM_WINDOW must be >= 0: %w", domain.ErrBadParams)
	}
	return nil
}

// ArchiveEnabled — отчёты прогрева складываются в S3, только если задан бакет.
func (c *Config) ArchiveEnabled() bool { return c.S3Bucket != "" && c.S3Endpoint != "" }

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
