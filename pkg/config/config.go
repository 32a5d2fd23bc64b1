package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	BaseURL   string

	Database       DatabaseConfig
	Redis          RedisConfig
	JWT            JWTConfig
	CORS           CORSConfig
	Log            LogConfig
	Mail           MailConfig
	Review         ReviewConfig
	Events         EventsConfig
	DirectoryCache DirectoryCacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MailConfig selects the notification transport and sender identity.
type MailConfig struct {
	Driver   string
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// ReviewConfig describes which departments may review every request.
type ReviewConfig struct {
	ReviewerDepartments  []int
	AllowScopedReviewers bool
}

// EventsConfig toggles publishing of request lifecycle events to Kafka.
type EventsConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	Username     string
	Password     string
	TLS          bool
	WriteTimeout time.Duration
	Workers      int
	BufferSize   int
	MaxRetries   int
	RetryDelay   time.Duration
}

// DirectoryCacheConfig governs caching of student and program lookups.
type DirectoryCacheConfig struct {
	StudentTTL time.Duration
	ProgramTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.BaseURL = strings.TrimRight(v.GetString("BASE_URL"), "/")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 8*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mail = MailConfig{
		Driver:   strings.ToLower(v.GetString("MAIL_DRIVER")),
		Host:     v.GetString("EMAIL_HOST"),
		Port:     v.GetInt("EMAIL_PORT"),
		Username: v.GetString("EMAIL_USER"),
		Password: v.GetString("EMAIL_PASS"),
		From:     v.GetString("MAIL_FROM"),
		FromName: v.GetString("MAIL_FROM_NAME"),
		Timeout:  parseDuration(v.GetString("MAIL_TIMEOUT"), 15*time.Second),
	}

	cfg.Review = ReviewConfig{
		ReviewerDepartments:  parseInts(v.GetString("REVIEWER_DEPARTMENTS")),
		AllowScopedReviewers: v.GetBool("ALLOW_SCOPED_REVIEWERS"),
	}

	cfg.Events = EventsConfig{
		Enabled:      v.GetBool("ENABLE_EVENTS"),
		Brokers:      splitAndTrim(v.GetString("KAFKA_BROKERS")),
		Topic:        v.GetString("KAFKA_TOPIC"),
		Username:     v.GetString("KAFKA_USERNAME"),
		Password:     v.GetString("KAFKA_PASSWORD"),
		TLS:          v.GetBool("KAFKA_TLS"),
		WriteTimeout: parseDuration(v.GetString("KAFKA_WRITE_TIMEOUT"), 5*time.Second),
		Workers:      v.GetInt("KAFKA_PUBLISH_WORKERS"),
		BufferSize:   v.GetInt("KAFKA_PUBLISH_BUFFER"),
		MaxRetries:   v.GetInt("KAFKA_PUBLISH_RETRIES"),
		RetryDelay:   parseDuration(v.GetString("KAFKA_PUBLISH_RETRY_DELAY"), time.Second),
	}

	cfg.DirectoryCache = DirectoryCacheConfig{
		StudentTTL: parseDuration(v.GetString("STUDENT_CACHE_TTL"), 15*time.Minute),
		ProgramTTL: parseDuration(v.GetString("PROGRAM_CACHE_TTL"), time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "cahsa")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "8h")
	v.SetDefault("JWT_ISSUER", "cahsa-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MAIL_DRIVER", "log")
	v.SetDefault("EMAIL_HOST", "localhost")
	v.SetDefault("EMAIL_PORT", 25)
	v.SetDefault("EMAIL_USER", "")
	v.SetDefault("EMAIL_PASS", "")
	v.SetDefault("MAIL_FROM", "cahsa@ucf.edu")
	v.SetDefault("MAIL_FROM_NAME", "College of Arts and Humanities Student Advising")
	v.SetDefault("MAIL_TIMEOUT", "15s")

	v.SetDefault("REVIEWER_DEPARTMENTS", "12,23")
	v.SetDefault("ALLOW_SCOPED_REVIEWERS", false)

	v.SetDefault("ENABLE_EVENTS", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "cahsa.requests")
	v.SetDefault("KAFKA_USERNAME", "")
	v.SetDefault("KAFKA_PASSWORD", "")
	v.SetDefault("KAFKA_TLS", false)
	v.SetDefault("KAFKA_WRITE_TIMEOUT", "5s")
	v.SetDefault("KAFKA_PUBLISH_WORKERS", 2)
	v.SetDefault("KAFKA_PUBLISH_BUFFER", 256)
	v.SetDefault("KAFKA_PUBLISH_RETRIES", 3)
	v.SetDefault("KAFKA_PUBLISH_RETRY_DELAY", "1s")

	v.SetDefault("STUDENT_CACHE_TTL", "15m")
	v.SetDefault("PROGRAM_CACHE_TTL", "1h")
}

// viper surfaces a bare *fs.PathError when SetConfigFile points at a missing file.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func parseInts(raw string) []int {
	parts := splitAndTrim(raw)
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		result = append(result, n)
	}
	return result
}
