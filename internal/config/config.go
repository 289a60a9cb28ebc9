// Package config loads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

// Config is the typed view of the environment used to wire the application.
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	CORSOrigins   string

	DB    DBConfig
	Redis RedisConfig

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	KafkaBrokers []string

	Documents DocumentConfig

	SubscriptionTerm time.Duration
}

// DBConfig holds the database connection and pool settings.
type DBConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig holds the Redis connection settings. LimiterDB is a separate
// logical database for rate-limit counters.
type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	LimiterDB int
}

// DocumentConfig selects where verification documents are kept.
type DocumentConfig struct {
	Store         string
	Dir           string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKeyID string
	S3SecretKey   string
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Infof("no .env file found: %v", err)
	}
}

// Load reads the environment into a Config.
func Load() *Config {
	return &Config{
		Port:          GetEnv("PORT", "3000"),
		Env:           GetEnv("ENV", "development"),
		PublicBaseURL: strings.TrimRight(GetEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		CORSOrigins:   GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		DB: DBConfig{
			Driver:          GetEnv("DB_DRIVER", "postgres"),
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "sitex"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:      GetEnv("REDIS_HOST", "localhost"),
			Port:      GetEnv("REDIS_PORT", "6379"),
			Password:  GetEnv("REDIS_PASSWORD", ""),
			DB:        GetIntEnv("REDIS_DB", 0),
			LimiterDB: GetIntEnv("REDIS_LIMITER_DB", 1),
		},
		JWTSecret:       GetEnv("JWT_SECRET", "sitex"),
		AccessTokenTTL:  GetDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: GetDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		KafkaBrokers:    splitList(GetEnv("KAFKA_BROKERS", "")),
		Documents: DocumentConfig{
			Store:         GetEnv("DOCUMENT_STORE", "local"),
			Dir:           GetEnv("DOCUMENT_DIR", "./media"),
			S3Bucket:      GetEnv("S3_BUCKET", ""),
			S3Region:      GetEnv("S3_REGION", "us-east-1"),
			S3Endpoint:    GetEnv("S3_ENDPOINT", ""),
			S3AccessKeyID: GetEnv("S3_ACCESS_KEY_ID", ""),
			S3SecretKey:   GetEnv("S3_SECRET_ACCESS_KEY", ""),
		},
		SubscriptionTerm: GetDurationEnv("SUBSCRIPTION_TERM", 30*24*time.Hour),
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
		log.Warnf("invalid %s=%q, using default %d", key, val, defaultVal)
	}
	return defaultVal
}

// GetDurationEnv returns a time.Duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		log.Warnf("invalid %s=%q, using default %s", key, val, defaultVal)
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
