package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	ConnMaxIdleSec     int
	// StatementTimeout is applied server side to every session. Zero disables it.
	StatementTimeout time.Duration
	// ConnectAttempts and ConnectBackoff govern the startup ping.
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MediaConfig controls how review photos are stored and exposed to clients.
type MediaConfig struct {
	// PublicBaseURL is the prefix relative image paths are resolved against.
	// Empty means "http://<AppHost>/media", served by the API itself.
	PublicBaseURL string
	// URLMode is "public" (PublicBaseURL + path) or "presigned".
	URLMode       string
	PresignExpiry time.Duration
	MaxImageBytes int64
	MaxImages     int
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
	TokenTTL  time.Duration

	// EnforceManage gates status updates and deletion behind the
	// business-management policy. Off by default.
	EnforceManage bool
}

// RedisConfig holds the list cache settings. Caching is disabled when Addr is empty.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RateLimitConfig limits review submissions per client.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppEnv      string
	AppHost     string
	Port        string
	LogLevel    string
	AutoMigrate bool
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Media       MediaConfig
	Auth        AuthConfig
	Redis       RedisConfig
	RateLimit   RateLimitConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppEnv:      getEnv("APP_ENV", "prod"),
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Media: MediaConfig{
			PublicBaseURL: getEnv("MEDIA_PUBLIC_BASE_URL", ""),
			URLMode:       getEnv("MEDIA_URL_MODE", "public"),
			PresignExpiry: getEnvDuration("MEDIA_PRESIGN_EXPIRY", time.Hour),
			MaxImageBytes: int64(getEnvInt("MEDIA_MAX_IMAGE_BYTES", 5<<20)),
			MaxImages:     getEnvInt("MEDIA_MAX_IMAGES", 10),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			Issuer:        getEnv("JWT_ISSUER", "reviewapi"),
			Audience:      getEnv("JWT_AUDIENCE", "reviewapi"),
			TokenTTL:      getEnvDuration("JWT_TTL", 72*time.Hour),
			EnforceManage: getEnvBool("AUTHZ_ENFORCE_MANAGE", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REVIEW_CACHE_TTL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
			RPS:     getEnvFloat("RATE_LIMIT_RPS", 0.5),
			Burst:   getEnvInt("RATE_LIMIT_BURST", 5),
		},
	}
}

// ReviewCacheTTL is how long a rendered review page may be cached. Presigned
// image URLs are baked into cached pages, so in that mode the TTL is capped at
// half the presign expiry and every served URL stays valid for at least that long.
func (c *AppConfig) ReviewCacheTTL() time.Duration {
	ttl := c.Redis.TTL
	if c.Media.URLMode == "presigned" && c.Media.PresignExpiry > 0 {
		ttl = min(ttl, c.Media.PresignExpiry/2)
	}
	return ttl
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("90s", "1h") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
