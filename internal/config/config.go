package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration. Loaded once at startup and treated
// as read-only afterwards.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleTokenURL     string

	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	SignedURLTTL   time.Duration
	ThumbnailShape string
	ThumbnailSize  int

	RedisAddr     string
	RedisPassword string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "pixelbin"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "pixelbin"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		JWTSecret:          strings.TrimSpace(getenv("JWT_SECRET", "")),
		AccessTokenExpiry:  time.Duration(getenvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 15)) * time.Minute,
		RefreshTokenExpiry: time.Duration(getenvInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,

		GoogleClientID:     strings.TrimSpace(getenv("GOOGLE_CLIENT_ID", "")),
		GoogleClientSecret: strings.TrimSpace(getenv("GOOGLE_CLIENT_SECRET", "")),
		GoogleTokenURL:     getenv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),

		S3Bucket:       getenv("S3_BUCKET", "pixelbin-images"),
		S3Region:       getenv("S3_REGION", "us-east-1"),
		S3Endpoint:     strings.TrimSpace(getenv("S3_ENDPOINT", "")),
		S3AccessKey:    strings.TrimSpace(getenv("S3_ACCESS_KEY", "")),
		S3SecretKey:    strings.TrimSpace(getenv("S3_SECRET_KEY", "")),
		SignedURLTTL:   time.Duration(getenvInt("SIGNED_URL_TTL_SECONDS", 900)) * time.Second,
		ThumbnailShape: strings.ToLower(getenv("THUMBNAIL_SHAPE", "square")),
		ThumbnailSize:  getenvInt("THUMBNAIL_SIZE", 128),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
