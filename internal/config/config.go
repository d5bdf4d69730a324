package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Storage selects the repository backend: "postgres" or "memory".
	Storage string

	ServerPort string

	JWTSecret     string
	SessionMaxAge int // seconds
	CookieSecure  bool

	CORSAllowedOrigins []string

	// AdminSecretKey must accompany every create-admin call.
	AdminSecretKey string

	RedisURL      string
	StatsCacheTTL int // seconds

	StreamAPIKey    string
	StreamAPISecret string
	StreamBaseURL   string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	AvatarBaseURL string

	LogLevel  string
	LogFormat string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "require"),

		Storage: strings.ToLower(getEnv("STORAGE", StoragePostgres)),

		ServerPort: getEnv("SERVER_PORT", "8080"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionMaxAge: getInt("SESSION_MAX_AGE", 7*24*60*60),
		CookieSecure:  getBool("COOKIE_SECURE", true),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		AdminSecretKey: os.Getenv("ADMIN_SECRET_KEY"),

		RedisURL:      os.Getenv("REDIS_URL"),
		StatsCacheTTL: getInt("STATS_CACHE_TTL", 30),

		StreamAPIKey:    os.Getenv("STREAM_API_KEY"),
		StreamAPISecret: os.Getenv("STREAM_API_SECRET"),
		StreamBaseURL:   getEnv("STREAM_BASE_URL", "https://chat.stream-io-api.com"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		AvatarBaseURL: getEnv("AVATAR_BASE_URL", "https://avatar.iran.liara.run/public"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	return cfg, nil
}

// Validate reports configuration that would make the server unusable.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Storage {
	case StoragePostgres:
		if c.DBHost == "" || c.DBName == "" {
			return errors.New("DB_HOST and DB_NAME are required for postgres storage")
		}
	case StorageMemory:
	default:
		return errors.New("STORAGE must be postgres or memory")
	}
	return nil
}

// MediaEnabled reports whether every R2 setting needed for avatar uploads is present.
func (c *Config) MediaEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

// ChatEnabled reports whether the chat provider credentials are configured.
func (c *Config) ChatEnabled() bool {
	return c.StreamAPIKey != "" && c.StreamAPISecret != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
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
