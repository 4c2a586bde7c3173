package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageLocal      = "local"
	StorageCloudinary = "cloudinary"
)

type Config struct {
	Environment        string
	LogLevel           string
	Addr               string
	DatabaseURL        string
	JWTSecret          string
	TokenTTL           time.Duration
	ResetTokenTTL      time.Duration
	ResetPurgeInterval time.Duration
	AppBaseURL         string
	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	MaxUploadBytes     int64
	RateLimitPerMinute int
	MetricsEnabled     bool
	RunMigrations      bool
	RunSeed            bool

	EmailEnabled bool
	EmailFrom    string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPUseTLS   bool

	StorageDriver       string
	UploadDir           string
	UploadPublicPrefix  string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	SeedAdminName     string
	SeedAdminEmail    string
	SeedAdminPassword string

	LegacyMongoURI string
	LegacyMongoDB  string
}

var defaults = map[string]any{
	"APP_ENV":               "development",
	"LOG_LEVEL":             "",
	"ADDR":                  ":8080",
	"TOKEN_TTL":             time.Hour,
	"RESET_TOKEN_TTL":       15 * time.Minute,
	"RESET_PURGE_INTERVAL":  time.Hour,
	"APP_BASE_URL":          "http://localhost:8080",
	"CORS_ALLOWED_ORIGINS":  "*",
	"MAX_BODY_BYTES":        1048576,
	"MAX_UPLOAD_BYTES":      10485760,
	"RATE_LIMIT_PER_MINUTE": 60,
	"METRICS_ENABLED":       true,
	"RUN_MIGRATIONS":        true,
	"RUN_SEED":              true,
	"EMAIL_ENABLED":         false,
	"EMAIL_FROM":            "no-reply@example.com",
	"SMTP_PORT":             587,
	"SMTP_USE_TLS":          true,
	"STORAGE_DRIVER":        StorageLocal,
	"UPLOAD_DIR":            "uploads",
	"UPLOAD_PUBLIC_PREFIX":  "/uploads",
	"CLOUDINARY_FOLDER":     "hradmin",
	"SEED_ADMIN_NAME":       "Administrator",
	"LEGACY_MONGO_DB":       "hradmin",
}

// Load reads an optional .env file, an optional config.yaml and the
// process environment, in increasing order of precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return Config{
		Environment:        v.GetString("APP_ENV"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		Addr:               v.GetString("ADDR"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		TokenTTL:           v.GetDuration("TOKEN_TTL"),
		ResetTokenTTL:      v.GetDuration("RESET_TOKEN_TTL"),
		ResetPurgeInterval: v.GetDuration("RESET_PURGE_INTERVAL"),
		AppBaseURL:         v.GetString("APP_BASE_URL"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		MaxBodyBytes:       v.GetInt64("MAX_BODY_BYTES"),
		MaxUploadBytes:     v.GetInt64("MAX_UPLOAD_BYTES"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		MetricsEnabled:     v.GetBool("METRICS_ENABLED"),
		RunMigrations:      v.GetBool("RUN_MIGRATIONS"),
		RunSeed:            v.GetBool("RUN_SEED"),

		EmailEnabled: v.GetBool("EMAIL_ENABLED"),
		EmailFrom:    v.GetString("EMAIL_FROM"),
		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUser:     v.GetString("SMTP_USER"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		SMTPUseTLS:   v.GetBool("SMTP_USE_TLS"),

		StorageDriver:       strings.ToLower(v.GetString("STORAGE_DRIVER")),
		UploadDir:           v.GetString("UPLOAD_DIR"),
		UploadPublicPrefix:  v.GetString("UPLOAD_PUBLIC_PREFIX"),
		CloudinaryCloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: v.GetString("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:    v.GetString("CLOUDINARY_FOLDER"),

		SeedAdminName:     v.GetString("SEED_ADMIN_NAME"),
		SeedAdminEmail:    v.GetString("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),

		LegacyMongoURI: v.GetString("LEGACY_MONGO_URI"),
		LegacyMongoDB:  v.GetString("LEGACY_MONGO_DB"),
	}, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
		}
	}
	if c.TokenTTL <= 0 || c.ResetTokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL and RESET_TOKEN_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxUploadBytes < c.MaxBodyBytes {
		return fmt.Errorf("MAX_UPLOAD_BYTES must not be smaller than MAX_BODY_BYTES")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	switch c.StorageDriver {
	case StorageLocal:
		if strings.TrimSpace(c.UploadDir) == "" {
			return fmt.Errorf("UPLOAD_DIR is required for local storage")
		}
	case StorageCloudinary:
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for cloudinary storage")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageLocal, StorageCloudinary)
	}
	return nil
}
