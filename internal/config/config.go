package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/complaint-register/api/internal/complaint"
)

type Config struct {
	Addr     string
	Env      string
	LogLevel slog.Level

	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string

	UploadDir          string
	UploadMaxBytes     int64
	ImportMaxFileBytes int64
	ImportMaxRows      int
	APIMaxBodyBytes    int64
	DefaultPageSize    int

	DerivedDaysMode      complaint.DerivedDaysMode
	DerivedInvertedRange complaint.InvertedRangePolicy

	CORSAllowedOrigins    []string
	ImportRateLimitPerMin int
	RateLimitMaxIPs       int

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:           getEnv("API_ADDR", ":8080"),
		Env:            getEnv("APP_ENV", "dev"),
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SQLitePath:     getEnv("SQLITE_PATH", "complaints.db"),

		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		UploadMaxBytes:     int64(getEnvInt("UPLOAD_MAX_MB", 50)) * 1024 * 1024,
		ImportMaxFileBytes: int64(getEnvInt("IMPORT_MAX_FILE_MB", 25)) * 1024 * 1024,
		ImportMaxRows:      getEnvInt("IMPORT_MAX_ROWS", 5000),
		APIMaxBodyBytes:    int64(getEnvInt("API_MAX_BODY_MB", 2)) * 1024 * 1024,
		DefaultPageSize:    getEnvInt("DEFAULT_PAGE_SIZE", 10),

		CORSAllowedOrigins: getEnvCSV("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		}),
		ImportRateLimitPerMin: getEnvInt("IMPORT_RATE_LIMIT_PER_MIN", 30),
		RateLimitMaxIPs:       getEnvInt("RATE_LIMIT_MAX_IPS", 10000),

		MinIOEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "complaints"),
		MinIOUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		ReadHeaderTimeout: time.Duration(getEnvInt("API_READ_HEADER_TIMEOUT_SEC", 5)) * time.Second,
		ReadTimeout:       time.Duration(getEnvInt("API_READ_TIMEOUT_SEC", 15)) * time.Second,
		WriteTimeout:      time.Duration(getEnvInt("API_WRITE_TIMEOUT_SEC", 30)) * time.Second,
		IdleTimeout:       time.Duration(getEnvInt("API_IDLE_TIMEOUT_SEC", 60)) * time.Second,
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	mode, err := complaint.ParseDerivedDaysMode(os.Getenv("DERIVED_DAYS_MODE"))
	if err != nil {
		return Config{}, fmt.Errorf("DERIVED_DAYS_MODE: %w", err)
	}
	cfg.DerivedDaysMode = mode

	policy, err := complaint.ParseInvertedRangePolicy(os.Getenv("DERIVED_INVERTED_RANGE"))
	if err != nil {
		return Config{}, fmt.Errorf("DERIVED_INVERTED_RANGE: %w", err)
	}
	cfg.DerivedInvertedRange = policy

	switch cfg.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=postgres")
		}
	default:
		return Config{}, fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", cfg.DatabaseDriver)
	}

	if cfg.MinIOEndpoint != "" && (cfg.MinIOAccessKey == "" || cfg.MinIOSecretKey == "") {
		return Config{}, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}

	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}

	return cfg, nil
}

// ImportTempDir holds uploaded spreadsheets while they are imported.
func (c Config) ImportTempDir() string {
	return filepath.Join(c.UploadDir, ".imports")
}

func (c Config) Mapper() complaint.Mapper {
	return complaint.Mapper{DaysMode: c.DerivedDaysMode, InvertedRange: c.DerivedInvertedRange}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvCSV(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
