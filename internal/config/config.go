package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration read from the environment.
type Config struct {
	DatabaseURL string
	Port        string

	AuthSecret   string
	AuthIssuer   string
	AuthAudience string

	LogLevel  string
	LogFormat string

	Workers             int
	SpecActiveStatus    string
	SpecAutoSelect      string
	ReportMultipleSpecs bool
	ReportCacheSize     int
	RunTimeout          time.Duration

	Archive ArchiveConfig
}

// ArchiveConfig configures the S3 report archive. An empty Endpoint disables it.
type ArchiveConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (a ArchiveConfig) Enabled() bool { return a.Endpoint != "" }

// Load reads .env when present and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("no .env file found, relying on environment: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (Config, error) {
	var errs []string
	getInt := func(key string, fallback int) int {
		v, err := GetInt(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	getBool := func(key string, fallback bool) bool {
		v, err := GetBool(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	getDuration := func(key string, fallback time.Duration) time.Duration {
		v, err := GetDuration(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := Config{
		DatabaseURL:         GetEnv("DATABASE_URL", ""),
		Port:                GetEnv("PORT", "8080"),
		AuthSecret:          GetEnv("AUTH_SECRET", ""),
		AuthIssuer:          GetEnv("AUTH_ISSUER", ""),
		AuthAudience:        GetEnv("AUTH_AUDIENCE", ""),
		LogLevel:            GetEnv("LOG_LEVEL", "info"),
		LogFormat:           GetEnv("LOG_FORMAT", "json"),
		Workers:             getInt("BOM_WORKERS", 4),
		SpecActiveStatus:    GetEnv("BOM_SPEC_ACTIVE_STATUS", "Действует"),
		SpecAutoSelect:      GetEnv("BOM_SPEC_AUTO_SELECT", "Автоматически"),
		ReportMultipleSpecs: getBool("BOM_REPORT_MULTIPLE_SPECS", false),
		ReportCacheSize:     getInt("BOM_REPORT_CACHE_SIZE", 256),
		RunTimeout:          getDuration("BOM_RUN_TIMEOUT", 10*time.Minute),
		Archive: ArchiveConfig{
			Endpoint:  GetEnv("BOM_ARCHIVE_ENDPOINT", ""),
			Region:    GetEnv("BOM_ARCHIVE_REGION", "us-east-1"),
			AccessKey: GetEnv("BOM_ARCHIVE_ACCESS_KEY", ""),
			SecretKey: GetEnv("BOM_ARCHIVE_SECRET_KEY", ""),
			Bucket:    GetEnv("BOM_ARCHIVE_BUCKET", "bom-reports"),
			UseSSL:    getBool("BOM_ARCHIVE_USE_SSL", true),
		},
	}
	if cfg.Workers < 1 {
		errs = append(errs, fmt.Sprintf("BOM_WORKERS must be positive, got %d", cfg.Workers))
	}
	if cfg.ReportCacheSize < 1 {
		errs = append(errs, fmt.Sprintf("BOM_REPORT_CACHE_SIZE must be positive, got %d", cfg.ReportCacheSize))
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func GetBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func GetDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
