package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendLocal = "local"
	BackendDB    = "db"
	BackendS3    = "s3"
)

// Config holds runtime configuration for the API server. Loaded once at
// startup and treated as immutable for the process lifetime.
type Config struct {
	ListenAddr         string
	DatabaseURL        string
	AuthToken          string
	CORSAllowedOrigins []string
	MaxUploadBytes     int64
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration

	StorageBackend  string
	LocalStorageDir string

	// S3-compatible backend. Credentials are never logged or echoed.
	S3Endpoint     string
	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3SessionToken string
	S3Timeout      time.Duration
}

func Load() (Config, error) {
	defaultCORSOrigins := []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	cfg := Config{
		ListenAddr:       getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:      getenv("DATABASE_URL", "file:drive.db?_pragma=busy_timeout(5000)"),
		AuthToken:        getenv("AUTH_TOKEN", ""),
		MaxUploadBytes:   getenvInt64("MAX_UPLOAD_BYTES", 10*1024*1024),
		HTTPReadTimeout:  getenvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		HTTPWriteTimeout: getenvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		HTTPIdleTimeout:  getenvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),

		StorageBackend:  strings.ToLower(getenv("STORAGE_BACKEND", BackendLocal)),
		LocalStorageDir: getenv("LOCAL_STORAGE_DIR", "./data"),

		S3Endpoint:     getenv("S3_ENDPOINT", ""),
		S3Bucket:       getenv("S3_BUCKET", ""),
		S3Region:       getenv("S3_REGION", "us-east-1"),
		S3AccessKey:    getenv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getenv("S3_SECRET_KEY", ""),
		S3SessionToken: getenv("S3_SESSION_TOKEN", ""),
		S3Timeout:      getenvDuration("S3_TIMEOUT", 30*time.Second),
	}
	cfg.CORSAllowedOrigins = parseList(getenv("CORS_ALLOWED_ORIGINS", strings.Join(defaultCORSOrigins, ",")))
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = defaultCORSOrigins
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, fmt.Errorf("DATABASE_URL cannot be empty")
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return Config{}, fmt.Errorf("AUTH_TOKEN cannot be empty")
	}
	if cfg.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	switch cfg.StorageBackend {
	case BackendLocal:
		if strings.TrimSpace(cfg.LocalStorageDir) == "" {
			return Config{}, fmt.Errorf("LOCAL_STORAGE_DIR cannot be empty")
		}
	case BackendDB:
		// Payloads share the metadata database; nothing extra to check.
	case BackendS3:
		if strings.TrimSpace(cfg.S3Endpoint) == "" {
			return Config{}, fmt.Errorf("S3_ENDPOINT is required for the s3 backend")
		}
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return Config{}, fmt.Errorf("S3_BUCKET is required for the s3 backend")
		}
		if strings.TrimSpace(cfg.S3AccessKey) == "" || strings.TrimSpace(cfg.S3SecretKey) == "" {
			return Config{}, fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required for the s3 backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_BACKEND %q (expected local, db, or s3)", cfg.StorageBackend)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt64(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseList(raw string) []string {
	replacer := strings.NewReplacer("\n", ",", ";", ",")
	normalized := replacer.Replace(raw)
	parts := strings.Split(normalized, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
