package config

import (
	"os"
	"strconv"
	"time"
)

// ServerConfig holds settings for the HTTP server runtime.
type ServerConfig struct {
	ListenAddr    string
	Database      DatabaseConfig
	JWT           JWTConfig
	Uploads       UploadConfig
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	ShutdownGrace time.Duration
}

// DatabaseConfig captures storage configuration.
type DatabaseConfig struct {
	Path string
}

// JWTConfig defines token issuance parameters.
type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// UploadConfig bounds image uploads and places them on disk.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// LoadServerConfig builds the server configuration from environment variables with sensible defaults.
func LoadServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:    envOrDefault("LINKUP_LISTEN_ADDR", ":8080"),
		Database:      DatabaseConfig{Path: envOrDefault("LINKUP_DB_PATH", "linkup.db")},
		JWT:           loadJWTConfig(),
		Uploads:       loadUploadConfig(),
		ReadTimeout:   envDuration("LINKUP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:  envDuration("LINKUP_WRITE_TIMEOUT", 15*time.Second),
		ShutdownGrace: envDuration("LINKUP_SHUTDOWN_GRACE", 10*time.Second),
	}
}

func loadJWTConfig() JWTConfig {
	expiration := envDuration("LINKUP_JWT_EXPIRATION", 24*time.Hour)
	return JWTConfig{
		Secret:     envOrDefault("LINKUP_JWT_SECRET", "replace-me"),
		Issuer:     envOrDefault("LINKUP_JWT_ISSUER", "linkup"),
		Expiration: expiration,
	}
}

func loadUploadConfig() UploadConfig {
	return UploadConfig{
		Dir:      envOrDefault("LINKUP_UPLOAD_DIR", "uploads"),
		MaxBytes: envInt64("LINKUP_MAX_UPLOAD_BYTES", 5<<20),
	}
}

func envOrDefault(key, value string) string {
	if env, ok := os.LookupEnv(key); ok {
		return env
	}
	return value
}

func envDuration(key string, def time.Duration) time.Duration {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(env); err == nil {
			return parsed
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(env, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}
