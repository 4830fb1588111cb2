package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	Auth      AuthConfig
	S3        S3Config
	Log       LogConfig
	Queue     QueueConfig
	Extract   ExtractConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Email     EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	AccessTokenExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer            string        `mapstructure:"issuer"`
}

// APIKeyCredential is one accepted API key: the owner it authenticates as
// and the bcrypt hash of the key material.
type APIKeyCredential struct {
	OwnerID string
	Hash    string
}

// AuthConfig holds API key authentication settings. Keys arrive as a
// comma-separated list of owner:bcrypt-hash pairs.
type AuthConfig struct {
	APIKeys []APIKeyCredential
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// QueueConfig holds ingest queue settings.
type QueueConfig struct {
	Capacity           int `mapstructure:"capacity"`
	Concurrency        int `mapstructure:"concurrency"`
	ProcessTimeoutSecs int `mapstructure:"process_timeout_secs"`
}

// ProcessTimeout returns the per-document processing deadline.
func (q *QueueConfig) ProcessTimeout() time.Duration {
	return time.Duration(q.ProcessTimeoutSecs) * time.Second
}

// ExtractConfig holds extraction pipeline thresholds.
type ExtractConfig struct {
	MinImageDim    int     `mapstructure:"min_image_dim"`
	MaxImageSizeMB float64 `mapstructure:"max_image_size_mb"`
}

// MaxImageBytes returns the recompression ceiling in bytes.
func (e *ExtractConfig) MaxImageBytes() int {
	return int(e.MaxImageSizeMB * 1024 * 1024)
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EmailConfig holds email delivery settings for failure alerts.
type EmailConfig struct {
	Provider     string `mapstructure:"provider"`
	Region       string `mapstructure:"region"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
	AlertAddress string `mapstructure:"alert_address"`
}

// Load reads configuration from environment variables with the VETSCAN_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VETSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "vetscan")
	v.SetDefault("db.password", "vetscan_secret")
	v.SetDefault("db.name", "vetscan_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "15m")
	v.SetDefault("jwt.issuer", "vetscan")

	// Auth defaults
	v.SetDefault("auth.api_keys", "")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "vetscan-reports")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Queue defaults
	v.SetDefault("queue.capacity", 100)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.process_timeout_secs", 300)

	// Extraction defaults
	v.SetDefault("extract.min_image_dim", 100)
	v.SetDefault("extract.max_image_size_mb", 2.0)

	// Rate limit defaults
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@vetscan.local")
	v.SetDefault("email.from_name", "VetScan")
	v.SetDefault("email.alert_address", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "VETSCAN_SERVER_PORT",
		"server.read_timeout":            "VETSCAN_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "VETSCAN_SERVER_WRITE_TIMEOUT",
		"server.environment":             "VETSCAN_SERVER_ENVIRONMENT",
		"db.host":                        "VETSCAN_DB_HOST",
		"db.port":                        "VETSCAN_DB_PORT",
		"db.user":                        "VETSCAN_DB_USER",
		"db.password":                    "VETSCAN_DB_PASSWORD",
		"db.name":                        "VETSCAN_DB_NAME",
		"db.sslmode":                     "VETSCAN_DB_SSLMODE",
		"db.max_open":                    "VETSCAN_DB_MAX_OPEN",
		"db.max_idle":                    "VETSCAN_DB_MAX_IDLE",
		"jwt.secret":                     "VETSCAN_JWT_SECRET",
		"jwt.access_expiry":              "VETSCAN_JWT_ACCESS_EXPIRY",
		"jwt.issuer":                     "VETSCAN_JWT_ISSUER",
		"auth.api_keys":                  "VETSCAN_AUTH_API_KEYS",
		"s3.region":                      "VETSCAN_S3_REGION",
		"s3.bucket":                      "VETSCAN_S3_BUCKET",
		"s3.endpoint":                    "VETSCAN_S3_ENDPOINT",
		"s3.access_key":                  "VETSCAN_S3_ACCESS_KEY",
		"s3.secret_key":                  "VETSCAN_S3_SECRET_KEY",
		"s3.max_file_size_mb":            "VETSCAN_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":              "VETSCAN_S3_PRESIGN_EXPIRY",
		"log.level":                      "VETSCAN_LOG_LEVEL",
		"log.format":                     "VETSCAN_LOG_FORMAT",
		"queue.capacity":                 "VETSCAN_QUEUE_CAPACITY",
		"queue.concurrency":              "VETSCAN_QUEUE_CONCURRENCY",
		"queue.process_timeout_secs":     "VETSCAN_QUEUE_PROCESS_TIMEOUT_SECS",
		"extract.min_image_dim":          "VETSCAN_EXTRACT_MIN_IMAGE_DIM",
		"extract.max_image_size_mb":      "VETSCAN_EXTRACT_MAX_IMAGE_SIZE_MB",
		"rate_limit.requests_per_second": "VETSCAN_RATE_LIMIT_REQUESTS_PER_SECOND",
		"rate_limit.burst":               "VETSCAN_RATE_LIMIT_BURST",
		"cors.allowed_origins":           "VETSCAN_CORS_ALLOWED_ORIGINS",
		"email.provider":                 "VETSCAN_EMAIL_PROVIDER",
		"email.region":                   "VETSCAN_EMAIL_REGION",
		"email.from_address":             "VETSCAN_EMAIL_FROM_ADDRESS",
		"email.from_name":                "VETSCAN_EMAIL_FROM_NAME",
		"email.alert_address":            "VETSCAN_EMAIL_ALERT_ADDRESS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if VETSCAN_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("VETSCAN_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:            v.GetString("jwt.secret"),
		AccessTokenExpiry: v.GetDuration("jwt.access_expiry"),
		Issuer:            v.GetString("jwt.issuer"),
	}

	apiKeys, err := parseAPIKeys(v.GetString("auth.api_keys"))
	if err != nil {
		return nil, fmt.Errorf("parsing auth.api_keys: %w", err)
	}
	cfg.Auth = AuthConfig{APIKeys: apiKeys}

	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Queue = QueueConfig{
		Capacity:           v.GetInt("queue.capacity"),
		Concurrency:        v.GetInt("queue.concurrency"),
		ProcessTimeoutSecs: v.GetInt("queue.process_timeout_secs"),
	}
	cfg.Extract = ExtractConfig{
		MinImageDim:    v.GetInt("extract.min_image_dim"),
		MaxImageSizeMB: v.GetFloat64("extract.max_image_size_mb"),
	}
	cfg.RateLimit = RateLimitConfig{
		RequestsPerSecond: v.GetFloat64("rate_limit.requests_per_second"),
		Burst:             v.GetInt("rate_limit.burst"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Email = EmailConfig{
		Provider:     v.GetString("email.provider"),
		Region:       v.GetString("email.region"),
		FromAddress:  v.GetString("email.from_address"),
		FromName:     v.GetString("email.from_name"),
		AlertAddress: v.GetString("email.alert_address"),
	}

	return cfg, nil
}

// parseAPIKeys splits a comma-separated list of owner:bcrypt-hash pairs.
// bcrypt hashes contain no commas or colons beyond their $-delimited prefix,
// so splitting on the first colon is safe.
func parseAPIKeys(raw string) ([]APIKeyCredential, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var creds []APIKeyCredential
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		owner, hash, ok := strings.Cut(pair, ":")
		if !ok || owner == "" || hash == "" {
			return nil, fmt.Errorf("malformed api key entry %q, want owner:hash", pair)
		}
		creds = append(creds, APIKeyCredential{OwnerID: owner, Hash: hash})
	}
	return creds, nil
}
