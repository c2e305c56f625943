// Package config provides configuration management and environment variable handling for the application
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Counter store backends
const (
	SequenceStorePostgres = "postgres"
	SequenceStoreSQLite   = "sqlite"
)

// ProductionConfig holds all configuration for the portal service
type ProductionConfig struct {
	Database   DatabaseConfig   `json:"database"`
	Server     ServerConfig     `json:"server"`
	Security   SecurityConfig   `json:"security"`
	JWT        JWTConfig        `json:"jwt"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Cache      CacheConfig      `json:"cache"`
	Sequence   SequenceConfig   `json:"sequence"`
	Deployment DeploymentConfig `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
	AutoMigrate     bool          `json:"auto_migrate"`
}

// DSN renders the libpq connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type ServerConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	WriteTimeout      time.Duration `json:"write_timeout"`
	IdleTimeout       time.Duration `json:"idle_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	BodyLimit         int           `json:"body_limit"`
	TrustedProxies    []string      `json:"trusted_proxies"`
	ProxyHeader       string        `json:"proxy_header"`
	EnableCompression bool          `json:"enable_compression"`
}

type SecurityConfig struct {
	TLSEnabled  bool   `json:"tls_enabled"`
	TLSCertFile string `json:"tls_cert_file"`
	TLSKeyFile  string `json:"tls_key_file"`
	HSTSMaxAge  int    `json:"hsts_max_age"`

	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	CORSMaxAge       int      `json:"cors_max_age"`

	GlobalRateLimit int           `json:"global_rate_limit"` // requests per window
	RateLimitWindow time.Duration `json:"rate_limit_window"`

	CSPPolicy      string `json:"csp_policy"`
	XFrameOptions  string `json:"x_frame_options"`
	ReferrerPolicy string `json:"referrer_policy"`
}

// JWTConfig configures verification of admin tokens. Tokens are issued by portalctl.
type JWTConfig struct {
	SecretKey     string        `json:"secret_key"`
	AdminTokenTTL time.Duration `json:"admin_token_ttl"`
	Issuer        string        `json:"issuer"`
	Audience      string        `json:"audience"`
}

type LoggingConfig struct {
	Level            string `json:"level"`  // debug, info, warn, error
	Format           string `json:"format"` // json, console
	Output           string `json:"output"` // stdout, stderr, file, both
	FilePath         string `json:"file_path"`
	MaxSize          int    `json:"max_size"` // MB
	MaxBackups       int    `json:"max_backups"`
	MaxAge           int    `json:"max_age"` // days
	Compress         bool   `json:"compress"`
	EnableCaller     bool   `json:"enable_caller"`
	EnableStacktrace bool   `json:"enable_stacktrace"`
	EnableAccessLog  bool   `json:"enable_access_log"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled        bool          `json:"enabled"`
	RedisURL       string        `json:"redis_url"`
	RedisDB        int           `json:"redis_db"`
	RedisPassword  string        `json:"redis_password"`
	HealthInterval time.Duration `json:"health_interval"`
}

// SequenceConfig selects the counter store and tunes the capacity monitor
type SequenceConfig struct {
	Store                string        `json:"store"` // postgres, sqlite
	SQLitePath           string        `json:"sqlite_path"`
	SQLitePoolSize       int           `json:"sqlite_pool_size"`
	MonitorInterval      time.Duration `json:"monitor_interval"`
	WarnRatio            float64       `json:"warn_ratio"`
	ProjectCreateRetries int           `json:"project_create_retries"`
	ProjectRetryDelay    time.Duration `json:"project_retry_delay"`
}

type DeploymentConfig struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
}

// IsDevelopment reports whether the service runs outside production
func (c DeploymentConfig) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "civic_portal"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", 500*time.Millisecond),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", false),
		},
		Server: ServerConfig{
			Host:              getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:              getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:       getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:   getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			RequestTimeout:    getEnvDuration("SERVER_REQUEST_TIMEOUT", 15*time.Second),
			BodyLimit:         getEnvInt("SERVER_BODY_LIMIT", 1024*1024),
			TrustedProxies:    getEnvStringSlice("SERVER_TRUSTED_PROXIES", []string{"127.0.0.1"}),
			ProxyHeader:       getEnvString("SERVER_PROXY_HEADER", "X-Real-IP"),
			EnableCompression: getEnvBool("SERVER_ENABLE_COMPRESSION", true),
		},
		Security: SecurityConfig{
			TLSEnabled:       getEnvBool("TLS_ENABLED", false),
			TLSCertFile:      getEnvString("TLS_CERT_FILE", ""),
			TLSKeyFile:       getEnvString("TLS_KEY_FILE", ""),
			HSTSMaxAge:       getEnvInt("HSTS_MAX_AGE", 31536000),
			AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getEnvStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "OPTIONS"}),
			AllowedHeaders:   getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
			CORSMaxAge:       getEnvInt("CORS_MAX_AGE", 86400),
			GlobalRateLimit:  getEnvInt("GLOBAL_RATE_LIMIT", 600),
			RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			CSPPolicy:        getEnvString("CSP_POLICY", "default-src 'self'"),
			XFrameOptions:    getEnvString("X_FRAME_OPTIONS", "DENY"),
			ReferrerPolicy:   getEnvString("REFERRER_POLICY", "strict-origin-when-cross-origin"),
		},
		JWT: JWTConfig{
			SecretKey:     getEnvString("JWT_SECRET_KEY", ""),
			AdminTokenTTL: getEnvDuration("JWT_ADMIN_TOKEN_TTL", 12*time.Hour),
			Issuer:        getEnvString("JWT_ISSUER", "civic-portal"),
			Audience:      getEnvString("JWT_AUDIENCE", "civic-portal-admin"),
		},
		Logging: LoggingConfig{
			Level:            getEnvString("LOG_LEVEL", "info"),
			Format:           getEnvString("LOG_FORMAT", "json"),
			Output:           getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:         getEnvString("LOG_FILE_PATH", "/var/log/civic-portal/app.log"),
			MaxSize:          getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups:       getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:           getEnvInt("LOG_MAX_AGE", 30),
			Compress:         getEnvBool("LOG_COMPRESS", true),
			EnableCaller:     getEnvBool("LOG_ENABLE_CALLER", true),
			EnableStacktrace: getEnvBool("LOG_ENABLE_STACKTRACE", false),
			EnableAccessLog:  getEnvBool("LOG_ENABLE_ACCESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:        getEnvBool("CACHE_ENABLED", true),
			RedisURL:       getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:        getEnvInt("CACHE_REDIS_DB", 0),
			RedisPassword:  getEnvString("REDIS_PASSWORD", ""),
			HealthInterval: getEnvDuration("CACHE_HEALTH_INTERVAL", 30*time.Second),
		},
		Sequence: SequenceConfig{
			Store:                getEnvString("SEQUENCE_STORE", SequenceStorePostgres),
			SQLitePath:           getEnvString("SEQUENCE_SQLITE_PATH", "data/sequences.db"),
			SQLitePoolSize:       getEnvInt("SEQUENCE_SQLITE_POOL_SIZE", 4),
			MonitorInterval:      getEnvDuration("SEQUENCE_MONITOR_INTERVAL", 5*time.Minute),
			WarnRatio:            getEnvFloat("SEQUENCE_WARN_RATIO", 0.9),
			ProjectCreateRetries: getEnvInt("PROJECT_CREATE_RETRIES", 3),
			ProjectRetryDelay:    getEnvDuration("PROJECT_RETRY_DELAY", 200*time.Millisecond),
		},
		Deployment: DeploymentConfig{
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
			CommitHash:  getEnvString("COMMIT_HASH", "unknown"),
			BuildTime:   getEnvString("BUILD_TIME", "unknown"),
		},
	}

	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateProductionConfig reports every configuration problem at once
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var problems []string

	if cfg.Database.Host == "" {
		problems = append(problems, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		problems = append(problems, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		problems = append(problems, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		problems = append(problems, "DB_USER is required")
	}
	if cfg.Database.Password == "" {
		problems = append(problems, "DB_PASSWORD is required")
	}

	if len(cfg.JWT.SecretKey) < 32 {
		problems = append(problems, "JWT_SECRET_KEY must be at least 32 characters long")
	}
	if cfg.JWT.AdminTokenTTL <= 0 {
		problems = append(problems, "JWT_ADMIN_TOKEN_TTL must be positive")
	}
	if cfg.JWT.Issuer == "" {
		problems = append(problems, "JWT_ISSUER is required")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		problems = append(problems, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 || cfg.Server.WriteTimeout <= 0 || cfg.Server.IdleTimeout <= 0 {
		problems = append(problems, "SERVER_READ_TIMEOUT, SERVER_WRITE_TIMEOUT and SERVER_IDLE_TIMEOUT must be positive")
	}

	if cfg.Security.TLSEnabled && (cfg.Security.TLSCertFile == "" || cfg.Security.TLSKeyFile == "") {
		problems = append(problems, "TLS_CERT_FILE and TLS_KEY_FILE are required when TLS is enabled")
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, cfg.Logging.Level) {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL must be one of: %v", levels))
	}
	outputs := []string{"stdout", "stderr", "file", "both"}
	if !slices.Contains(outputs, cfg.Logging.Output) {
		problems = append(problems, fmt.Sprintf("LOG_OUTPUT must be one of: %v", outputs))
	}
	if (cfg.Logging.Output == "file" || cfg.Logging.Output == "both") && cfg.Logging.FilePath == "" {
		problems = append(problems, "LOG_FILE_PATH is required when logging to a file")
	}

	if cfg.Cache.Enabled && cfg.Cache.RedisURL == "" {
		problems = append(problems, "CACHE_REDIS_URL is required when cache is enabled")
	}

	switch cfg.Sequence.Store {
	case SequenceStorePostgres:
	case SequenceStoreSQLite:
		if cfg.Sequence.SQLitePath == "" {
			problems = append(problems, "SEQUENCE_SQLITE_PATH is required for the sqlite store")
		}
		// sqlite cannot join the project transaction
		if !cfg.Deployment.IsDevelopment() {
			problems = append(problems, "SEQUENCE_STORE=sqlite is only allowed when APP_ENV is development")
		}
	default:
		problems = append(problems, "SEQUENCE_STORE must be postgres or sqlite")
	}
	if cfg.Sequence.MonitorInterval <= 0 {
		problems = append(problems, "SEQUENCE_MONITOR_INTERVAL must be positive")
	}
	if cfg.Sequence.WarnRatio <= 0 || cfg.Sequence.WarnRatio > 1 {
		problems = append(problems, "SEQUENCE_WARN_RATIO must be in (0, 1]")
	}
	if cfg.Sequence.ProjectCreateRetries < 1 {
		problems = append(problems, "PROJECT_CREATE_RETRIES must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}

	return nil
}
