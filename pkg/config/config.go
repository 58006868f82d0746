// Package config loads process settings from the environment, optionally
// seeded by a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devJWTSecret = "dev_secret"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Import   ImportConfig
}

// DatabaseConfig describes the Postgres pool. URL, when set, replaces the
// discrete connection fields.
type DatabaseConfig struct {
	URL             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

type RedisConfig struct {
	Enabled     bool
	URL         string
	Host        string
	Port        int
	Password    string
	DB          int
	DialTimeout time.Duration
}

// JWTConfig holds the HS256 verification key for tokens issued by the
// identity service. This API never signs tokens itself.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ImportConfig tunes the spreadsheet import pipeline.
type ImportConfig struct {
	FetchTimeout  time.Duration
	FetchRPS      float64
	FetchBurst    int
	SheetsAPIKey  string
	ProposalTTL   time.Duration
	GridCacheTTL  time.Duration // 0 fetches every sheet afresh
	CacheEnabled  bool
	TimeSlots     []string
	MaxUploadSize int64
	PDFFontPath   string
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads settings and validates them. Real environment variables win over
// .env entries.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	cfg := &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetInt("PORT"),
		APIPrefix: "/" + strings.Trim(v.GetString("API_PREFIX"), "/"),
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSL_MODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			ConnectTimeout:  v.GetDuration("DB_CONNECT_TIMEOUT"),
		},
		Redis: RedisConfig{
			Enabled:     v.GetBool("REDIS_ENABLED"),
			URL:         v.GetString("REDIS_URL"),
			Host:        v.GetString("REDIS_HOST"),
			Port:        v.GetInt("REDIS_PORT"),
			Password:    v.GetString("REDIS_PASSWORD"),
			DB:          v.GetInt("REDIS_DB"),
			DialTimeout: v.GetDuration("REDIS_DIAL_TIMEOUT"),
		},
		JWT: JWTConfig{
			Secret:   v.GetString("JWT_SECRET"),
			Issuer:   v.GetString("JWT_ISSUER"),
			Audience: v.GetString("JWT_AUDIENCE"),
		},
		CORS: CORSConfig{AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS"))},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Import: ImportConfig{
			FetchTimeout:  v.GetDuration("SHEET_FETCH_TIMEOUT"),
			FetchRPS:      v.GetFloat64("SHEET_FETCH_RPS"),
			FetchBurst:    v.GetInt("SHEET_FETCH_BURST"),
			SheetsAPIKey:  v.GetString("SHEETS_API_KEY"),
			ProposalTTL:   v.GetDuration("IMPORT_PROPOSAL_TTL"),
			GridCacheTTL:  v.GetDuration("IMPORT_GRID_CACHE_TTL"),
			CacheEnabled:  v.GetBool("ENABLE_IMPORT_CACHE"),
			TimeSlots:     splitList(v.GetString("IMPORT_TIME_SLOTS")),
			MaxUploadSize: v.GetInt64("IMPORT_MAX_UPLOAD_SIZE"),
			PDFFontPath:   v.GetString("IMPORT_PDF_FONT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Port > 0 && c.Port < 65536, "PORT %d out of range", c.Port)
	check(c.Env != EnvProduction || (c.JWT.Secret != "" && c.JWT.Secret != devJWTSecret),
		"JWT_SECRET must be set in production")
	check(c.JWT.Secret != "", "JWT_SECRET is empty")
	check(c.Database.URL != "" || c.Database.Host != "", "DB_HOST or DATABASE_URL is required")
	check(c.Database.ConnectTimeout >= 0, "DB_CONNECT_TIMEOUT is negative")
	check(c.Import.FetchTimeout > 0, "SHEET_FETCH_TIMEOUT must be positive")
	check(c.Import.ProposalTTL > 0, "IMPORT_PROPOSAL_TTL must be positive")
	check(c.Import.GridCacheTTL >= 0, "IMPORT_GRID_CACHE_TTL is negative")
	check(c.Import.FetchRPS >= 0, "SHEET_FETCH_RPS is negative")
	check(c.Import.MaxUploadSize > 0, "IMPORT_MAX_UPLOAD_SIZE must be positive")
	check(c.Log.Format == "json" || c.Log.Format == "console", "LOG_FORMAT %q is not json or console", c.Log.Format)

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]interface{}{
		"ENV":        EnvDevelopment,
		"PORT":       8080,
		"API_PREFIX": "/api/v1",

		"DB_HOST":               "localhost",
		"DB_PORT":               5432,
		"DB_USER":               "postgres",
		"DB_PASSWORD":           "postgres",
		"DB_NAME":               "tutor_schedule",
		"DB_SSL_MODE":           "disable",
		"DB_MAX_OPEN_CONNS":     10,
		"DB_MAX_IDLE_CONNS":     5,
		"DB_CONN_MAX_LIFETIME":  "1h",
		"DB_CONN_MAX_IDLE_TIME": "30m",
		"DB_CONNECT_TIMEOUT":    "5s",

		"REDIS_ENABLED":      false,
		"REDIS_HOST":         "localhost",
		"REDIS_PORT":         6379,
		"REDIS_DB":           0,
		"REDIS_DIAL_TIMEOUT": "5s",

		"JWT_SECRET": devJWTSecret,
		"LOG_LEVEL":  "info",
		"LOG_FORMAT": "json",

		"SHEET_FETCH_TIMEOUT":    "15s",
		"SHEET_FETCH_RPS":        2,
		"SHEET_FETCH_BURST":      4,
		"IMPORT_PROPOSAL_TTL":    "30m",
		"IMPORT_GRID_CACHE_TTL":  "5m",
		"ENABLE_IMPORT_CACHE":    false,
		"IMPORT_MAX_UPLOAD_SIZE": 5 * 1024 * 1024,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
