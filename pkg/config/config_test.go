package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.Import.ProposalTTL)
	assert.Equal(t, int64(5*1024*1024), cfg.Import.MaxUploadSize)
	assert.Empty(t, cfg.Import.TimeSlots)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("API_PREFIX", "api/v2/")
	t.Setenv("DATABASE_URL", "postgres://u@db/tutor")
	t.Setenv("IMPORT_PROPOSAL_TTL", "2h")
	t.Setenv("IMPORT_TIME_SLOTS", " 9:00, ,10:30 ")
	t.Setenv("ALLOWED_ORIGINS", "https://admin.example.com,http://localhost:5173")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "/api/v2", cfg.APIPrefix)
	assert.Equal(t, "postgres://u@db/tutor", cfg.Database.URL)
	assert.Equal(t, 2*time.Hour, cfg.Import.ProposalTTL)
	assert.Equal(t, []string{"9:00", "10:30"}, cfg.Import.TimeSlots)
	assert.Len(t, cfg.CORS.AllowedOrigins, 2)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:      EnvProduction,
			Port:     8080,
			Database: DatabaseConfig{Host: "db"},
			JWT:      JWTConfig{Secret: "s3cret"},
			Log:      LogConfig{Format: "json"},
			Import: ImportConfig{
				FetchTimeout:  time.Second,
				ProposalTTL:   time.Minute,
				MaxUploadSize: 1,
			},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"dev secret in production", func(c *Config) { c.JWT.Secret = devJWTSecret }, "JWT_SECRET must be set in production"},
		{"port", func(c *Config) { c.Port = 70000 }, "PORT 70000 out of range"},
		{"no database", func(c *Config) { c.Database = DatabaseConfig{} }, "DB_HOST or DATABASE_URL"},
		{"zero proposal ttl", func(c *Config) { c.Import.ProposalTTL = 0 }, "IMPORT_PROPOSAL_TTL"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, `LOG_FORMAT "xml"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	cfg := valid()
	cfg.Import.GridCacheTTL = 0
	require.NoError(t, cfg.Validate(), "zero grid TTL disables grid caching")
	cfg.Import.GridCacheTTL = -time.Second
	require.ErrorContains(t, cfg.Validate(), "IMPORT_GRID_CACHE_TTL is negative")

	cfg = valid()
	cfg.Port = 0
	cfg.Import.FetchTimeout = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT 0")
	assert.Contains(t, err.Error(), "SHEET_FETCH_TIMEOUT")
}
