package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/budget")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 168*time.Hour, cfg.JWTTTL)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, "single", cfg.IncomeCatchUp)
	assert.Equal(t, "@every 1h", cfg.IncomeSweepSchedule)
	assert.Equal(t, 4, cfg.IncomeSweepConcurrency)
	assert.True(t, cfg.MigrateOnStart)
	assert.False(t, cfg.BankEnabled())
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/budget")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("INCOME_CATCH_UP", "ALL")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("PLAID_CLIENT_ID", "id")
	t.Setenv("PLAID_SECRET", "shh")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "all", cfg.IncomeCatchUp)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.BankEnabled())
}

func TestValidateAggregatesProblems(t *testing.T) {
	cfg := &Config{
		JWTTTL:                 time.Hour,
		BcryptCost:             2,
		IncomeCatchUp:          "sometimes",
		IncomeSweepConcurrency: 0,
		PlaidEnv:               "sandbox",
	}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "configuration validation failed:")
	assert.Contains(t, msg, "- DATABASE_URL is required")
	assert.Contains(t, msg, "- JWT_SECRET is required")
	assert.Contains(t, msg, "BCRYPT_COST")
	assert.Contains(t, msg, "INCOME_CATCH_UP")
	assert.Contains(t, msg, "INCOME_SWEEP_CONCURRENCY")
}
