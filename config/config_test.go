package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_KEY", "")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, DatabaseDriverPostgres, cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, MQBackendNone, cfg.MQ.Backend)
	assert.False(t, cfg.DevMode())
	assert.Empty(t, cfg.Auth.AdminKey)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "  s3cret  ")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("ADMIN_KEY", "letmein")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("MQ_BACKEND", "RabbitMQ")
	t.Setenv("AUTH_RATE_LIMIT_PER_MINUTE", "0")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "letmein", cfg.Auth.AdminKey)
	assert.Equal(t, DatabaseDriverMemory, cfg.Database.Driver)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, MQBackendRabbitMQ, cfg.MQ.Backend)
	assert.Zero(t, cfg.RateLimit.AuthRequestsPerMinute)
}

func TestGetEnvDuration(t *testing.T) {
	t.Run("duration string", func(t *testing.T) {
		t.Setenv("X_TTL", "2h")
		assert.Equal(t, 2*time.Hour, getEnvDuration("X_TTL", time.Minute))
	})

	t.Run("bare minutes", func(t *testing.T) {
		t.Setenv("X_TTL", "15")
		assert.Equal(t, 15*time.Minute, getEnvDuration("X_TTL", time.Minute))
	})

	t.Run("garbage falls back", func(t *testing.T) {
		t.Setenv("X_TTL", "soon")
		assert.Equal(t, time.Minute, getEnvDuration("X_TTL", time.Minute))
	})
}

func TestValidate(t *testing.T) {
	valid := Config{
		Database: DatabaseConfig{Driver: DatabaseDriverPostgres},
		Auth:     AuthConfig{JWTSecret: "k", TokenTTL: time.Hour},
		MQ:       MQConfig{Backend: MQBackendNone},
	}
	require.NoError(t, valid.Validate())

	t.Run("missing secret", func(t *testing.T) {
		cfg := valid
		cfg.Auth.JWTSecret = ""
		require.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		cfg := valid
		cfg.Auth.TokenTTL = 0
		require.ErrorContains(t, cfg.Validate(), "JWT_TTL")
	})

	t.Run("unknown driver and backend", func(t *testing.T) {
		cfg := valid
		cfg.Database.Driver = "mysql"
		cfg.MQ.Backend = "kafka"
		err := cfg.Validate()
		require.ErrorContains(t, err, "DB_DRIVER")
		require.ErrorContains(t, err, "MQ_BACKEND")
	})

	t.Run("empty admin key is allowed", func(t *testing.T) {
		cfg := valid
		cfg.Auth.AdminKey = ""
		require.NoError(t, cfg.Validate())
	})
}
