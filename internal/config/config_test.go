package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/shop")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, int32(25), cfg.DB.MaxConns)
	assert.Equal(t, "read_committed", cfg.DB.TxIsolation)
	assert.Equal(t, 30*time.Second, cfg.DB.StatementTimeout)
	assert.Equal(t, 5*time.Second, cfg.DB.LockTimeout)
	assert.Equal(t, "shopledger.events", cfg.Redis.Channel)
	assert.Equal(t, "0 3 * * *", cfg.Reconcile.Schedule)
	assert.Equal(t, "strict", cfg.Numerator.Strategy)
	assert.False(t, cfg.Auth.Enabled())
	assert.False(t, cfg.Mail.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/shop")
	t.Setenv("DB_TX_ISOLATION", "SERIALIZABLE")
	t.Setenv("DB_LOCK_TIMEOUT", "250ms")
	t.Setenv("OUTBOX_BATCH_SIZE", "10")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "serializable", cfg.DB.TxIsolation)
	assert.Equal(t, 250*time.Millisecond, cfg.DB.LockTimeout)
	assert.Equal(t, 10, cfg.Outbox.BatchSize)
	assert.True(t, cfg.Auth.Enabled())
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_URL=postgres://from-file/shop\nAPP_PORT=9090\n"), 0o600))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("APP_PORT", "")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("APP_PORT")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://from-file/shop", cfg.DB.URL)
	assert.Equal(t, "9090", cfg.App.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL"},
		{"bad isolation", map[string]string{"DB_TX_ISOLATION": "chaos"}, "DB_TX_ISOLATION"},
		{"bad numerator", map[string]string{"NUMERATOR_STRATEGY": "random"}, "NUMERATOR_STRATEGY"},
		{"min above max", map[string]string{"DB_MIN_CONNS": "50"}, "DB_MIN_CONNS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/shop")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
