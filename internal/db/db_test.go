package db

import (
	"io/fs"
	"net/url"
	"testing"

	"github.com/daycare-hub/apiserver/config"
	"github.com/daycare-hub/apiserver/internal/db/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     6543,
		User:     "daycare",
		Password: "p@ss word",
		DBName:   "daycare_db",
	}

	t.Run("ssl disabled", func(t *testing.T) {
		u, err := url.Parse(DSN(cfg))
		require.NoError(t, err)
		assert.Equal(t, "postgres", u.Scheme)
		assert.Equal(t, "db.internal:6543", u.Host)
		assert.Equal(t, "/daycare_db", u.Path)
		pw, _ := u.User.Password()
		assert.Equal(t, "p@ss word", pw)
		assert.Equal(t, "disable", u.Query().Get("sslmode"))
	})

	t.Run("ssl required", func(t *testing.T) {
		withSSL := cfg
		withSSL.UseSSL = true
		u, err := url.Parse(DSN(withSSL))
		require.NoError(t, err)
		assert.Equal(t, "require", u.Query().Get("sslmode"))
	})
}

func TestEmbeddedMigrations(t *testing.T) {
	up, err := fs.ReadFile(migrations.FS, "000001_create_accounts.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "LOWER(email)")
	assert.Contains(t, string(up), "UNIQUE INDEX")

	_, err = fs.ReadFile(migrations.FS, "000001_create_accounts.down.sql")
	require.NoError(t, err)
}
