package resources

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(NewViper(), "club-directory", "1.0")
	require.NoError(t, err)

	assert.Equal(t, "club-directory", cfg.Name)
	assert.Equal(t, "localhost", cfg.HTTPHost)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "6060", cfg.DebugPort)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, 12*time.Hour, cfg.AuthTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.InviteTokenTTL)
	assert.False(t, cfg.OtelEnabled)
	assert.False(t, cfg.Configured())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Parallel()

	v := NewViper()
	v.Set("DB_HOST", "db.internal")
	v.Set("AUTH_SECRET", "0123456789abcdefghij")
	v.Set("AUTH_TOKEN_TTL", "30m")
	v.Set("OTEL_ENABLED", "true")

	cfg, err := LoadConfig(v, "club-directory", "1.0")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 30*time.Minute, cfg.AuthTokenTTL)
	assert.True(t, cfg.OtelEnabled)
	assert.True(t, cfg.Configured())
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	v := NewViper()
	v.Set("AUTH_TOKEN_TTL", "never")
	v.Set("HTTP_PORT", "")

	_, err := LoadConfig(v, "club-directory", "1.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_TOKEN_TTL")
	assert.Contains(t, err.Error(), "HTTP_PORT")
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT: \"9090\"\nDB_HOST: localhost\n"), 0o600))

	v := NewViper()
	v.Set("CONFIG_FILE", path)

	cfg, err := LoadConfig(v, "club-directory", "1.0")
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "localhost", cfg.DB.Host)

	v = NewViper()
	v.Set("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err = LoadConfig(v, "club-directory", "1.0")
	require.Error(t, err)
}

func TestConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{name: "missing host", cfg: Config{AuthSecret: "0123456789abcdefghij"}, want: false},
		{name: "short secret", cfg: Config{DB: DBConfig{Host: "db"}, AuthSecret: "short"}, want: false},
		{name: "complete", cfg: Config{DB: DBConfig{Host: "db"}, AuthSecret: "0123456789abcdefghij"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.Configured())
		})
	}
}

func TestConnectionString(t *testing.T) {
	t.Parallel()

	dsn := ConnectionString(DBConfig{User: "clubs", Password: "p@ss word", Host: "db", Port: "5432", Name: "clubs"})
	assert.Equal(t, "postgres://clubs:p%40ss%20word@db:5432/clubs", dsn)
}
