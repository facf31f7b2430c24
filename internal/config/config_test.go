package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "Zq8vL2mN4pR6tX0yB3dF5hJ7kM9wS1uQ"

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("S3_BUCKET", "covers")

	cfg, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.S3.Enabled())
	assert.Equal(t, "us-east-1", cfg.S3.Region)
	assert.False(t, cfg.UseRedis())
}

func TestLoadEnv_RejectsWeakSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	_, err := LoadEnv()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "replace-this-with-a-real-secret-value-now")
	_, err = LoadEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder")
}

func TestLoadEnv_ProductionNeedsDatabase(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "")
	_, err := LoadEnv()
	require.Error(t, err)
}

func TestRedisOptions(t *testing.T) {
	e := Env{RedisAddr: "redis://:pw@cache:6380/2"}
	opts, warn, err := e.RedisOptions()
	require.NoError(t, err)
	assert.Empty(t, warn)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	e = Env{RedisAddr: "cache:6379", RedisPassword: "secret", Environment: "development"}
	opts, _, err = e.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "secret", opts.Password)
}

func TestManager_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "site.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)
	site := m.Get()
	assert.Equal(t, 10, site.Articles.DefaultPageSize)
	assert.Equal(t, 100, site.Articles.MaxPageSize)
	assert.Equal(t, 1250, site.Newsletter.Recipients)
}

func TestManager_UpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	require.NoError(t, m.Update(func(s *Site) error {
		s.Newsletter.Recipients = 42
		return nil
	}))

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, 42, reloaded.Get().Newsletter.Recipients)
}

func TestManager_UpdateRejectsInvalid(t *testing.T) {
	m := NewStaticManager(nil)
	err := m.Update(func(s *Site) error {
		s.Newsletter.OpenRate = 140
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 32.5, m.Get().Newsletter.OpenRate)

	sentinel := errors.New("stop")
	assert.ErrorIs(t, m.Update(func(*Site) error { return sentinel }), sentinel)
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "32.5%", FormatRate(32.5))
	assert.Equal(t, "0%", FormatRate(0))
}
