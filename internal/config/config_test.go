package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, CacheRedis, cfg.CacheDriver)
	assert.Equal(t, 24*time.Hour, cfg.ListTTL)
	assert.Equal(t, 5*time.Minute, cfg.CountTTL)
	assert.Equal(t, 2000, cfg.WarmWindow)
	assert.Equal(t, "public", cfg.DBScheme)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("CACHE_DRIVER", "memory")
	t.Setenv("LIST_TTL", "2h")
	t.Setenv("COUNT_TTL", "30s")
	t.Setenv("WARM_WINDOW", "500")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("S3_ENDPOINT", "localhost:9000")
	t.Setenv("S3_BUCKET", "reports")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, CacheMemory, cfg.CacheDriver)
	assert.Equal(t, 2*time.Hour, cfg.ListTTL)
	assert.Equal(t, 30*time.Second, cfg.CountTTL)
	assert.Equal(t, 500, cfg.WarmWindow)
	assert.True(t, cfg.ArchiveEnabled())

	s := cfg.String()
	assert.NotContains(t, s, "secret")
	assert.Contains(t, s, "DBPassword: ********")
}

func TestLoadFromEnv_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("CACHE_DRIVER", "memcached")
	_, err := LoadFromEnv()
	assert.ErrorIs(t, err, domain.ErrBadParams)
}
