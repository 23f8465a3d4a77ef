package redbikecfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "roundrobin:A", cfg.Redbike.Worker)
	assert.Equal(t, "redbike", cfg.Redbike.Prefix)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedbikeRedis.Addr)
	assert.Equal(t, 10*time.Second, cfg.Redbike.DefaultTimeoutDuration())
}

func TestLoadOverridesDefaultsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redbike.toml")
	content := `
[redbike]
worker = "roundrobin:A:B:C"
prefix = "myapp"
default-timeout = 30

[redbike-redis]
addr = "redis.internal:6380"
db = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "roundrobin:A:B:C", cfg.Redbike.Worker)
	assert.Equal(t, "myapp", cfg.Redbike.Prefix)
	assert.Equal(t, 30*time.Second, cfg.Redbike.DefaultTimeoutDuration())
	assert.Equal(t, "redis.internal:6380", cfg.RedbikeRedis.Addr)
	assert.Equal(t, 2, cfg.RedbikeRedis.DB)
	// Unspecified keys still fall back to defaults.
	assert.Equal(t, 5*time.Second, cfg.RedbikeRedis.DialTimeoutDuration())
}
