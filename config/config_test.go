package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp 切到空目录，避免读到仓库里的 config.yaml
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Graph.MirrorRetries)
	assert.Equal(t, 3*time.Second, cfg.Graph.StoreTimeout)
	assert.Equal(t, 5, cfg.Content.TrendingLimit)
	assert.Equal(t, 20, cfg.Content.SearchLimit)
	assert.Equal(t, 30*time.Second, cfg.Redis.TrendingTTL)
	assert.Equal(t, 5*time.Minute, cfg.Fanout.ClaimTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("APP_DATABASE_DRIVER", "sqlite")
	t.Setenv("APP_DATABASE_DSN", "file::memory:")
	t.Setenv("APP_CONTENT_MIN_WORD_COUNT", "50")
	t.Setenv("APP_GRAPH_RETRY_DELAY", "10ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file::memory:", cfg.Database.DSN)
	assert.Equal(t, 50, cfg.Content.MinWordCount)
	assert.Equal(t, 10*time.Millisecond, cfg.Graph.RetryDelay)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	chdirTemp(t)
	t.Setenv("APP_DATABASE_DRIVER", "mongo")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: "sqlite", DSN: "x"},
			Graph:    GraphConfig{StoreTimeout: time.Second, MirrorRetries: 1, ToggleAttempts: 1},
			Content:  ContentConfig{MinWordCount: 1, TrendingLimit: 5, SearchLimit: 20},
			Views:    ViewsConfig{Workers: 1, QueueSize: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Graph.StoreTimeout = 0 }, wantErr: true},
		{name: "zero retries", mutate: func(c *Config) { c.Graph.MirrorRetries = 0 }, wantErr: true},
		{name: "zero min words", mutate: func(c *Config) { c.Content.MinWordCount = 0 }, wantErr: true},
		{name: "zero view workers", mutate: func(c *Config) { c.Views.Workers = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
