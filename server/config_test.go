package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/echotools/groupseed/internal/intents"
	"github.com/echotools/groupseed/seeding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_IsValid(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 7350, cfg.API.Port)
	assert.Equal(t, "balanced", cfg.Distribution.Strategy)
}

func TestParseConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := `
name: seeding-eu
logger:
  level: debug
api:
  port: 8080
  keys:
    secret-a: distribute
    secret-b: distribute,settings
distribution:
  strategy: snake_draft
  max_per_group: 4
  tiers:
    - key: open
    - key: u18
      group_count: 2
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := ParseConfigFile(loggerForTest(t), path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "seeding-eu", cfg.Name)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, int64(4*1024*1024), cfg.API.MaxRequestSizeBytes, "unset fields keep their defaults")
	assert.Equal(t, intents.Intent{Distribute: true}, cfg.API.Keys["secret-a"])
	assert.Equal(t, intents.All, cfg.API.Keys["secret-b"])

	require.Len(t, cfg.Distribution.Tiers, 2)
	assert.Equal(t, 1, cfg.Distribution.DefaultGroupCount)
	assert.Equal(t, seeding.DefaultSweepLimit, cfg.Distribution.SweepLimit)
	assert.Equal(t, 2, *cfg.Distribution.Tiers[1].GroupCount)
}

func TestParseConfigFile_Errors(t *testing.T) {
	_, err := ParseConfigFile(loggerForTest(t), filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  keys:\n    k: admin\n"), 0o600))
	_, err = ParseConfigFile(loggerForTest(t), path)
	assert.ErrorContains(t, err, `unknown intent "admin"`)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty name", func(c *Config) { c.Name = " " }, "name must be set"},
		{"bad level", func(c *Config) { c.Logger.Level = "trace" }, "logger.level"},
		{"bad format", func(c *Config) { c.Logger.Format = "xml" }, "logger mode invalid"},
		{"rotation without file", func(c *Config) { c.Logger.Rotation = true }, "logger.file"},
		{"port", func(c *Config) { c.API.Port = 0 }, "api.port"},
		{"request size", func(c *Config) { c.API.MaxRequestSizeBytes = 0 }, "api.max_request_size_bytes"},
		{"burst", func(c *Config) { c.API.RateBurst = 0 }, "api.rate_burst"},
		{"reporting", func(c *Config) { c.Metrics.ReportingFreqSec = 0 }, "metrics.reporting_freq_sec"},
		{"distribution", func(c *Config) { c.Distribution.Strategy = "chaos" }, "distribution:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}

	t.Run("rate limit disabled ignores burst", func(t *testing.T) {
		cfg := NewConfig()
		cfg.API.RateLimit = 0
		cfg.API.RateBurst = 0
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_Clone(t *testing.T) {
	cfg := NewConfig()
	cfg.API.Keys["k"] = intents.All
	cfg.Distribution.Tiers[0].Capacity = intPtr(3)

	clone := cfg.Clone()
	clone.Name = "other"
	clone.API.Port = 1
	clone.API.Keys["k"] = intents.Intent{}
	*clone.Distribution.Tiers[0].Capacity = 9
	clone.Logger.Level = "error"

	assert.Equal(t, "groupseed", cfg.Name)
	assert.Equal(t, 7350, cfg.API.Port)
	assert.Equal(t, intents.All, cfg.API.Keys["k"])
	assert.Equal(t, 3, *cfg.Distribution.Tiers[0].Capacity)
	assert.Equal(t, "info", cfg.Logger.Level)
}
