package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromYAML(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
dir: /tmp/downloads
debug: true
timeout: 5s
refresh: 1s
proxy: http://proxy.local:3128
`)))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/downloads", cfg.Dir)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, time.Second, cfg.Refresh)
	assert.Equal(t, "http://proxy.local:3128", cfg.HTTPClientConfig().ProxyURL)

	tc := cfg.TransferConfig()
	assert.Equal(t, "/tmp/downloads", tc.Dir)
	assert.NotNil(t, tc.Client)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty dir", func(c *Config) { c.Dir = "" }},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"zero refresh", func(c *Config) { c.Refresh = 0 }},
		{"bad proxy", func(c *Config) { c.Proxy = "not a url" }},
		{"negative buffer", func(c *Config) { c.BufferSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBootstrapURLs(t *testing.T) {
	for _, key := range append(BootstrapVars, URLListVar) {
		t.Setenv(key, "")
	}
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MEDIUM_FILE_URL=https://x.test/medium.bin\n"), 0644))
	t.Setenv("SMALL_FILE_URL", "https://x.test/small.bin")
	t.Setenv(URLListVar, "https://x.test/a.bin, https://x.test/b.bin,")
	os.Unsetenv("MEDIUM_FILE_URL")

	urls, err := BootstrapURLs(envFile)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://x.test/small.bin",
		"https://x.test/medium.bin",
		"https://x.test/a.bin",
		"https://x.test/b.bin",
	}, urls)
}

func TestBootstrapURLsMissingEnvFile(t *testing.T) {
	for _, key := range append(BootstrapVars, URLListVar) {
		t.Setenv(key, "")
	}
	urls, err := BootstrapURLs(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Empty(t, urls)
}
