package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/nsdctl/internal/nsd/domain"
)

// writeTempPEM creates a placeholder credential file so the "file"
// validation tag can be satisfied in tests.
func writeTempPEM(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("-----BEGIN CERTIFICATE-----\n"), 0o600))
	return path
}

func TestLoadClient_Defaults(t *testing.T) {
	cfg, err := LoadClient()
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultHost, cfg.Host)
	assert.Equal(t, domain.DefaultPort, cfg.Port)
	assert.Equal(t, domain.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Insecure)
}

func TestLoadClient_EnvOverrides(t *testing.T) {
	t.Setenv("NSD_HOST", "ns1.example.net")
	t.Setenv("NSD_PORT", "9952")
	t.Setenv("NSD_TIMEOUT", "5s")
	t.Setenv("NSD_INSECURE", "true")
	t.Setenv("NSD_LOG_LEVEL", "debug")

	cfg, err := LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "ns1.example.net", cfg.Host)
	assert.Equal(t, 9952, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestClientConfig_Validate(t *testing.T) {
	cert := writeTempPEM(t, "client.pem")
	key := writeTempPEM(t, "client.key")

	t.Run("valid", func(t *testing.T) {
		cfg, err := LoadClient()
		require.NoError(t, err)
		cfg.ClientCert = cert
		cfg.ClientKey = key
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg, err := LoadClient()
		require.NoError(t, err)
		assert.Error(t, cfg.Validate())
	})

	t.Run("credential file does not exist", func(t *testing.T) {
		cfg, err := LoadClient()
		require.NoError(t, err)
		cfg.ClientCert = filepath.Join(t.TempDir(), "nope.pem")
		cfg.ClientKey = key
		assert.Error(t, cfg.Validate())
	})

	t.Run("port out of range", func(t *testing.T) {
		cfg, err := LoadClient()
		require.NoError(t, err)
		cfg.ClientCert = cert
		cfg.ClientKey = key
		cfg.Port = 70000
		assert.Error(t, cfg.Validate())
	})
}

func TestClientConfig_Endpoint(t *testing.T) {
	cfg := &ClientConfig{
		Host:       "ns1.example.net",
		Port:       9952,
		ClientCert: "/etc/nsd/client.pem",
		ClientKey:  "/etc/nsd/client.key",
		CABundle:   "/etc/nsd/ca.pem",
		Insecure:   true,
		Timeout:    5 * time.Second,
	}
	ep := cfg.Endpoint()
	assert.Equal(t, "ns1.example.net", ep.Host)
	assert.Equal(t, 9952, ep.Port)
	assert.Equal(t, "/etc/nsd/client.pem", ep.ClientCert)
	assert.Equal(t, "/etc/nsd/client.key", ep.ClientKey)
	assert.Equal(t, "/etc/nsd/ca.pem", ep.CABundle)
	assert.True(t, ep.Insecure)
	assert.Equal(t, 5*time.Second, ep.Timeout)
}

func TestLoadDaemon_Defaults(t *testing.T) {
	cfg, err := LoadDaemon()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8954", cfg.Bind)
	assert.Equal(t, "/var/lib/nsd/zones/", cfg.ZoneDir)
	assert.Equal(t, "%z/%s.zone", cfg.FilePattern)
	assert.Equal(t, "managed", cfg.DefaultPattern)
	assert.Equal(t, uint(256), cfg.CacheSize)
	assert.Equal(t, 10*time.Second, cfg.CacheTTL)
}

func TestLoadDaemon_EnvOverrides(t *testing.T) {
	t.Setenv("NSD_BIND", "0.0.0.0:8080")
	t.Setenv("NSD_ZONE_DIR", "/tmp/zones/")
	t.Setenv("NSD_FILE_PATTERN", "%1/%s")
	t.Setenv("NSD_CACHE_TTL", "30s")

	cfg, err := LoadDaemon()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Bind)
	assert.Equal(t, "/tmp/zones/", cfg.ZoneDir)
	assert.Equal(t, "%1/%s", cfg.FilePattern)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestLoadDaemon_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bind not host:port", key: "NSD_BIND", value: "not-an-addr"},
		{name: "pattern without %s", key: "NSD_FILE_PATTERN", value: "zones/flat"},
		{name: "zero cache size", key: "NSD_CACHE_SIZE", value: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadDaemon()
			assert.Error(t, err)
		})
	}
}
