package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cidrfence/cidrfence/internal/policy"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.ListenAddress)
	assert.Equal(t, 403, cfg.Server.DeniedStatusCode)
	assert.Equal(t, CacheTypeMemory, cfg.Cache.Type)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "missing listen address",
			mutate:  func(c *Config) { c.Server.ListenAddress = "" },
			wantErr: ErrMissingListenAddress,
		},
		{
			name:    "bad status code",
			mutate:  func(c *Config) { c.Server.DeniedStatusCode = 200 },
			wantErr: ErrInvalidStatusCode,
		},
		{
			name:    "unknown cache type",
			mutate:  func(c *Config) { c.Cache.Type = "memcached" },
			wantErr: ErrInvalidCacheType,
		},
		{
			name:    "redis without url",
			mutate:  func(c *Config) { c.Cache.Type = CacheTypeRedis },
			wantErr: ErrMissingRedisURL,
		},
		{
			name: "malformed rule",
			mutate: func(c *Config) {
				c.Rules = []policy.RuleRecord{{Resource: policy.StringList{"/x"}}}
			},
			wantErr: policy.ErrMalformedRule,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	yaml := `
server:
  listenAddress: ":9090"
  deniedStatusCode: 404
  readTimeout: 5s
cache:
  type: none
trustedProxies:
  - 10.0.0.0/8
rules:
  - resource: /health_check
    deny: "*"
    allow: 127.0.0.1/32
  - resource:
      - /admin/*
      - /internal/*
    deny: "*"
    allow:
      - 10.0.0.0/8
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.ListenAddress)
	assert.Equal(t, 404, cfg.Server.DeniedStatusCode)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Duration())
	assert.Equal(t, CacheTypeNone, cfg.Cache.Type)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)

	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, policy.StringList{"/health_check"}, cfg.Rules[0].Resource)
	assert.Equal(t, policy.StringList{"*"}, cfg.Rules[0].Deny)
	assert.Equal(t, policy.StringList{"/admin/*", "/internal/*"}, cfg.Rules[1].Resource)
}

func TestLoadFromReader_Invalid(t *testing.T) {
	t.Parallel()

	_, err := LoadFromReader(strings.NewReader("server: ["))
	require.Error(t, err)

	_, err = LoadFromReader(strings.NewReader(`
rules:
  - allow: "*"
`))
	require.ErrorIs(t, err, policy.ErrMalformedRule)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("CIDRFENCE_TEST_ADDR", ":7070")

	yaml := `
server:
  listenAddress: "${CIDRFENCE_TEST_ADDR}"
logging:
  level: "${CIDRFENCE_TEST_LEVEL:-warn}"
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.ListenAddress)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/config.yaml"
	data := `
server:
  listenAddress: ":8081"
rules:
  - resource: /r
    deny: "*"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Server.ListenAddress)

	_, err = Load(t.TempDir() + "/missing.yaml")
	require.Error(t, err)
}
