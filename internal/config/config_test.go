package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vxverify/vxverify/internal/vx"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vxverify.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version: "1"
oracle:
  app_slug: ethercrash
server:
  url: http://localhost:4000/graphql
  timeout: 5s
  max_retries: 2
batch:
  concurrency: 8
  rate_per_sec: 2.5
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ethercrash", cfg.Oracle.AppSlug)
	assert.Equal(t, DefaultSalt, cfg.Oracle.Salt, "unset fields keep defaults")
	assert.Equal(t, vx.Suite, cfg.Oracle.Suite)
	assert.Equal(t, "http://localhost:4000/graphql", cfg.Server.URL)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.Equal(t, uint64(2), cfg.Server.MaxRetries)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.InDelta(t, 2.5, cfg.Batch.RatePerSec, 1e-9)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "oracle: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)

	_, err = LoadOrDefault(path)
	assert.Error(t, err, "parse errors are not masked by defaults")
}

func TestLoad_RejectsSymlink(t *testing.T) {
	target := writeConfig(t, "version: \"1\"\n")
	link := filepath.Join(t.TempDir(), "link.yaml")
	require.NoError(t, os.Symlink(target, link))

	_, err := Load(link)
	assert.ErrorContains(t, err, "symbolic link")
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Oracle.AppSlug = "other"
	cfg.Server.Timeout = 12 * time.Second

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, DefaultSalt, p.SaltHex())
	assert.Equal(t, DefaultCommitment, p.Commitment())
	assert.Equal(t, DefaultPublicKey, p.PublicKeyHex())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing app slug", func(c *Config) { c.Oracle.AppSlug = "" }},
		{"other curve", func(c *Config) { c.Oracle.Curve = "bn254" }},
		{"min-sig suite", func(c *Config) { c.Oracle.Suite = "BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_NUL_" }},
		{"short salt", func(c *Config) { c.Oracle.Salt = "abcd" }},
		{"bad commitment", func(c *Config) { c.Oracle.Commitment = "xyz" }},
		{"G2 public key", func(c *Config) { c.Oracle.PublicKey = DefaultPublicKey + DefaultPublicKey }},
		{"missing url", func(c *Config) { c.Server.URL = "" }},
		{"negative timeout", func(c *Config) { c.Server.Timeout = -time.Second }},
		{"zero concurrency", func(c *Config) { c.Batch.Concurrency = 0 }},
		{"huge concurrency", func(c *Config) { c.Batch.Concurrency = 1000 }},
		{"negative rate", func(c *Config) { c.Batch.RatePerSec = -1 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyEnv(t *testing.T) {
	dotenv := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(dotenv, []byte("VXVERIFY_APP_SLUG=from-dotenv\nVXVERIFY_LOG_LEVEL=info\n"), 0o600))

	t.Setenv("VXVERIFY_LOG_LEVEL", "debug")
	t.Setenv("VXVERIFY_TIMEOUT", "3s")
	t.Setenv("VXVERIFY_MAX_RETRIES", "4")
	t.Setenv("VXVERIFY_TRACING", "true")
	// godotenv.Load sets variables it reads; make sure the test cleans up.
	t.Setenv("VXVERIFY_APP_SLUG", "")
	require.NoError(t, os.Unsetenv("VXVERIFY_APP_SLUG"))

	cfg := Defaults()
	require.NoError(t, cfg.ApplyEnv(dotenv))

	assert.Equal(t, "from-dotenv", cfg.Oracle.AppSlug)
	assert.Equal(t, "debug", cfg.Log.Level, "process env wins over dotenv")
	assert.Equal(t, 3*time.Second, cfg.Server.Timeout)
	assert.Equal(t, uint64(4), cfg.Server.MaxRetries)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestApplyEnv_MissingDotenvIgnored(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.ApplyEnv(filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, Defaults(), cfg)
}

func TestApplyEnv_BadValues(t *testing.T) {
	for name, kv := range map[string][2]string{
		"timeout": {"VXVERIFY_TIMEOUT", "soon"},
		"retries": {"VXVERIFY_MAX_RETRIES", "-1"},
		"tracing": {"VXVERIFY_TRACING", "maybe"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			cfg := Defaults()
			assert.Error(t, cfg.ApplyEnv(filepath.Join(t.TempDir(), "absent.env")))
		})
	}
}
