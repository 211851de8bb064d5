package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile — утилита записи временного файла конфигурации.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

// chdir — смена текущего рабочего каталога с авто-возвратом.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

const sampleYAML = `
env: "prod"
api:
  base_url: "https://api.example.com/api"
  image_base_url: "https://cdn.example.com"
  user_agent: "flashcards-test"
timeouts:
  request: "3s"
  refresh: "2s"
tokens:
  driver: "memory"
log:
  file: "/tmp/flashcards.log"
  max_size_mb: 5
metrics:
  host: "127.0.0.1"
  port: "9090"
mockapi:
  port: "6000"
  access_ttl: "1m"
`

const minimalYAML = `
env: "stage"
`

const brokenYAML = `
env: [unclosed
`

func TestMetricsConfig_AddrAndEnabled(t *testing.T) {
	t.Parallel()

	cfg := MetricsConfig{Host: "127.0.0.1", Port: "9090"}
	require.Equal(t, "127.0.0.1:9090", cfg.Addr())
	require.True(t, cfg.Enabled())
	require.False(t, MetricsConfig{}.Enabled())
}

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "https://api.example.com/api", cfg.API.BaseURL)
	require.Equal(t, "https://cdn.example.com", cfg.API.ImageBaseURL)
	require.Equal(t, "flashcards-test", cfg.API.UserAgent)
	require.Equal(t, 3*time.Second, cfg.Timeouts.Request)
	require.Equal(t, 2*time.Second, cfg.Timeouts.Refresh)
	require.Equal(t, TokensMemory, cfg.Tokens.Driver)
	require.Equal(t, "/tmp/flashcards.log", cfg.Log.File)
	require.Equal(t, 5, cfg.Log.MaxSizeMB)
	require.Equal(t, "6000", cfg.MockAPI.Port)
	require.Equal(t, time.Minute, cfg.MockAPI.AccessTTL)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", minimalYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "http://localhost:5212/api", cfg.API.BaseURL)
	require.Equal(t, TokensFile, cfg.Tokens.Driver)
	require.Equal(t, 15*time.Second, cfg.Timeouts.Request)
	require.Equal(t, 10*time.Second, cfg.Timeouts.Refresh)
	require.Equal(t, "127.0.0.1:5212", cfg.MockAPI.Addr())
	require.False(t, cfg.Metrics.Enabled())
}

func TestLoad_WithExplicitPath_BrokenYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "broken.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_WithCONFIG_PATH_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "from_env_path.yaml", minimalYAML)
	t.Setenv("CONFIG_PATH", cfgPath)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "stage", cfg.Env)
}

func TestLoad_WithLocalYAML_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, ".", "local.yaml", sampleYAML)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
}

func TestLoad_EnvOverlay_OverridesValuesFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("API_URL", "http://10.0.0.1:5212/api")
	t.Setenv("REFRESH_TIMEOUT", "7s")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "http://10.0.0.1:5212/api", cfg.API.BaseURL)
	require.Equal(t, 7*time.Second, cfg.Timeouts.Refresh)
}

func TestLoad_EnvOnly_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("ENV", "dev")
	t.Setenv("TOKENS_DRIVER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, TokensMemory, cfg.Tokens.Driver)
}

func TestLoad_RedisDriverRequiresURL(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", `
tokens:
  driver: "redis"
`)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis_url")
}

func TestLoad_UnknownDriver(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", `
tokens:
  driver: "etcd"
`)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown tokens.driver")
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	require.Panics(t, func() {
		_ = MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
