package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencloud/reqattr/internal/config"
	"github.com/greencloud/reqattr/internal/health"
	"github.com/greencloud/reqattr/internal/observability"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, "logging:\n  level: warn\n  format: json\n")

	cfg, err := loadConfig(&globalFlags{configPath: path, logLevel: "debug", logFormat: "console"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	cfg, err = loadConfig(&globalFlags{configPath: path})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	_, err := loadConfig(&globalFlags{configPath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")

	_, err = loadConfig(&globalFlags{logLevel: "chatty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestInitApplication(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Logging.Output = "stderr"
	cfg.ClientIP.TrustedProxies = []string{"10.0.0.0/8"}

	app, err := initApplication(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.metrics)

	req := httptest.NewRequest(http.MethodGet, "/inspect", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec := httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"client_ip":"192.0.2.1"`)
}

func TestInitApplication_MetricsDisabled(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Metrics.Enabled = false

	app, err := initApplication(cfg)
	require.NoError(t, err)
	assert.Nil(t, app.metrics)
}

func TestApplyReload(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Logging.Output = "stderr"
	cfg.Logging.Level = "info"
	app, err := initApplication(cfg)
	require.NoError(t, err)

	applyReload(&globalFlags{}, app, config.RuntimeConfig{LogLevel: "debug", IncludeHeaders: false})

	rec := httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect", nil))
	assert.NotContains(t, rec.Body.String(), `"headers"`)

	_, isSetter := app.logger.(observability.LevelSetter)
	assert.True(t, isSetter)
}

func TestApplyReload_LevelFlagWins(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Logging.Output = "stderr"
	app, err := initApplication(cfg)
	require.NoError(t, err)

	reloaded := config.RuntimeConfig{LogLevel: "not-a-level", IncludeHeaders: true}

	// With --log-level set the file level is ignored, so the bad value is
	// never applied.
	assert.NotPanics(t, func() {
		applyReload(&globalFlags{logLevel: "info"}, app, reloaded)
	})
}

func TestStartConfigWatcher(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Logging.Output = "stderr"
	app, err := initApplication(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Nil(t, startConfigWatcher(ctx, &globalFlags{}, app))
	assert.NotContains(t, app.health.Names(), "config_watcher")

	path := writeConfigFile(t, "inspect:\n  includeHeaders: true\n")
	watcher := startConfigWatcher(ctx, &globalFlags{configPath: path}, app)
	require.NotNil(t, watcher)
	defer stopWatcher(watcher)

	ready := app.health.Readiness()
	assert.Equal(t, health.StatusHealthy, ready.Checks["config_watcher"].Status)
}

func TestStartConfigWatcher_InvalidFile(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Logging.Output = "stderr"
	app, err := initApplication(cfg)
	require.NoError(t, err)

	path := writeConfigFile(t, "server: [")
	assert.Nil(t, startConfigWatcher(context.Background(), &globalFlags{configPath: path}, app))
	assert.Equal(t, health.StatusDegraded, app.health.Readiness().Checks["config_watcher"].Status)
}

func TestRunServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
server:
  address: "127.0.0.1:0"
  shutdownTimeout: 2s
logging:
  output: stderr
  level: error
`)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, &globalFlags{configPath: path}) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runServe did not return after cancel")
	}
}

func TestRunServe_ListenError(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, "server:\n  address: \"256.0.0.1:80\"\nlogging:\n  output: stderr\n  level: fatal\n")

	err := runServe(context.Background(), &globalFlags{configPath: path})
	require.Error(t, err)
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("REQATTR_TEST_VALUE", "set")

	assert.Equal(t, "set", getEnvOrDefault("REQATTR_TEST_VALUE", "default"))
	assert.Equal(t, "default", getEnvOrDefault("REQATTR_TEST_UNSET_VALUE", "default"))
}
