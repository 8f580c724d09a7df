package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/gamecore/internal/core/observability/log"
	"github.com/zeusync/gamecore/internal/core/tick"
)

func writeFile(t *testing.T, content string) Path {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gamecore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return Path(path)
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Game Server", cfg.Name)
	assert.Equal(t, 20, cfg.TickRate)
	assert.False(t, cfg.AllowHostAccess)
	assert.Equal(t, 10, cfg.MaxCatchUp)
	assert.Equal(t, time.Millisecond, cfg.TimerResolution)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{"stderr"}, cfg.Log.Outputs)
	assert.True(t, cfg.Console.Enabled)
	assert.Empty(t, cfg.Remote.Addr)
	assert.Empty(t, cfg.Telemetry.PerfCSV)
}

func TestFileOverridesOnlyPresentFields(t *testing.T) {
	path := writeFile(t, "name: Arena\ntick_rate: 60\nlog:\n  level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Arena", cfg.Name)
	assert.Equal(t, 60, cfg.TickRate)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Encoding)
	assert.Equal(t, 10, cfg.MaxCatchUp)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "tick_rate: 60\n")
	t.Setenv("GAMECORE_TICK_RATE", "120")
	t.Setenv("GAMECORE_REMOTE_ADDR", "127.0.0.1:7777")
	t.Setenv("GAMECORE_CONSOLE_HINTED", "false")
	t.Setenv("GAMECORE_LOG_OUTPUTS", "stdout,/tmp/gamecore.log")
	t.Setenv("GAMECORE_TIMER_RESOLUTION", "500us")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.TickRate)
	assert.Equal(t, "127.0.0.1:7777", cfg.Remote.Addr)
	assert.False(t, cfg.Console.Hinted)
	assert.Equal(t, []string{"stdout", "/tmp/gamecore.log"}, cfg.Log.Outputs)
	assert.Equal(t, 500*time.Microsecond, cfg.TimerResolution)
}

func TestValidate(t *testing.T) {
	t.Setenv("GAMECORE_TICK_RATE", "500")
	_, err := Load("")
	require.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, tick.ErrInvalidTickRate)

	cfg, err := Defaults()
	require.NoError(t, err)
	cfg.Log.Level = "loud"
	cfg.Log.Encoding = "xml"
	err = cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "log.encoding")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(Path(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorContains(t, err, "reading config file")

	_, err = Load(writeFile(t, "tick_rate: [not, a, number]\n"))
	assert.ErrorContains(t, err, "parsing config file")

	t.Setenv("GAMECORE_TICK_RATE", "fast")
	_, err = Load("")
	assert.ErrorContains(t, err, "parse env")
}

func TestLoggerConfig(t *testing.T) {
	cfg, err := Defaults()
	require.NoError(t, err)
	cfg.Log.Level = "warn"

	lc := cfg.Logger()
	assert.Equal(t, log.LevelWarn, lc.Level)
	assert.Equal(t, "json", lc.Encoding)
}
