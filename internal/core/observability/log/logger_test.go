package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"":        LevelInfo,
		"debug":   LevelDebug,
		"WARN":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNamedLoggerCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := Wrap(zap.New(core))

	logger.Named("unit").With(String("type", "*debugger.Debugger")).
		Error("Failed to inject", Error(errors.New("boom")), Int("slot", 1))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "unit", entries[0].LoggerName)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "*debugger.Debugger", ctx["type"])
	assert.Equal(t, "boom", ctx["error"])
	assert.EqualValues(t, 1, ctx["slot"])
}

func TestSetLevelIsShared(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := Wrap(zap.New(core))
	child := logger.Named("child")

	logger.SetLevel(LevelError)
	child.Log(LevelInfo, "dropped")
	child.Log(LevelError, "kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Equal(t, LevelError, child.GetLevel())
}
