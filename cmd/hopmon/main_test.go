package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sliink/hopmon/internal/core"
	"github.com/sliink/hopmon/internal/model"
	"github.com/sliink/hopmon/internal/plugin/inputs"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hopLine = "15/03/2024;10:30:00;NodeA;NodeB;42;NodeC;3;DATA;1"

func newConfig(t *testing.T) *core.ConfigManager {
	t.Helper()
	config := core.NewConfigManager()
	require.True(t, config.Initialize())
	return config
}

func TestApplyOverrides(t *testing.T) {
	t.Run("Flags that were given override the defaults", func(t *testing.T) {
		v := viper.New()
		cmd := newCommand(v)
		require.NoError(t, cmd.ParseFlags([]string{"--baud", "9600", "--interval", "2s", "--render=false"}))

		config := newConfig(t)
		require.NoError(t, applyOverrides(v, config))

		settings := config.Settings()
		assert.Equal(t, 9600, settings.BaudRate)
		assert.Equal(t, 2*time.Second, settings.TickInterval)
		assert.False(t, settings.RenderEnabled)
		assert.Nil(t, config.GetConfig(core.KeyLogDir, nil))
		assert.Equal(t, "LOGS", settings.LogDir)
	})

	t.Run("Environment variables override the file", func(t *testing.T) {
		t.Setenv("HOPMON_TRANSPORT_KIND", "stdin")
		t.Setenv("HOPMON_INGEST_STALE_THRESHOLD", "90")

		v := viper.New()
		cmd := newCommand(v)
		require.NoError(t, cmd.ParseFlags(nil))

		config := newConfig(t)
		require.NoError(t, config.SetConfig(core.KeyTransportKind, "serial"))
		require.NoError(t, applyOverrides(v, config))

		settings := config.Settings()
		assert.Equal(t, "stdin", settings.TransportKind)
		assert.Equal(t, 90*time.Second, settings.StaleThreshold)
	})

	t.Run("Flags win over the environment", func(t *testing.T) {
		t.Setenv("HOPMON_LOG_DIR", "from-env")

		v := viper.New()
		cmd := newCommand(v)
		require.NoError(t, cmd.ParseFlags([]string{"--log-dir", "from-flag"}))

		config := newConfig(t)
		require.NoError(t, applyOverrides(v, config))
		assert.Equal(t, "from-flag", config.Settings().LogDir)
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("JSON output honours the level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := newLogger(&buf, "warn", "json")
		require.NoError(t, err)

		logger.Info("hidden")
		logger.Warn("shown", "key", "value")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `"msg":"shown"`)
		assert.Contains(t, out, `"level":"WARN"`)
	})

	t.Run("Auto format falls back to JSON off a terminal", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := newLogger(&buf, "info", "auto")
		require.NoError(t, err)

		logger.Info("hello")
		assert.True(t, strings.HasPrefix(buf.String(), "{"))
	})

	t.Run("Invalid settings are rejected", func(t *testing.T) {
		_, err := newLogger(&bytes.Buffer{}, "loud", "text")
		assert.Error(t, err)

		_, err = newLogger(&bytes.Buffer{}, "info", "xml")
		assert.Error(t, err)
	})
}

func TestSubscribeLogger(t *testing.T) {
	bus := core.NewEventBus()
	require.True(t, bus.Initialize())
	require.True(t, bus.Start())

	var buf bytes.Buffer
	logger, err := newLogger(&buf, "debug", "json")
	require.NoError(t, err)
	subscribeLogger(bus, logger)

	bus.Publish(core.NewEvent(model.EventLineDropped, "serial_input", map[string]interface{}{
		"line":   "garbage",
		"reason": "MalformedHeader",
		"error":  "bad header",
	}))
	bus.Publish(core.NewEvent(model.EventTransportError, "serial_input", errors.New("port gone")))
	bus.Publish(core.NewEvent(model.EventRecordAccepted, "serial_input", "ignored"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], `"level":"DEBUG"`)
	assert.Contains(t, lines[0], `"reason":"MalformedHeader"`)
	assert.Contains(t, lines[1], `"level":"WARN"`)
	assert.Contains(t, lines[1], `"error":"port gone"`)
}

func TestEventLevel(t *testing.T) {
	tests := []struct {
		eventType model.EventType
		want      string
	}{
		{model.EventTransportError, "WARN"},
		{model.EventLogDegraded, "WARN"},
		{model.EventError, "ERROR"},
		{model.EventLineDropped, "DEBUG"},
		{model.EventInfo, "INFO"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, eventLevel(tt.eventType).String(), string(tt.eventType))
	}
}

func TestRegisterPlugins(t *testing.T) {
	logger, err := newLogger(&bytes.Buffer{}, "info", "text")
	require.NoError(t, err)

	t.Run("Registers transport, parser and outputs", func(t *testing.T) {
		c := core.NewCore()
		require.True(t, c.Initialize())

		settings := core.DefaultSettings()
		settings.TransportKind = "stdin"
		settings.LogDir = t.TempDir()
		settings.EchoEnabled = true

		require.NoError(t, registerPlugins(c, settings, time.Now(), logger))

		for _, id := range []string{"stdin_input", parserID, dataLogID, echoID} {
			_, ok := c.GetRegistry().GetPlugin(id)
			assert.True(t, ok, id)
		}
	})

	t.Run("Unknown transport leaves ingestion disabled", func(t *testing.T) {
		c := core.NewCore()
		require.True(t, c.Initialize())

		settings := core.DefaultSettings()
		settings.TransportKind = "carrier-pigeon"
		settings.LogEnabled = false

		require.NoError(t, registerPlugins(c, settings, time.Now(), logger))
		assert.Empty(t, c.GetRegistry().GetInputPlugins())
		assert.Empty(t, c.GetRegistry().GetOutputPlugins())
		assert.Len(t, c.GetRegistry().GetProcessorPlugins(), 1)
	})
}

func TestTransportConfig(t *testing.T) {
	c := core.NewCore()
	require.True(t, c.Initialize())

	settings := core.DefaultSettings()
	settings.TransportKind = "stdin"
	assert.Equal(t, inputs.StdinEndpoint, transportConfig(c, settings)["endpoint"])

	require.NoError(t, c.GetConfigManager().SetConfig(core.KeyTransportEndpoint, "/tmp/hops.fifo"))
	settings = c.GetConfigManager().Settings()
	settings.TransportKind = "stdin"
	assert.Equal(t, "/tmp/hops.fifo", transportConfig(c, settings)["endpoint"])

	settings = core.DefaultSettings()
	config := transportConfig(c, settings)
	assert.Equal(t, 115200, config["baud_rate"])
	assert.Equal(t, 100*time.Millisecond, config["read_timeout"])
}

func TestRunLogsRecordsFromFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "hops.txt")
	require.NoError(t, os.WriteFile(input, []byte(hopLine+"\nnot a record\n"), 0o644))
	logDir := filepath.Join(dir, "LOGS")

	cmd := newCommand(viper.New())
	cmd.SetArgs([]string{
		"--transport", "stdin",
		"--endpoint", input,
		"--render=false",
		"--interval", "10ms",
		"--log-dir", logDir,
		"--log-level", "error",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, cmd.ExecuteContext(ctx))

	files, err := filepath.Glob(filepath.Join(logDir, "LogFile_*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, model.LogHeader, lines[0])
	assert.Equal(t, hopLine, lines[1])
}

func TestRunRejectsInvalidConfiguration(t *testing.T) {
	cmd := newCommand(viper.New())
	cmd.SetArgs([]string{"--transport", "stdin", "--interval", "0s", "--data-log=false", "--render=false"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestSaveConfigCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hopmon.yaml")
	require.NoError(t, os.WriteFile(in, []byte("transport:\n  kind: stdin\nlog:\n  dir: /var/log/hops\n"), 0o644))
	out := filepath.Join(dir, "saved.yaml")

	cmd := newCommand(viper.New())
	cmd.SetArgs([]string{"save-config", out, "--config", in, "--baud", "9600"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	saved := newConfig(t)
	require.NoError(t, saved.LoadConfig(out))
	settings := saved.Settings()
	assert.Equal(t, "stdin", settings.TransportKind)
	assert.Equal(t, "/var/log/hops", settings.LogDir)
	assert.Equal(t, 9600, settings.BaudRate)
}
