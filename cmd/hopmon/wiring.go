package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sliink/hopmon/internal/core"
	"github.com/sliink/hopmon/internal/model"
	"github.com/sliink/hopmon/internal/plugin"
	"github.com/sliink/hopmon/internal/plugin/inputs"
	"github.com/sliink/hopmon/internal/plugin/outputs"
	"github.com/sliink/hopmon/internal/plugin/processors"
)

const (
	parserID   = "hop_parser"
	dataLogID  = "data_log"
	echoID     = "echo_output"
	parserKind = "hop"
)

// newFactory registers every plugin kind the binary ships with
func newFactory() *plugin.PluginFactory {
	factory := plugin.NewPluginFactory()

	factory.RegisterInputPlugin("serial", func(id string) model.InputPlugin {
		return inputs.NewSerialInput(id)
	})
	factory.RegisterInputPlugin("stdin", func(id string) model.InputPlugin {
		return inputs.NewStreamInput(id)
	})

	factory.RegisterProcessorPlugin(parserKind, func(id string) model.ProcessorPlugin {
		return processors.NewParser(id)
	})

	factory.RegisterOutputPlugin("csv_log", func(id string) model.OutputPlugin {
		return outputs.NewCSVLogOutput(id)
	})
	factory.RegisterOutputPlugin("stdout", func(id string) model.OutputPlugin {
		return outputs.NewStdoutOutput(id)
	})

	return factory
}

// transportConfig builds the input plugin configuration. The stdin transport
// reads standard input unless an endpoint was configured explicitly.
func transportConfig(c *core.Core, settings core.Settings) map[string]interface{} {
	endpoint := settings.TransportEndpoint
	if settings.TransportKind == "stdin" && c.GetConfigManager().GetConfig(core.KeyTransportEndpoint, nil) == nil {
		endpoint = inputs.StdinEndpoint
	}

	return map[string]interface{}{
		"endpoint":     endpoint,
		"baud_rate":    settings.BaudRate,
		"read_timeout": settings.ReadTimeout,
		"buffer_size":  settings.BufferSize,
	}
}

// registerPlugins creates the transport, parser and outputs for a run and
// registers them with the core. A transport that cannot be built is reported
// and the run continues without ingestion.
func registerPlugins(c *core.Core, settings core.Settings, start time.Time, logger *slog.Logger) error {
	factory := newFactory()

	input, err := plugin.CreateTransport(factory, settings.TransportKind, transportConfig(c, settings))
	if err != nil {
		logger.Warn("transport unavailable, ingestion disabled", "error", err)
	} else if err := c.RegisterPlugin(input); err != nil {
		return err
	}

	parser, err := factory.CreatePlugin(model.ProcessorPluginType, parserKind, parserID)
	if err != nil {
		return err
	}
	if err := c.RegisterPlugin(parser); err != nil {
		return err
	}

	if settings.LogEnabled {
		p, err := factory.CreatePlugin(model.OutputPluginType, "csv_log", dataLogID)
		if err != nil {
			return err
		}
		dataLog, ok := p.(model.OutputPlugin)
		if !ok {
			return fmt.Errorf("csv_log is not an output plugin")
		}
		dataLog.Configure(map[string]interface{}{
			"dir":   settings.LogDir,
			"start": start,
		})
		if err := c.RegisterDataLog(dataLog); err != nil {
			return err
		}
	}

	if settings.EchoEnabled {
		echo, err := factory.CreatePlugin(model.OutputPluginType, "stdout", echoID)
		if err != nil {
			return err
		}
		echo.Configure(map[string]interface{}{
			"format":   settings.EchoFormat,
			"colorize": settings.EchoColorize,
		})
		if err := c.RegisterPlugin(echo); err != nil {
			return fmt.Errorf("echo output: %w", err)
		}
	}

	return nil
}
