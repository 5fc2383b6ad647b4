package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sliink/hopmon/internal/api"
	"github.com/sliink/hopmon/internal/core"
	"github.com/sliink/hopmon/internal/plugin/outputs"
	"github.com/sliink/hopmon/internal/render"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys binds command line flags to configuration keys
var flagKeys = map[string]string{
	"transport":    core.KeyTransportKind,
	"endpoint":     core.KeyTransportEndpoint,
	"baud":         core.KeyTransportBaudRate,
	"read-timeout": core.KeyTransportReadTimeout,
	"buffer-size":  core.KeyTransportBufferSize,
	"interval":     core.KeyIngestInterval,
	"stale-after":  core.KeyIngestStaleThreshold,
	"log-dir":      core.KeyLogDir,
	"data-log":     core.KeyLogEnabled,
	"echo":         core.KeyEchoEnabled,
	"echo-format":  core.KeyEchoFormat,
	"color":        core.KeyEchoColorize,
	"render":       core.KeyRenderEnabled,
	"api":          core.KeyAPIEnabled,
	"api-host":     core.KeyAPIHost,
	"api-port":     core.KeyAPIPort,
}

type options struct {
	configFile string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newCommand(viper.New())
}

// newCommand builds the root command with its flags bound to v
func newCommand(v *viper.Viper) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "hopmon",
		Short: "Hop Monitor - ingest routing-hop telemetry from a serial link",
		Long: `hopmon reads hop records from a serial device or standard input,
keeps the latest retry count and liveness of every source node, appends
each accepted record to a per-run CSV log and draws a live chart.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, v)
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "save-config FILE",
		Short: "Write the configuration file, flags and HOPMON_* variables to FILE",
		Long: `save-config merges the --config file with the flags and HOPMON_*
environment variables that were given and writes the result to FILE.
Files ending in .json are written as JSON, anything else as YAML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return saveConfig(opts, v, args[0])
		},
	})

	d := core.DefaultSettings()
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Path to a YAML or JSON configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Operator log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "auto", "Operator log format: auto, text, json")

	flags.StringP("transport", "t", d.TransportKind, "Transport kind: serial, stdin")
	flags.StringP("endpoint", "e", d.TransportEndpoint, "Serial device, named pipe, or - for standard input")
	flags.Int("baud", d.BaudRate, "Serial baud rate")
	flags.Duration("read-timeout", d.ReadTimeout, "Serial read timeout")
	flags.Int("buffer-size", d.BufferSize, "Line queue size for the stdin transport")
	flags.Duration("interval", d.TickInterval, "Ingest and render interval")
	flags.Duration("stale-after", d.StaleThreshold, "Silence after which a source is shown offline")
	flags.String("log-dir", d.LogDir, "Directory for the per-run CSV data log")
	flags.Bool("data-log", d.LogEnabled, "Write accepted records to the CSV data log")
	flags.Bool("echo", d.EchoEnabled, "Echo every accepted record to stdout")
	flags.String("echo-format", d.EchoFormat, "Echo format: text, json")
	flags.Bool("color", d.EchoColorize, "Colorize echoed records")
	flags.Bool("render", d.RenderEnabled, "Draw the live retries chart")
	flags.Bool("api", d.APIEnabled, "Serve the read-only HTTP API")
	flags.String("api-host", d.APIHost, "API server host")
	flags.Int("api-port", d.APIPort, "API server port")

	v.SetEnvPrefix("HOPMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for flag, key := range flagKeys {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return rootCmd
}

// applyOverrides copies flags that were given and HOPMON_* variables that
// are set over the values loaded from the configuration file
func applyOverrides(v *viper.Viper, config *core.ConfigManager) error {
	for _, key := range flagKeys {
		if !v.IsSet(key) {
			continue
		}
		if err := config.SetConfig(key, v.Get(key)); err != nil {
			return fmt.Errorf("apply %s: %w", key, err)
		}
	}
	return nil
}

// loadConfiguration fills config from the --config file and the overrides
// and validates the result
func loadConfiguration(opts *options, v *viper.Viper, config *core.ConfigManager) (core.Settings, error) {
	if opts.configFile != "" {
		if err := config.LoadConfig(opts.configFile); err != nil {
			return core.Settings{}, err
		}
	}
	if err := applyOverrides(v, config); err != nil {
		return core.Settings{}, err
	}

	settings := config.Settings()
	if err := settings.Validate(); err != nil {
		return core.Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, nil
}

// saveConfig writes the merged configuration to path
func saveConfig(opts *options, v *viper.Viper, path string) error {
	config := core.NewConfigManager()
	if !config.Initialize() {
		return fmt.Errorf("failed to initialize configuration")
	}
	if _, err := loadConfiguration(opts, v, config); err != nil {
		return err
	}
	return config.SaveConfig(path)
}

func run(parent context.Context, opts *options, v *viper.Viper) error {
	logger, err := newLogger(os.Stderr, opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}

	c := core.NewCore()
	if !c.Initialize() {
		return fmt.Errorf("failed to initialize core system")
	}

	settings, err := loadConfiguration(opts, v, c.GetConfigManager())
	if err != nil {
		return err
	}
	if opts.configFile != "" {
		logger.Info("loaded configuration", "file", opts.configFile)
	}

	subscribeLogger(c.GetEventBus(), logger)

	if settings.LogEnabled {
		created, err := outputs.EnsureLogDir(settings.LogDir)
		if err != nil {
			return err
		}
		if created {
			logger.Info("log directory created", "dir", settings.LogDir)
		}
	}

	if err := registerPlugins(c, settings, time.Now(), logger); err != nil {
		return fmt.Errorf("failed to register plugins: %w", err)
	}

	if !c.Start() {
		return fmt.Errorf("failed to start core system")
	}

	if settings.RenderEnabled {
		c.AddPresenter(render.NewTablePresenter(os.Stdout, render.Options{}))
	}

	var apiServer *api.API
	if settings.APIEnabled {
		apiServer = api.NewAPI(c, settings.APIHost, settings.APIPort, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("api server stopped", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("hop monitor running", "transport", settings.TransportKind, "interval", c.Interval())
	runErr := c.Run(ctx)

	logger.Info("shutting down")
	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiServer.Stop(shutdownCtx); err != nil {
			logger.Warn("api server shutdown", "error", err)
		}
	}

	if !c.Stop() {
		return fmt.Errorf("failed to stop core system cleanly")
	}
	if runErr != nil {
		return runErr
	}

	logger.Info("shutdown complete")
	return nil
}
