package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/echotools/groupseed/server"
	"github.com/gofrs/uuid/v5"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version  string = "1.0.0"
	commitID string = "dev"
)

func main() {
	tmpLogger := server.NewJSONLogger(os.Stdout, zapcore.InfoLevel, server.JSONFormat)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version":
			fmt.Println(version + "+" + commitID)
			return
		case "distribute":
			if err := runDistribute(tmpLogger, os.Args[2:], os.Stdout); err != nil {
				tmpLogger.Fatal("Distribution failed", zap.Error(err))
			}
			return
		}
	}

	flags := flag.NewFlagSet("groupseed", flag.ExitOnError)
	configPath := flags.String("config", "", "Path to the YAML config file.")
	_ = flags.Parse(os.Args[1:])

	config, err := server.ParseConfigFile(tmpLogger, *configPath)
	if err != nil {
		tmpLogger.Fatal("Could not load config", zap.Error(err))
	}
	if err := config.Validate(); err != nil {
		tmpLogger.Fatal("Invalid config", zap.Error(err))
	}

	logger, startupLogger := server.SetupLogging(tmpLogger, config)
	startupLogger.Info("Groupseed starting", zap.String("version", version+"+"+commitID), zap.String("node", config.Name))

	server.DistributionSettingsSet(config.Distribution.Clone())

	metrics := server.NewLocalMetrics(logger, startupLogger, config)
	apiServer := server.StartApiServer(logger, startupLogger, config, metrics)

	startupLogger.Info("Startup done")

	// Wait for a termination signal. SIGHUP reloads the distribution settings.
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range c {
		if sig != syscall.SIGHUP {
			break
		}
		reloadSettings(logger, *configPath)
	}

	startupLogger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	apiServer.Stop(ctx)
	metrics.Stop(logger)

	startupLogger.Info("Shutdown complete")
	_ = logger.Sync()
}

func reloadSettings(logger *zap.Logger, configPath string) {
	config, err := server.ParseConfigFile(logger, configPath)
	if err == nil {
		err = config.Validate()
	}
	if err != nil {
		logger.Error("Settings reload failed, keeping current settings", zap.Error(err))
		return
	}
	server.DistributionSettingsSet(config.Distribution)
	logger.Info("Distribution settings reloaded", zap.Int("tiers", len(config.Distribution.Tiers)))
}

// runDistribute is the one-shot CLI mode: it reads a settings document and a
// pool file, runs a single distribution and prints the result.
func runDistribute(tmpLogger *zap.Logger, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("distribute", flag.ContinueOnError)
	settingsPath := flags.String("settings", "", "Path to a YAML or JSON distribution settings document.")
	playersPath := flags.String("players", "", "Path to a JSON file with a 'players' or 'entries' array.")
	format := flags.String("format", "text", "Output format: text | json")
	seed := flags.Uint64("seed", 0, "Seed for the random strategy. 0 uses a random seed.")
	verbose := flags.Bool("v", false, "Log engine diagnostics to stderr.")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *playersPath == "" {
		return errors.New("-players is required")
	}

	data, err := os.ReadFile(filepath.Clean(*playersPath))
	if err != nil {
		return fmt.Errorf("failed to read players: %w", err)
	}
	req := &server.DistributeRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return fmt.Errorf("failed to parse players: %w", err)
	}

	settings := req.Settings
	if *settingsPath != "" {
		if settings, err = server.LoadDistributionSettings(*settingsPath); err != nil {
			return err
		}
	} else if settings == nil {
		settings = server.NewDistributionSettings()
	} else {
		settings.SetDefaults()
		if err := settings.Validate(); err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}
	}

	pool, err := req.Pool()
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if *verbose {
		logger = server.NewJSONLogger(os.Stderr, zapcore.DebugLevel, server.JSONFormat)
	}
	metrics := server.NewScopeMetrics(logger, tally.NoopScope)
	if *seed != 0 {
		req.Seed = seed
	}
	result := server.RunDistribution(logger, metrics, settings, pool, req.Options()...)

	runID, err := uuid.NewV4()
	if err != nil {
		return err
	}
	resp := server.NewDistributeResponse(runID, result, req.Entries)
	if req.Seed != nil {
		resp.Deterministic = true
	}

	switch *format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp)
	case "text":
		return server.RenderText(out, resp)
	default:
		tmpLogger.Warn("Unknown output format, using text", zap.String("format", *format))
		return server.RenderText(out, resp)
	}
}
