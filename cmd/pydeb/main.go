package main

import (
	"context"
	"fmt"
	"os"

	"github.com/quantmind-br/pydeb/internal/cmd"
	"github.com/quantmind-br/pydeb/internal/config"
	"github.com/quantmind-br/pydeb/internal/core"
	"github.com/quantmind-br/pydeb/internal/logging"
	"github.com/quantmind-br/pydeb/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	// Load configuration
	cfg, err := config.Load(os.Getenv("PYDEB_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return core.ExitInvalidArgs
	}

	ui.InitColors(cfg.Logging.Color)

	// Initialize logger
	log := logging.NewLogger(logging.Config{
		Level:   cfg.Logging.Level,
		LogFile: cfg.Paths.LogFile,
		NoColor: !ui.AreColorsEnabled(),
	})

	rootCmd := cmd.NewRootCmd(cfg, log, version, cmd.DefaultEnv())
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError("%v", err)
		log.Error().Err(err).Msg("command failed")
		return core.ExitCodeFor(err)
	}
	return core.ExitSuccess
}
