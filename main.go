package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/soocke/pixel-trigger-go/app"
	"github.com/soocke/pixel-trigger-go/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := pflag.StringP("config", "c", "pixeltrigger.yaml", "path to the YAML or JSON config file")
	debugFlag := pflag.Bool("debug", false, "enable debug logging and runtime stats")
	dryRun := pflag.Bool("dry-run", false, "log key presses instead of sending them")
	logFormat := pflag.String("log-format", "json", "log output format: json or text")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	if pflag.CommandLine.Changed("debug") {
		cfg.Debug = *debugFlag
	}
	if pflag.CommandLine.Changed("dry-run") {
		cfg.DryRun = *dryRun
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(os.Stdout, level, *logFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(cfg, logger, nil)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}
	if err := application.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		return 1
	}
	return 0
}
