// Package app wires configuration into running monitors, hotkeys and the
// status server.
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/soocke/pixel-trigger-go/config"
	"github.com/soocke/pixel-trigger-go/debug"
	"github.com/soocke/pixel-trigger-go/domain/capture"
	"github.com/soocke/pixel-trigger-go/domain/hotkey"
)

const (
	debugInterval = 5 * time.Second
	keyBuffer     = 64
)

// App owns the container for one run.
type App struct {
	Container *AppContainer
	logger    *slog.Logger

	exitOnce sync.Once
	exitCh   chan struct{}
}

// NewApp builds the container. src overrides the configured capture backend
// when non-nil.
func NewApp(cfg *config.Config, logger *slog.Logger, src capture.FrameSource) (*App, error) {
	a := &App{logger: logger, exitCh: make(chan struct{})}
	c, err := BuildContainer(cfg, logger, src, a.Exit)
	if err != nil {
		return nil, err
	}
	a.Container = c
	return a, nil
}

// Exit asks Run to return. Safe to call repeatedly and from any goroutine.
func (a *App) Exit() {
	a.exitOnce.Do(func() { close(a.exitCh) })
}

// Run spawns the monitors and the supporting goroutines and blocks until ctx
// is done or Exit is called. Every monitor has stopped when Run returns.
func (a *App) Run(ctx context.Context) error {
	c := a.Container
	cfg := c.Config
	specs, err := cfg.RegionSpecs()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := c.Supervisor.Spawn(ctx, specs); err != nil {
		return err
	}

	var wg sync.WaitGroup
	goRun := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	goRun(func() { c.Presenter.Run(ctx, c.Supervisor.Statuses()) })
	goRun(func() { c.Source.LogStats(ctx, cfg.Capture.StatsInterval) })
	if cfg.Debug {
		debug.StartGoroutineLogger(ctx, debugInterval, a.logger)
		debug.StartMemLogger(ctx, debugInterval, a.logger)
	}
	if c.Server != nil {
		goRun(func() {
			if err := c.Server.ListenAndServe(ctx, cfg.Status.Addr); err != nil {
				a.logger.Error("status server failed", "addr", cfg.Status.Addr, "error", err)
			}
		})
	}
	if c.Hook != nil {
		keys := make(chan hotkey.KeyEvent, keyBuffer)
		intents := make(chan hotkey.Intent, keyBuffer)
		goRun(func() {
			if err := c.Hook.Run(ctx, keys); err != nil {
				a.logger.Warn("global hotkeys unavailable", "error", err)
			}
		})
		goRun(func() { hotkey.Decode(ctx, c.Binder, keys, intents) })
		goRun(func() { c.Controller.RunIntents(ctx, intents) })
	}

	a.logger.Info("pixel trigger running", "regions", len(specs), "dry_run", cfg.DryRun, "status_addr", cfg.Status.Addr)
	select {
	case <-ctx.Done():
	case <-a.exitCh:
	}
	cancel()
	c.Supervisor.Shutdown()
	wg.Wait()
	a.logger.Info("pixel trigger stopped")
	return nil
}
