package app

import (
	"log/slog"

	"github.com/soocke/pixel-trigger-go/config"
	"github.com/soocke/pixel-trigger-go/domain/action"
	"github.com/soocke/pixel-trigger-go/domain/calibrate"
	"github.com/soocke/pixel-trigger-go/domain/capture"
	"github.com/soocke/pixel-trigger-go/domain/hotkey"
	"github.com/soocke/pixel-trigger-go/domain/trigger"
	"github.com/soocke/pixel-trigger-go/domain/vision"
	"github.com/soocke/pixel-trigger-go/ui/model"
	"github.com/soocke/pixel-trigger-go/ui/presenter"
	"github.com/soocke/pixel-trigger-go/ui/server"
)

// AppContainer assembles capture, matching, monitors, presenters and the
// status server.
type AppContainer struct {
	Config     *config.Config
	Logger     *slog.Logger
	Source     *capture.Instrumented
	Matcher    vision.Matcher
	Dispatcher action.Dispatcher
	Pointer    action.PointerSource // nil when the platform has none
	Calibrator *calibrate.Calibrator
	Supervisor *trigger.Supervisor
	Controller *Controller

	Markers   *model.MarkerModel
	Activity  *model.ActivityModel
	Presenter *presenter.MarkerPresenter
	Server    *server.Server // nil when status.addr is empty

	Binder *hotkey.Binder
	Hook   *hotkey.Hook // nil disables global hotkeys
}

// BuildContainer constructs all components. src overrides the configured
// capture backend when non-nil. exit is invoked on the exit hotkey. Nothing
// is started.
func BuildContainer(cfg *config.Config, logger *slog.Logger, src capture.FrameSource, exit func()) (*AppContainer, error) {
	c := &AppContainer{Config: cfg, Logger: logger}
	if src == nil {
		s, err := capture.New(cfg.Capture.Backend)
		if err != nil {
			return nil, err
		}
		src = s
	}
	c.Source = capture.NewInstrumented(src, logger)

	m, err := vision.NewMatcher(cfg.Matcher, cfg.KernelSize)
	if err != nil {
		return nil, err
	}
	c.Matcher = m
	c.Dispatcher = newDispatcher(cfg, logger)
	c.Pointer = newPointer(logger)
	c.Calibrator = calibrate.NewCalibrator(c.Source, cfg.Calibration, logger)
	c.Supervisor = trigger.NewSupervisor(trigger.Options{
		Interval:   cfg.PollInterval,
		Trim:       cfg.Trim,
		Source:     c.Source,
		Matcher:    c.Matcher,
		Dispatcher: c.Dispatcher,
		Logger:     logger,
	})

	var pointer calibrate.PointerSource
	if c.Pointer != nil {
		pointer = c.Pointer
	}
	c.Controller = NewController(c.Supervisor, c.Calibrator, pointer, exit, logger)

	c.Markers = model.NewMarkerModel()
	c.Activity = model.NewActivityModel()
	var view presenter.MarkerView
	if cfg.Status.Addr != "" {
		c.Server = server.New(c.Controller, c.Markers, c.Activity, cfg.Status.PreviewScale, cfg.KernelSize, logger)
		view = c.Server
	}
	c.Presenter = presenter.NewMarkerPresenter(c.Controller, c.Markers, c.Activity, view, logger)

	binder, err := hotkey.NewBinder(cfg.Hotkeys)
	if err != nil {
		return nil, err
	}
	c.Binder = binder
	c.Hook = hotkey.NewHook(logger)
	return c, nil
}

// newDispatcher picks key synthesis, falling back to logging presses when
// dry-run is set or the platform cannot synthesize keys.
func newDispatcher(cfg *config.Config, logger *slog.Logger) action.Dispatcher {
	if cfg.DryRun {
		return action.NewLogDispatcher(logger)
	}
	kd, err := action.NewKeyboardDispatcher(cfg.KeyHold, logger)
	if err != nil {
		logger.Warn("key synthesis unavailable, logging presses instead", "error", err)
		return action.NewLogDispatcher(logger)
	}
	return kd
}

func newPointer(logger *slog.Logger) action.PointerSource {
	p, err := action.NewCursorPointer()
	if err != nil {
		logger.Warn("pointer position unavailable, calibrate and move hotkeys disabled", "error", err)
		return nil
	}
	return p
}
