package app

import (
	"context"
	"image"
	"log/slog"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
	"github.com/soocke/pixel-trigger-go/domain/calibrate"
	"github.com/soocke/pixel-trigger-go/domain/capture"
	"github.com/soocke/pixel-trigger-go/domain/hotkey"
	"github.com/soocke/pixel-trigger-go/domain/trigger"
)

// Controller routes hotkey intents and client commands to the supervisor and
// calibrator.
type Controller struct {
	supervisor *trigger.Supervisor
	calibrator *calibrate.Calibrator
	pointer    calibrate.PointerSource
	logger     *slog.Logger
	exit       func()
}

// NewController builds a controller. pointer may be nil, in which case the
// pointer-driven intents fail with Unsupported. exit is called on an Exit intent.
func NewController(s *trigger.Supervisor, c *calibrate.Calibrator, pointer calibrate.PointerSource, exit func(), logger *slog.Logger) *Controller {
	return &Controller{supervisor: s, calibrator: c, pointer: pointer, exit: exit, logger: logger}
}

func (c *Controller) Apply(cmd trigger.Command) error      { return c.supervisor.Apply(cmd) }
func (c *Controller) Regions() []trigger.Region            { return c.supervisor.Regions() }
func (c *Controller) Region(i int) (trigger.Region, error) { return c.supervisor.Region(i) }

func (c *Controller) RegionFrame(i int) (capture.FrameSnapshot, error) {
	m, err := c.supervisor.Monitor(i)
	if err != nil {
		return capture.FrameSnapshot{}, err
	}
	return m.LatestFrame(), nil
}

func (c *Controller) RegionStats(i int) (trigger.MonitorStats, error) {
	m, err := c.supervisor.Monitor(i)
	if err != nil {
		return trigger.MonitorStats{}, err
	}
	return m.Stats(), nil
}

// CalibrateRegion samples pt and recolors region i with the result. The
// region is left unchanged when sampling fails.
func (c *Controller) CalibrateRegion(i int, pt image.Point) (calibrate.Calibration, error) {
	if _, err := c.supervisor.Region(i); err != nil {
		return calibrate.Calibration{}, err
	}
	cal, err := c.calibrator.Calibrate(pt)
	if err != nil {
		return calibrate.Calibration{}, err
	}
	if err := c.supervisor.RecolorRegion(i, cal.Range, cal.Swatch); err != nil {
		return calibrate.Calibration{}, err
	}
	return cal, nil
}

func (c *Controller) pointerPosition() (image.Point, error) {
	if c.pointer == nil {
		return image.Point{}, apperr.New(apperr.CodeUnsupported, "no pointer source")
	}
	return c.pointer.Position()
}

// HandleIntent performs one hotkey intent.
func (c *Controller) HandleIntent(in hotkey.Intent) error {
	switch in.Kind {
	case hotkey.IntentCalibrate:
		pt, err := c.pointerPosition()
		if err != nil {
			return err
		}
		_, err = c.CalibrateRegion(in.Region, pt)
		return err
	case hotkey.IntentMoveToPointer:
		pt, err := c.pointerPosition()
		if err != nil {
			return err
		}
		return c.supervisor.MoveRegion(in.Region, pt)
	case hotkey.IntentToggle:
		c.supervisor.ToggleAll()
		return nil
	case hotkey.IntentExit:
		if c.logger != nil {
			c.logger.Info("exit requested")
		}
		if c.exit != nil {
			c.exit()
		}
		return nil
	default:
		return apperr.Newf(apperr.CodeInvalidConfig, "unknown intent %v", in)
	}
}

// RunIntents handles intents until ctx is done or intents is closed. Failed
// intents are logged and skipped.
func (c *Controller) RunIntents(ctx context.Context, intents <-chan hotkey.Intent) {
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-intents:
			if !ok {
				return
			}
			if err := c.HandleIntent(in); err != nil && c.logger != nil {
				c.logger.Warn("hotkey intent failed", "intent", in.String(), "error", err)
			}
		}
	}
}
