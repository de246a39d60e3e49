package app

import (
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/soocke/pixel-trigger-go/config"
	"github.com/soocke/pixel-trigger-go/domain/action"
	"github.com/soocke/pixel-trigger-go/domain/apperr"
	"github.com/soocke/pixel-trigger-go/domain/calibrate"
	"github.com/soocke/pixel-trigger-go/domain/hotkey"
	"github.com/soocke/pixel-trigger-go/domain/trigger"
	"github.com/soocke/pixel-trigger-go/domain/vision"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// solidSource returns frames filled with one color.
type solidSource struct {
	mu sync.Mutex
	c  color.RGBA
}

func (s *solidSource) set(c color.RGBA) {
	s.mu.Lock()
	s.c = c
	s.mu.Unlock()
}

func (s *solidSource) color() color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c
}

func (s *solidSource) Capture(rect image.Rectangle) (*image.RGBA, error) {
	if rect.Empty() {
		return nil, apperr.New(apperr.CodeCaptureFailure, "empty rect")
	}
	c := s.color()
	img := image.NewRGBA(rect)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, 0xFF
	}
	return img, nil
}

func (s *solidSource) CapturePixel(image.Point) (color.RGBA, error) { return s.color(), nil }
func (s *solidSource) Bounds() image.Rectangle                      { return image.Rect(0, 0, 1920, 1080) }

type fixedPointer struct{ pt image.Point }

func (p fixedPointer) Position() (image.Point, error) { return p.pt, nil }

var (
	red  = color.RGBA{R: 0xFF, A: 0xFF}
	cyan = color.RGBA{G: 0xFF, B: 0xFF, A: 0xFF}
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DryRun = true
	cfg.Status.Addr = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return cfg
}

func newTestController(t *testing.T, src *solidSource, pointer calibrate.PointerSource, exit func()) (*Controller, *trigger.Supervisor) {
	t.Helper()
	sup := trigger.NewSupervisor(trigger.Options{
		Interval:   time.Millisecond,
		Source:     src,
		Dispatcher: action.NewLogDispatcher(nil),
		Logger:     discardLogger,
	})
	specs, err := testConfig(t).RegionSpecs()
	if err != nil {
		t.Fatalf("specs: %v", err)
	}
	if err := sup.Spawn(context.Background(), specs); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	t.Cleanup(sup.Shutdown)
	cal := calibrate.NewCalibrator(src, calibrate.DefaultTolerance, discardLogger)
	return NewController(sup, cal, pointer, exit, discardLogger), sup
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func TestController_CalibrateAtPointer(t *testing.T) {
	src := &solidSource{c: red}
	c, sup := newTestController(t, src, fixedPointer{image.Pt(300, 210)}, nil)

	if err := c.HandleIntent(hotkey.Intent{Kind: hotkey.IntentCalibrate, Region: 0}); err != nil {
		t.Fatalf("calibrate: %v", err)
	}
	r, _ := sup.Region(0)
	want := vision.ColorRange{Lower: vision.HSV{H: -10, S: 100, V: 100}, Upper: vision.HSV{H: 10, S: 255, V: 255}}
	if r.Range != want {
		t.Fatalf("range = %v, want %v", r.Range, want)
	}
	if r.Swatch != (vision.Swatch{R: 0xFF}) {
		t.Fatalf("swatch = %v", r.Swatch)
	}
}

func TestController_CalibrateOutOfBoundsKeepsRegion(t *testing.T) {
	c, sup := newTestController(t, &solidSource{c: red}, nil, nil)
	before, _ := sup.Region(1)

	_, err := c.CalibrateRegion(1, image.Pt(5000, 5000))
	if !apperr.IsCode(err, apperr.CodeOutOfBounds) {
		t.Fatalf("expected out of bounds, got %v", err)
	}
	if after, _ := sup.Region(1); after.Range != before.Range || after.Swatch != before.Swatch {
		t.Fatalf("region changed: %+v -> %+v", before, after)
	}
	if _, err := c.CalibrateRegion(9, image.Pt(1, 1)); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestController_MoveToPointer(t *testing.T) {
	c, sup := newTestController(t, &solidSource{c: red}, fixedPointer{image.Pt(100, 150)}, nil)

	if err := c.HandleIntent(hotkey.Intent{Kind: hotkey.IntentMoveToPointer, Region: 1}); err != nil {
		t.Fatalf("move: %v", err)
	}
	r, _ := sup.Region(1)
	if r.Bounds != image.Rect(100, 150, 130, 210) {
		t.Fatalf("bounds = %v", r.Bounds)
	}
}

func TestController_PointerIntentsNeedPointer(t *testing.T) {
	c, _ := newTestController(t, &solidSource{c: red}, nil, nil)
	for _, kind := range []hotkey.IntentKind{hotkey.IntentCalibrate, hotkey.IntentMoveToPointer} {
		if err := c.HandleIntent(hotkey.Intent{Kind: kind}); !apperr.IsCode(err, apperr.CodeUnsupported) {
			t.Fatalf("%v: expected unsupported, got %v", kind, err)
		}
	}
}

func TestController_ToggleAndExit(t *testing.T) {
	exited := 0
	c, sup := newTestController(t, &solidSource{c: red}, nil, func() { exited++ })

	intents := make(chan hotkey.Intent, 2)
	intents <- hotkey.Intent{Kind: hotkey.IntentToggle}
	intents <- hotkey.Intent{Kind: hotkey.IntentExit}
	close(intents)
	c.RunIntents(context.Background(), intents)

	for i, r := range sup.Regions() {
		if r.Active {
			t.Fatalf("region %d still active after toggle", i)
		}
	}
	if exited != 1 {
		t.Fatalf("exit called %d times", exited)
	}
}

func TestController_FrameAndStats(t *testing.T) {
	c, _ := newTestController(t, &solidSource{c: cyan}, nil, nil)

	waitFor(t, time.Second, "first frame", func() bool {
		snap, err := c.RegionFrame(1)
		return err == nil && snap.Image != nil
	})
	snap, _ := c.RegionFrame(1)
	// 30x60 region trimmed by 8 leading and 5 trailing pixels
	if b := snap.Image.Bounds(); b.Dx() != 17 || b.Dy() != 47 {
		t.Fatalf("interior frame is %v", b)
	}
	stats, err := c.RegionStats(1)
	if err != nil || stats.Polls == 0 {
		t.Fatalf("stats = %+v, %v", stats, err)
	}
	if _, err := c.RegionFrame(7); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBuildContainer_StatusServerOptional(t *testing.T) {
	cfg := testConfig(t)
	c, err := BuildContainer(cfg, discardLogger, &solidSource{c: red}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if c.Server != nil || c.Presenter.View != nil {
		t.Fatal("status server built without an address")
	}
	if _, ok := c.Dispatcher.(*action.LogDispatcher); !ok {
		t.Fatalf("dry run dispatcher is %T", c.Dispatcher)
	}

	cfg.Status.Addr = "127.0.0.1:0"
	c, err = BuildContainer(cfg, discardLogger, &solidSource{c: red}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if c.Server == nil || c.Presenter.View == nil {
		t.Fatal("status server missing")
	}
}

func TestBuildContainer_RejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Matcher = "bogus"
	if _, err := BuildContainer(cfg, discardLogger, &solidSource{}, nil); !apperr.IsCode(err, apperr.CodeInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}

	cfg = testConfig(t)
	cfg.Hotkeys.Toggle = "shift"
	if _, err := BuildContainer(cfg, discardLogger, &solidSource{}, nil); !apperr.IsCode(err, apperr.CodeInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestApp_PressesOnceAndExits(t *testing.T) {
	a, err := NewApp(testConfig(t), discardLogger, &solidSource{c: cyan})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	a.Container.Hook = nil

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	presses := a.Container.Dispatcher.(*action.LogDispatcher)
	waitFor(t, 2*time.Second, "blue lane press", func() bool { return presses.Presses() >= 1 })
	waitFor(t, time.Second, "markers", func() bool { return len(a.Container.Markers.Snapshot()) == 4 })
	time.Sleep(20 * time.Millisecond)
	if n := presses.Presses(); n != 1 {
		t.Fatalf("constant cyan pressed %d times, want 1", n)
	}
	if m, _ := a.Container.Markers.Get(1); !m.Matched || m.Color != (vision.Swatch{R: 0xFF, G: 0xFF, B: 0xFF}) {
		t.Fatalf("blue marker = %+v", m)
	}

	a.Exit()
	a.Exit()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after exit")
	}
}
