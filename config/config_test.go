package config

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Regions) != 4 || cfg.Regions[0].Name != "purple" || cfg.Regions[3].Key != "right" {
		t.Fatalf("default regions = %+v", cfg.Regions)
	}
}

func TestDefaultRegionSpecs(t *testing.T) {
	specs, err := DefaultConfig().RegionSpecs()
	if err != nil {
		t.Fatal(err)
	}
	blue := specs[1]
	if blue.Bounds != image.Rect(562, 200, 592, 260) || blue.Action != "down" || !blue.Active {
		t.Fatalf("blue spec = %+v", blue)
	}
	if blue.Swatch.String() != "rgb(0, 255, 255)" {
		t.Fatalf("blue swatch = %s", blue.Swatch)
	}
	if blue.Range.Lower.H != 80 || blue.Range.Upper.V != 255 {
		t.Fatalf("blue range = %v", blue.Range)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "pixeltrigger.yaml", `
debug: true
poll_interval: 2ms
kernel_size: 4
key_hold: 25ms
hotkeys:
  toggle: f9
regions:
  - name: lane
    x: 10
    y: 20
    width: 40
    height: 50
    swatch: "#112233"
    lower: {h: 5, s: 100, v: 100}
    upper: {h: 25, s: 255, v: 255}
    key: space
    disabled: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug || cfg.PollInterval != 2*time.Millisecond || cfg.KeyHold != 25*time.Millisecond {
		t.Fatalf("scalars = %+v", cfg)
	}
	if cfg.KernelSize != 5 {
		t.Fatalf("kernel size = %d, want 5 (rounded up to odd)", cfg.KernelSize)
	}
	if cfg.Hotkeys.Toggle != "f9" || cfg.Hotkeys.Exit != "esc" || len(cfg.Hotkeys.Regions) != 4 {
		t.Fatalf("hotkeys = %+v", cfg.Hotkeys)
	}
	if len(cfg.Regions) != 1 {
		t.Fatalf("regions = %d, want the configured list only", len(cfg.Regions))
	}
	specs, err := cfg.RegionSpecs()
	if err != nil {
		t.Fatal(err)
	}
	if specs[0].Bounds != image.Rect(10, 20, 50, 70) || specs[0].Active || specs[0].Range.Lower.H != 5 {
		t.Fatalf("spec = %+v", specs[0])
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "pixeltrigger.json", `{"matcher": "opencv", "capture": {"backend": "display"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Matcher != "opencv" || cfg.Capture.Backend != "display" || cfg.Capture.StatsInterval <= 0 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.Regions) != 4 {
		t.Fatal("regions should keep defaults when not configured")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeFile(t, "bad.yaml", "regions: [\n")
	cfg, err := Load(path)
	if !apperr.IsCode(err, apperr.CodeInvalidConfig) {
		t.Fatalf("err = %v", err)
	}
	if cfg == nil || len(cfg.Regions) != 4 {
		t.Fatal("defaults not returned alongside the error")
	}
}

func TestValidateClamps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PollInterval = time.Nanosecond
	cfg.KernelSize = 100
	cfg.Trim.Leading = -1
	cfg.Calibration.Hue = -3
	cfg.Calibration.SatCeil = 400
	cfg.KeyHold = time.Minute
	cfg.Status.PreviewScale = 0
	cfg.Regions[0].Name = ""
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.PollInterval != 100*time.Microsecond || cfg.KernelSize != 31 || cfg.Trim.Leading != 8 {
		t.Fatalf("clamped = %+v", cfg)
	}
	if cfg.Calibration.Hue != 10 || cfg.Calibration.SatCeil != 255 || cfg.KeyHold != time.Second || cfg.Status.PreviewScale != 4 {
		t.Fatalf("clamped = %+v", cfg)
	}
	if cfg.Regions[0].Name != "region1" {
		t.Fatalf("name = %q", cfg.Regions[0].Name)
	}
}

func TestValidateRejectsNoRegions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Regions = nil
	if err := cfg.Validate(); !apperr.IsCode(err, apperr.CodeInvalidConfig) {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRejectsUnknownKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Regions[2].Key = "hyper"
	if err := cfg.Validate(); !apperr.IsCode(err, apperr.CodeInvalidConfig) {
		t.Fatalf("err = %v", err)
	}
	cfg.Regions[2].Key = "F5"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("F5 rejected: %v", err)
	}
}

func TestRegionSpecsBadSwatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Regions[2].Swatch = "green"
	if _, err := cfg.RegionSpecs(); !apperr.IsCode(err, apperr.CodeInvalidConfig) {
		t.Fatalf("err = %v", err)
	}
}
