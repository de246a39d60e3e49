package config

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"time"

	"github.com/spf13/viper"

	"github.com/soocke/pixel-trigger-go/domain/action"
	"github.com/soocke/pixel-trigger-go/domain/apperr"
	"github.com/soocke/pixel-trigger-go/domain/calibrate"
	"github.com/soocke/pixel-trigger-go/domain/capture"
	"github.com/soocke/pixel-trigger-go/domain/hotkey"
	"github.com/soocke/pixel-trigger-go/domain/trigger"
	"github.com/soocke/pixel-trigger-go/domain/vision"
)

// RegionConfig describes one watched region as written in the config file.
type RegionConfig struct {
	Name     string     `mapstructure:"name"`
	X        int        `mapstructure:"x"`
	Y        int        `mapstructure:"y"`
	Width    int        `mapstructure:"width"`
	Height   int        `mapstructure:"height"`
	Swatch   string     `mapstructure:"swatch"`
	Lower    vision.HSV `mapstructure:"lower"`
	Upper    vision.HSV `mapstructure:"upper"`
	Key      string     `mapstructure:"key"`
	Disabled bool       `mapstructure:"disabled"`
}

type CaptureConfig struct {
	Backend       string        `mapstructure:"backend"`
	StatsInterval time.Duration `mapstructure:"stats_interval"`
}

// StatusConfig controls the status server. An empty Addr disables it.
type StatusConfig struct {
	Addr         string `mapstructure:"addr"`
	PreviewScale int    `mapstructure:"preview_scale"`
}

// Config holds runtime configuration for the monitors and app behaviour.
// Fields are loaded from a YAML or JSON file and overridden by command-line flags.
type Config struct {
	Debug  bool `mapstructure:"debug"`
	DryRun bool `mapstructure:"dry_run"`

	// Detection parameters
	PollInterval time.Duration       `mapstructure:"poll_interval"`
	Trim         trigger.Trim        `mapstructure:"trim"`
	KernelSize   int                 `mapstructure:"kernel_size"`
	Matcher      string              `mapstructure:"matcher"`
	Calibration  calibrate.Tolerance `mapstructure:"calibration"`

	Capture CaptureConfig   `mapstructure:"capture"`
	KeyHold time.Duration   `mapstructure:"key_hold"`
	Hotkeys hotkey.Bindings `mapstructure:"hotkeys"`
	Status  StatusConfig    `mapstructure:"status"`

	Regions []RegionConfig `mapstructure:"regions"`
}

// DefaultConfig returns a Config populated with standard defaults: four
// lanes, purple/blue/green/red, bound to the arrow keys.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: trigger.DefaultInterval,
		Trim:         trigger.DefaultTrim,
		KernelSize:   vision.DefaultKernelSize,
		Matcher:      "hsv",
		Calibration:  calibrate.DefaultTolerance,
		Capture:      CaptureConfig{Backend: "screen", StatsInterval: capture.DefaultStatsInterval},
		KeyHold:      40 * time.Millisecond,
		Hotkeys:      hotkey.DefaultBindings(),
		Status:       StatusConfig{Addr: "127.0.0.1:8765", PreviewScale: 4},
		Regions: []RegionConfig{
			{Name: "purple", X: 273, Y: 200, Width: 30, Height: 60, Swatch: "#C24B99",
				Lower: vision.HSV{H: 150, S: 116, V: 154}, Upper: vision.HSV{H: 170, S: 196, V: 234}, Key: "left"},
			{Name: "blue", X: 562, Y: 200, Width: 30, Height: 60, Swatch: "#00FFFF",
				Lower: vision.HSV{H: 80, S: 215, V: 215}, Upper: vision.HSV{H: 100, S: 255, V: 255}, Key: "down"},
			{Name: "green", X: 856, Y: 200, Width: 30, Height: 60, Swatch: "#12FA05",
				Lower: vision.HSV{H: 48, S: 210, V: 210}, Upper: vision.HSV{H: 68, S: 255, V: 255}, Key: "up"},
			{Name: "red", X: 1141, Y: 200, Width: 30, Height: 60, Swatch: "#F9393F",
				Lower: vision.HSV{H: 169, S: 157, V: 209}, Upper: vision.HSV{H: 179, S: 237, V: 255}, Key: "right"},
		},
	}
}

// Validate clamps/normalizes values to safe ranges. It fails when no region
// is configured or a region is bound to a key that cannot be synthesized.
func (c *Config) Validate() error {
	c.PollInterval = trigger.ClampInterval(c.PollInterval)
	if c.Trim.Leading < 0 || c.Trim.Trailing < 0 {
		c.Trim = trigger.DefaultTrim
	}
	if c.KernelSize <= 0 {
		c.KernelSize = vision.DefaultKernelSize
	}
	if c.KernelSize%2 == 0 {
		c.KernelSize++
	}
	if c.KernelSize > 31 {
		c.KernelSize = 31
	}
	if c.Matcher == "" {
		c.Matcher = "hsv"
	}
	if c.Calibration.Hue < 0 || c.Calibration.Hue > 90 {
		c.Calibration.Hue = calibrate.DefaultTolerance.Hue
	}
	c.Calibration.SatFloor = clampByte(c.Calibration.SatFloor)
	c.Calibration.SatCeil = clampByte(c.Calibration.SatCeil)
	c.Calibration.ValFloor = clampByte(c.Calibration.ValFloor)
	c.Calibration.ValCeil = clampByte(c.Calibration.ValCeil)
	if c.Calibration.SatCeil < c.Calibration.SatFloor {
		c.Calibration.SatCeil = 255
	}
	if c.Calibration.ValCeil < c.Calibration.ValFloor {
		c.Calibration.ValCeil = 255
	}
	if c.Capture.Backend == "" {
		c.Capture.Backend = "screen"
	}
	if c.Capture.StatsInterval <= 0 {
		c.Capture.StatsInterval = capture.DefaultStatsInterval
	}
	if c.KeyHold <= 0 {
		c.KeyHold = 40 * time.Millisecond
	}
	if c.KeyHold > time.Second {
		c.KeyHold = time.Second
	}
	if len(c.Hotkeys.Regions) == 0 {
		c.Hotkeys.Regions = hotkey.DefaultBindings().Regions
	}
	if c.Hotkeys.Toggle == "" {
		c.Hotkeys.Toggle = hotkey.DefaultBindings().Toggle
	}
	if c.Hotkeys.Exit == "" {
		c.Hotkeys.Exit = hotkey.DefaultBindings().Exit
	}
	if c.Status.PreviewScale < 1 {
		c.Status.PreviewScale = 4
	}
	if c.Status.PreviewScale > 16 {
		c.Status.PreviewScale = 16
	}
	if len(c.Regions) == 0 {
		return apperr.New(apperr.CodeInvalidConfig, "no regions configured")
	}
	for i := range c.Regions {
		if c.Regions[i].Name == "" {
			c.Regions[i].Name = fmt.Sprintf("region%d", i+1)
		}
		if key := c.Regions[i].Key; key != "" {
			if _, ok := action.ParseVK(key); !ok {
				return apperr.Newf(apperr.CodeInvalidConfig, "region %s: unknown key %q", c.Regions[i].Name, key)
			}
		}
	}
	return nil
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// RegionSpecs converts the configured regions for the supervisor.
func (c *Config) RegionSpecs() ([]trigger.RegionSpec, error) {
	specs := make([]trigger.RegionSpec, 0, len(c.Regions))
	for _, rc := range c.Regions {
		var swatch vision.Swatch
		if rc.Swatch != "" {
			s, err := vision.ParseSwatch(rc.Swatch)
			if err != nil {
				return nil, err
			}
			swatch = s
		}
		specs = append(specs, trigger.RegionSpec{
			Name:   rc.Name,
			Bounds: image.Rect(rc.X, rc.Y, rc.X+rc.Width, rc.Y+rc.Height),
			Range:  vision.ColorRange{Lower: rc.Lower, Upper: rc.Upper},
			Swatch: swatch,
			Action: rc.Key,
			Active: !rc.Disabled,
		})
	}
	return specs, nil
}

// Load reads configuration from path (YAML or JSON, by extension). If the
// file does not exist it returns DefaultConfig(). On decode error it returns
// defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return cfg, cfg.Validate()
		}
		return cfg, apperr.Wrapf(err, apperr.CodeInvalidConfig, "read config %s", path)
	}

	loaded := DefaultConfig()
	if v.IsSet("regions") {
		// a configured list replaces the defaults instead of merging into them
		loaded.Regions = nil
	}
	if err := v.Unmarshal(loaded); err != nil {
		return cfg, apperr.Wrapf(err, apperr.CodeInvalidConfig, "decode config %s", path)
	}
	if err := loaded.Validate(); err != nil {
		return cfg, err
	}
	return loaded, nil
}
