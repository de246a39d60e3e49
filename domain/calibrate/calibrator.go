// Package calibrate derives a region's color range from one on-screen pixel.
package calibrate

import (
	"image"
	"image/color"
	"log/slog"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
	"github.com/soocke/pixel-trigger-go/domain/vision"
)

// PixelSource is the slice of capture.FrameSource the calibrator needs.
type PixelSource interface {
	CapturePixel(pt image.Point) (color.RGBA, error)
	Bounds() image.Rectangle
}

// PointerSource reports the current pointer position in screen coordinates.
type PointerSource interface {
	Position() (image.Point, error)
}

// Tolerance widens a sampled color into a range. Hue is offset both ways;
// saturation and value use fixed bounds.
type Tolerance struct {
	Hue      int `json:"hue" mapstructure:"hue"`
	SatFloor int `json:"sat_floor" mapstructure:"sat_floor"`
	SatCeil  int `json:"sat_ceil" mapstructure:"sat_ceil"`
	ValFloor int `json:"val_floor" mapstructure:"val_floor"`
	ValCeil  int `json:"val_ceil" mapstructure:"val_ceil"`
}

// DefaultTolerance is ±10 hue with S and V in [100,255].
var DefaultTolerance = Tolerance{Hue: 10, SatFloor: 100, SatCeil: 255, ValFloor: 100, ValCeil: 255}

// Range returns the calibrated range around c. Hue bounds are not wrapped.
func (t Tolerance) Range(c vision.HSV) vision.ColorRange {
	return vision.ColorRange{
		Lower: vision.HSV{H: c.H - t.Hue, S: t.SatFloor, V: t.ValFloor},
		Upper: vision.HSV{H: c.H + t.Hue, S: t.SatCeil, V: t.ValCeil},
	}
}

// Calibration is the outcome of sampling one pixel.
type Calibration struct {
	Point  image.Point       `json:"point"`
	Sample vision.HSV        `json:"sample"`
	Range  vision.ColorRange `json:"range"`
	Swatch vision.Swatch     `json:"swatch"`
}

// Calibrator samples pixels and turns them into color ranges.
type Calibrator struct {
	source    PixelSource
	tolerance Tolerance
	logger    *slog.Logger
}

func NewCalibrator(source PixelSource, tol Tolerance, logger *slog.Logger) *Calibrator {
	return &Calibrator{source: source, tolerance: tol, logger: logger}
}

// Calibrate samples the pixel at pt. Points outside the capturable surface
// return an OutOfBounds error.
func (c *Calibrator) Calibrate(pt image.Point) (Calibration, error) {
	if b := c.source.Bounds(); !pt.In(b) {
		return Calibration{}, apperr.Newf(apperr.CodeOutOfBounds, "point %v outside %v", pt, b)
	}
	px, err := c.source.CapturePixel(pt)
	if err != nil {
		return Calibration{}, err
	}
	sample := vision.HSVFromRGB(px.R, px.G, px.B)
	cal := Calibration{
		Point:  pt,
		Sample: sample,
		Range:  c.tolerance.Range(sample),
		Swatch: vision.Swatch{R: px.R, G: px.G, B: px.B},
	}
	if c.logger != nil {
		c.logger.Debug("calibrated", "x", pt.X, "y", pt.Y, "sample", sample.String(), "swatch", cal.Swatch.String())
	}
	return cal, nil
}

// CalibrateAtPointer samples the pixel under the pointer.
func (c *Calibrator) CalibrateAtPointer(p PointerSource) (Calibration, error) {
	pt, err := p.Position()
	if err != nil {
		return Calibration{}, err
	}
	return c.Calibrate(pt)
}
