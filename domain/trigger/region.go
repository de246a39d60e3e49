package trigger

import (
	"image"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
	"github.com/soocke/pixel-trigger-go/domain/vision"
)

// Trim is the border excluded from sampling so the on-screen marker outline
// never feeds the matcher.
type Trim struct {
	Leading  int `json:"leading" mapstructure:"leading"`
	Trailing int `json:"trailing" mapstructure:"trailing"`
}

// DefaultTrim skips 8px on the top/left and 5px on the bottom/right.
var DefaultTrim = Trim{Leading: 8, Trailing: 5}

// Interior returns the sampled part of b.
func (t Trim) Interior(b image.Rectangle) image.Rectangle {
	return image.Rect(b.Min.X+t.Leading, b.Min.Y+t.Leading, b.Max.X-t.Trailing, b.Max.Y-t.Trailing)
}

// Region is an immutable snapshot of one watched screen rectangle.
type Region struct {
	Name   string            `json:"name"`
	Bounds image.Rectangle   `json:"bounds"`
	Range  vision.ColorRange `json:"range"`
	Swatch vision.Swatch     `json:"swatch"`
	Action string            `json:"action"`
	Active bool              `json:"active"`
	// Activations increments on every inactive->active flip.
	Activations uint64 `json:"activations"`
}

// RegionSpec describes a region to spawn.
type RegionSpec struct {
	Name   string
	Bounds image.Rectangle
	Range  vision.ColorRange
	Swatch vision.Swatch
	Action string
	Active bool
}

func (s RegionSpec) region() Region {
	return Region{Name: s.Name, Bounds: s.Bounds, Range: s.Range, Swatch: s.Swatch, Action: s.Action, Active: s.Active}
}

// Validate checks geometry against trim and the color range ordering.
func (r Region) Validate(trim Trim) error {
	if r.Bounds.Dx() <= 0 || r.Bounds.Dy() <= 0 {
		return apperr.Newf(apperr.CodeInvalidRegion, "region size %dx%d not positive", r.Bounds.Dx(), r.Bounds.Dy()).
			WithMetadata("region", r.Name)
	}
	if trim.Interior(r.Bounds).Empty() {
		return apperr.Newf(apperr.CodeInvalidRegion, "region %v has no interior after trim", r.Bounds).
			WithMetadata("region", r.Name)
	}
	if err := r.Range.Validate(); err != nil {
		return err
	}
	if r.Action == "" {
		return apperr.New(apperr.CodeInvalidRegion, "region has no action").WithMetadata("region", r.Name)
	}
	return nil
}
