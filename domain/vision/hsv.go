package vision

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

// HSV is a color on the 8-bit OpenCV scale: H in 0..179 (degrees/2), S and V
// in 0..255. Range bounds derived by calibration may leave those intervals.
type HSV struct {
	H int `json:"h" mapstructure:"h"`
	S int `json:"s" mapstructure:"s"`
	V int `json:"v" mapstructure:"v"`
}

func (c HSV) String() string { return fmt.Sprintf("hsv(%d, %d, %d)", c.H, c.S, c.V) }

// HSVFromRGB converts 8-bit RGB components to HSV.
func HSVFromRGB(r, g, b uint8) HSV {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()
	hue := int(math.Round(h / 2))
	if hue >= 180 {
		hue -= 180
	}
	return HSV{H: hue, S: int(math.Round(s * 255)), V: int(math.Round(v * 255))}
}

// ColorRange is an inclusive lower/upper HSV bound pair. Hue is compared
// linearly; there is no wraparound at 0/180.
type ColorRange struct {
	Lower HSV `json:"lower" mapstructure:"lower"`
	Upper HSV `json:"upper" mapstructure:"upper"`
}

// Contains reports whether c lies inside the range componentwise.
func (r ColorRange) Contains(c HSV) bool {
	return c.H >= r.Lower.H && c.H <= r.Upper.H &&
		c.S >= r.Lower.S && c.S <= r.Upper.S &&
		c.V >= r.Lower.V && c.V <= r.Upper.V
}

// Validate checks lower <= upper on every channel.
func (r ColorRange) Validate() error {
	if r.Lower.H > r.Upper.H || r.Lower.S > r.Upper.S || r.Lower.V > r.Upper.V {
		return apperr.Newf(apperr.CodeInvalidRegion, "color range lower %v exceeds upper %v", r.Lower, r.Upper)
	}
	return nil
}

func (r ColorRange) String() string { return fmt.Sprintf("[%v..%v]", r.Lower, r.Upper) }

// Swatch is the display color shown for a region's calibrated color.
type Swatch struct {
	R, G, B uint8
}

// SwatchOf converts any color to a Swatch, dropping alpha.
func SwatchOf(c color.Color) Swatch {
	r, g, b, _ := c.RGBA()
	return Swatch{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// ParseSwatch parses "#RRGGBB" or "#RGB".
func ParseSwatch(hex string) (Swatch, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Swatch{}, apperr.Wrapf(err, apperr.CodeInvalidConfig, "swatch %q", hex)
	}
	r, g, b := c.RGB255()
	return Swatch{R: r, G: g, B: b}, nil
}

// String renders the swatch as a CSS rgb() value.
func (s Swatch) String() string { return fmt.Sprintf("rgb(%d, %d, %d)", s.R, s.G, s.B) }

// Hex renders the swatch as "#rrggbb".
func (s Swatch) Hex() string {
	return colorful.Color{R: float64(s.R) / 255, G: float64(s.G) / 255, B: float64(s.B) / 255}.Hex()
}

// RGBA returns the opaque color.
func (s Swatch) RGBA() color.RGBA { return color.RGBA{R: s.R, G: s.G, B: s.B, A: 0xFF} }

// MarshalText encodes the swatch as hex so it travels as a JSON string.
func (s Swatch) MarshalText() ([]byte, error) { return []byte(s.Hex()), nil }

// UnmarshalText accepts the hex form produced by MarshalText.
func (s *Swatch) UnmarshalText(b []byte) error {
	v, err := ParseSwatch(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
