// Package vision decides whether a captured region contains a calibrated color.
package vision

import (
	"image"

	"github.com/anthonynsimon/bild/effect"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

// DefaultKernelSize is the side of the square opening element.
const DefaultKernelSize = 5

// Matcher decides match/no-match for a pixel buffer and a calibrated range.
// Implementations must be safe for concurrent use.
type Matcher interface {
	Matches(img *image.RGBA, rng ColorRange) (bool, error)
}

// HSVMatcher thresholds the buffer in HSV space and removes speckle noise
// with a morphological opening before looking for any surviving pixel.
type HSVMatcher struct {
	kernel int
}

// NewHSVMatcher returns a matcher with a kernel×kernel opening element.
// Non-positive sizes fall back to DefaultKernelSize; even sizes round up.
func NewHSVMatcher(kernel int) *HSVMatcher {
	return &HSVMatcher{kernel: normalizeKernel(kernel)}
}

// KernelSize reports the effective opening element size.
func (m *HSVMatcher) KernelSize() int { return m.kernel }

func (m *HSVMatcher) Matches(img *image.RGBA, rng ColorRange) (bool, error) {
	if img == nil || img.Bounds().Empty() {
		return false, apperr.New(apperr.CodeInvalidRegion, "empty pixel buffer")
	}
	mask, hits := Mask(img, rng)
	if hits == 0 {
		// opening never adds pixels
		return false, nil
	}
	return anySet(Open(mask, m.kernel)), nil
}

// Mask returns a binary mask (0 or 255) of the pixels of img inside rng, and
// the number of set pixels. The mask origin is (0,0).
func Mask(img *image.RGBA, rng ColorRange) (*image.Gray, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := image.NewGray(image.Rect(0, 0, w, h))
	hits := 0
	for y := 0; y < h; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		row := img.Pix[off : off+w*4]
		for x := 0; x < w; x++ {
			i := x * 4
			if rng.Contains(HSVFromRGB(row[i], row[i+1], row[i+2])) {
				mask.Pix[y*mask.Stride+x] = 0xFF
				hits++
			}
		}
	}
	return mask, hits
}

// Open applies erosion then dilation with a square element of side kernel.
func Open(mask image.Image, kernel int) *image.RGBA {
	radius := float64(normalizeKernel(kernel) / 2)
	return effect.Dilate(effect.Erode(mask, radius), radius)
}

func anySet(img *image.RGBA) bool {
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			return true
		}
	}
	return false
}

func normalizeKernel(k int) int {
	if k <= 0 {
		return DefaultKernelSize
	}
	if k%2 == 0 {
		k++
	}
	return k
}

// openCVFactory is installed by the gocv build.
var openCVFactory func(kernel int) Matcher

// NewMatcher selects a matcher implementation by name: "hsv" (default) or
// "opencv" (requires building with -tags gocv).
func NewMatcher(kind string, kernel int) (Matcher, error) {
	switch kind {
	case "", "hsv":
		return NewHSVMatcher(kernel), nil
	case "opencv":
		if openCVFactory == nil {
			return nil, apperr.New(apperr.CodeUnsupported, "opencv matcher requires the gocv build tag")
		}
		return openCVFactory(kernel), nil
	default:
		return nil, apperr.Newf(apperr.CodeInvalidConfig, "unknown matcher %q", kind)
	}
}

var _ Matcher = (*HSVMatcher)(nil)
