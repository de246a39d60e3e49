//go:build gocv

package vision

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

func init() {
	openCVFactory = func(kernel int) Matcher { return NewOpenCVMatcher(kernel) }
}

// OpenCVMatcher runs the threshold + opening pipeline through OpenCV.
type OpenCVMatcher struct {
	kernel int
}

// NewOpenCVMatcher returns an OpenCV-backed matcher with a kernel×kernel element.
func NewOpenCVMatcher(kernel int) *OpenCVMatcher {
	return &OpenCVMatcher{kernel: normalizeKernel(kernel)}
}

func (m *OpenCVMatcher) Matches(img *image.RGBA, rng ColorRange) (bool, error) {
	if img == nil || img.Bounds().Empty() {
		return false, apperr.New(apperr.CodeInvalidRegion, "empty pixel buffer")
	}
	b := img.Bounds()
	src, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, contiguousPix(img))
	if err != nil {
		return false, apperr.Wrap(err, apperr.CodeInvalidRegion, "pixel buffer to mat")
	}
	defer src.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(src, &bgr, gocv.ColorRGBAToBGR)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	// Calibrated hue may leave 0..179; clamp so the scalar stays meaningful.
	lower := gocv.NewScalar(float64(clampChannel(rng.Lower.H)), float64(clampChannel(rng.Lower.S)), float64(clampChannel(rng.Lower.V)), 0)
	upper := gocv.NewScalar(float64(clampChannel(rng.Upper.H)), float64(clampChannel(rng.Upper.S)), float64(clampChannel(rng.Upper.V)), 0)
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(m.kernel, m.kernel))
	defer kernel.Close()
	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(mask, &opened, gocv.MorphOpen, kernel)

	return gocv.CountNonZero(opened) > 0, nil
}

// contiguousPix returns img's pixels with stride width*4, copying sub-images.
func contiguousPix(img *image.RGBA) []byte {
	b := img.Bounds()
	rowLen := b.Dx() * 4
	if img.Stride == rowLen && img.PixOffset(b.Min.X, b.Min.Y) == 0 {
		return img.Pix[:rowLen*b.Dy()]
	}
	out := make([]byte, rowLen*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out[y*rowLen:], img.Pix[off:off+rowLen])
	}
	return out
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

var _ Matcher = (*OpenCVMatcher)(nil)
