package capture

import (
	"image"
	"image/color"

	"github.com/vova616/screenshot"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

// ScreenSource captures from the primary screen.
type ScreenSource struct{}

// NewScreenSource returns the default capture backend.
func NewScreenSource() *ScreenSource { return &ScreenSource{} }

func (ScreenSource) Capture(rect image.Rectangle) (*image.RGBA, error) {
	if err := checkRect(rect); err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.CodeCaptureFailure, "capture %v", rect)
	}
	return img, nil
}

func (s ScreenSource) CapturePixel(pt image.Point) (color.RGBA, error) {
	return samplePixel(s.Capture, pt)
}

// Bounds returns the screen rectangle, or an empty rectangle if it cannot
// be queried.
func (ScreenSource) Bounds() image.Rectangle {
	r, err := screenshot.ScreenRect()
	if err != nil {
		return image.Rectangle{}
	}
	return r
}

var _ FrameSource = ScreenSource{}
