package capture

import (
	"image"
	"image/color"

	"github.com/kbinani/screenshot"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

// DisplaySource captures across every active display. Coordinates are those
// of the virtual desktop, so secondary monitors may have negative origins.
type DisplaySource struct{}

func NewDisplaySource() *DisplaySource { return &DisplaySource{} }

func (DisplaySource) Capture(rect image.Rectangle) (*image.RGBA, error) {
	if err := checkRect(rect); err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.CodeCaptureFailure, "capture %v", rect)
	}
	return img, nil
}

func (s DisplaySource) CapturePixel(pt image.Point) (color.RGBA, error) {
	return samplePixel(s.Capture, pt)
}

// Bounds is the union of all active display bounds.
func (DisplaySource) Bounds() image.Rectangle {
	var all image.Rectangle
	for i := 0; i < screenshot.NumActiveDisplays(); i++ {
		all = all.Union(screenshot.GetDisplayBounds(i))
	}
	return all
}

var _ FrameSource = DisplaySource{}
