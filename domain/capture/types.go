// Package capture provides screen pixel sources for region monitors and the
// calibrator, plus instrumentation around them.
package capture

import (
	"image"
	"image/color"
	"time"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

// FrameSource captures screen pixels. Implementations must be safe for
// concurrent calls from several monitors.
type FrameSource interface {
	// Capture returns the pixels of rect in screen coordinates. The returned
	// image is owned by the caller.
	Capture(rect image.Rectangle) (*image.RGBA, error)
	// CapturePixel returns the color of a single screen pixel.
	CapturePixel(pt image.Point) (color.RGBA, error)
	// Bounds reports the capturable surface.
	Bounds() image.Rectangle
}

// FrameSnapshot carries a captured frame and metadata.
type FrameSnapshot struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Sequence   uint64
}

// CaptureStats summarises capture behaviour for instrumentation.
type CaptureStats struct {
	Captures         uint64
	Failures         uint64
	AvgCapture       time.Duration
	AvgCaptureMicros float64
	LastCapture      time.Time
}

// samplePixel implements CapturePixel on top of a rect capture.
func samplePixel(capture func(image.Rectangle) (*image.RGBA, error), pt image.Point) (color.RGBA, error) {
	img, err := capture(image.Rect(pt.X, pt.Y, pt.X+1, pt.Y+1))
	if err != nil {
		return color.RGBA{}, err
	}
	if img.Bounds().Empty() {
		return color.RGBA{}, apperr.Newf(apperr.CodeCaptureFailure, "empty capture at (%d,%d)", pt.X, pt.Y)
	}
	return img.RGBAAt(img.Bounds().Min.X, img.Bounds().Min.Y), nil
}

func checkRect(rect image.Rectangle) error {
	if rect.Empty() {
		return apperr.Newf(apperr.CodeCaptureFailure, "empty capture rect %v", rect)
	}
	return nil
}

// New returns the FrameSource for a configured backend name: "screen"
// (default), "display" (all monitors) or "gdi" (Windows only).
func New(backend string) (FrameSource, error) {
	switch backend {
	case "", "screen":
		return NewScreenSource(), nil
	case "display":
		return NewDisplaySource(), nil
	case "gdi":
		return NewGDISource()
	default:
		return nil, apperr.Newf(apperr.CodeInvalidConfig, "unknown capture backend %q", backend)
	}
}
