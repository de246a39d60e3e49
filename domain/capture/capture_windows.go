//go:build windows

package capture

// GDI capture: each call creates a temporary top-down DIB, BitBlt's the
// screen rect into it and converts BGRA to a heap-owned RGBA image.

import (
	"image"
	"image/color"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

const (
	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCxVirtualScreen = 78
	smCyVirtualScreen = 79
	srccopy           = 0x00CC0020
	dibRGBColors      = 0
	biRgb             = 0
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	gdi32                  = windows.NewLazySystemDLL("gdi32.dll")
	procGetDC              = user32.NewProc("GetDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procGetSystemMetrics   = user32.NewProc("GetSystemMetrics")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
	procGetPixel           = gdi32.NewProc("GetPixel")
)

type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	_      [4]byte
}

// GDISource captures through GDI BitBlt on the virtual desktop.
type GDISource struct{}

// NewGDISource returns the GDI backend.
func NewGDISource() (FrameSource, error) { return GDISource{}, nil }

func (GDISource) Bounds() image.Rectangle {
	x := int(int32(systemMetric(smXVirtualScreen)))
	y := int(int32(systemMetric(smYVirtualScreen)))
	w := int(int32(systemMetric(smCxVirtualScreen)))
	h := int(int32(systemMetric(smCyVirtualScreen)))
	return image.Rect(x, y, x+w, y+h)
}

func (g GDISource) Capture(rect image.Rectangle) (*image.RGBA, error) {
	if err := checkRect(rect); err != nil {
		return nil, err
	}
	r := rect.Intersect(g.Bounds())
	if r.Empty() {
		return nil, apperr.Newf(apperr.CodeCaptureFailure, "rect %v outside screen", rect)
	}
	w, h := r.Dx(), r.Dy()

	screenDC, _, _ := procGetDC.Call(0)
	if screenDC == 0 {
		return nil, gdiError("GetDC")
	}
	defer procReleaseDC.Call(0, screenDC)

	memDC, _, _ := procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		return nil, gdiError("CreateCompatibleDC")
	}
	defer procDeleteDC.Call(memDC)

	var bi bitmapInfo
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.BiWidth = int32(w)
	bi.Header.BiHeight = -int32(h) // top-down
	bi.Header.BiPlanes = 1
	bi.Header.BiBitCount = 32
	bi.Header.BiCompression = biRgb
	bi.Header.BiSizeImage = uint32(w * h * 4)

	var bits unsafe.Pointer
	bmp, _, _ := procCreateDIBSection.Call(memDC, uintptr(unsafe.Pointer(&bi)), dibRGBColors, uintptr(unsafe.Pointer(&bits)), 0, 0)
	if bmp == 0 {
		return nil, gdiError("CreateDIBSection")
	}
	defer procDeleteObject.Call(bmp)

	if prev, _, _ := procSelectObject.Call(memDC, bmp); prev == 0 || prev == ^uintptr(0) {
		return nil, gdiError("SelectObject")
	}
	ok, _, _ := procBitBlt.Call(memDC, 0, 0, uintptr(w), uintptr(h), screenDC, uintptr(r.Min.X), uintptr(r.Min.Y), srccopy)
	if ok == 0 {
		return nil, gdiError("BitBlt").WithMetadata("rect", r.String())
	}

	n := w * h * 4
	src := unsafe.Slice((*byte)(bits), n)
	dst := image.NewRGBA(r)
	for i := 0; i < n; i += 4 {
		dst.Pix[i+0] = src[i+2]
		dst.Pix[i+1] = src[i+1]
		dst.Pix[i+2] = src[i+0]
		dst.Pix[i+3] = 0xFF
	}
	return dst, nil
}

// CapturePixel reads a single pixel with GetPixel, skipping the DIB setup.
func (GDISource) CapturePixel(pt image.Point) (color.RGBA, error) {
	dc, _, _ := procGetDC.Call(0)
	if dc == 0 {
		return color.RGBA{}, gdiError("GetDC")
	}
	defer procReleaseDC.Call(0, dc)
	// COLORREF is 0x00BBGGRR; CLR_INVALID when the point is clipped.
	ref, _, _ := procGetPixel.Call(dc, uintptr(pt.X), uintptr(pt.Y))
	if ref == 0xFFFFFFFF {
		return color.RGBA{}, apperr.Newf(apperr.CodeCaptureFailure, "GetPixel(%d,%d) invalid", pt.X, pt.Y)
	}
	return color.RGBA{R: uint8(ref), G: uint8(ref >> 8), B: uint8(ref >> 16), A: 0xFF}, nil
}

func systemMetric(idx int) uintptr {
	v, _, _ := procGetSystemMetrics.Call(uintptr(idx))
	return v
}

func gdiError(call string) *apperr.AppError {
	return apperr.Wrapf(windows.GetLastError(), apperr.CodeCaptureFailure, "%s failed", call)
}
