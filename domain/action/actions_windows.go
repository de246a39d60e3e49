package action

import (
	"image"
	"log/slog"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

const (
	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002
	mapvkVKToVSC         = 0
)

var (
	user32            = windows.NewLazySystemDLL("user32.dll")
	procKeybdEvent    = user32.NewProc("keybd_event")
	procMapVirtualKey = user32.NewProc("MapVirtualKeyW")
	procGetCursorPos  = user32.NewProc("GetCursorPos")
)

// KeyboardDispatcher presses keys through keybd_event.
type KeyboardDispatcher struct {
	hold   time.Duration
	logger *slog.Logger
}

// NewKeyboardDispatcher returns a dispatcher holding each key for hold.
func NewKeyboardDispatcher(hold time.Duration, logger *slog.Logger) (*KeyboardDispatcher, error) {
	if err := procKeybdEvent.Find(); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUnsupported, "keybd_event unavailable")
	}
	if hold <= 0 {
		hold = DefaultHold
	}
	return &KeyboardDispatcher{hold: hold, logger: logger}, nil
}

// PressKey sends key down, waits hold, then key up on its own goroutine.
func (d *KeyboardDispatcher) PressKey(symbol string) {
	vk, ok := ParseVK(symbol)
	if !ok {
		if d.logger != nil {
			d.logger.Warn("unknown key symbol", "action", symbol)
		}
		return
	}
	go func() {
		defer recoverLog(d.logger, "key press goroutine panic")
		scan, _, _ := procMapVirtualKey.Call(uintptr(vk), mapvkVKToVSC)
		var flags uintptr
		if isExtended(vk) {
			flags = keyeventfExtendedKey
		}
		_, _, _ = procKeybdEvent.Call(uintptr(vk), scan, flags, 0)
		time.Sleep(d.hold)
		_, _, _ = procKeybdEvent.Call(uintptr(vk), scan, flags|keyeventfKeyUp, 0)
	}()
}

type point struct{ X, Y int32 }

// CursorPointer reads the pointer with GetCursorPos.
type CursorPointer struct{}

func NewCursorPointer() (PointerSource, error) { return CursorPointer{}, nil }

func (CursorPointer) Position() (image.Point, error) {
	var p point
	r, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if r == 0 {
		return image.Point{}, apperr.Wrap(err, apperr.CodeUnsupported, "GetCursorPos failed")
	}
	return image.Pt(int(p.X), int(p.Y)), nil
}

var _ Dispatcher = (*KeyboardDispatcher)(nil)
