//go:build !windows

package action

import (
	"log/slog"
	"time"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

// KeyboardDispatcher is only available on Windows.
type KeyboardDispatcher struct{}

func NewKeyboardDispatcher(time.Duration, *slog.Logger) (*KeyboardDispatcher, error) {
	return nil, apperr.New(apperr.CodeUnsupported, "key synthesis requires windows")
}

func (*KeyboardDispatcher) PressKey(string) {}

func NewCursorPointer() (PointerSource, error) {
	return nil, apperr.New(apperr.CodeUnsupported, "pointer position requires windows")
}
