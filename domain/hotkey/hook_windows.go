package hotkey

import (
	"context"

	"github.com/moutend/go-hook/pkg/keyboard"
	"github.com/moutend/go-hook/pkg/types"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

// Run installs a low-level keyboard hook and forwards key transitions to out
// until ctx is done. Events are dropped while out is full.
func (h *Hook) Run(ctx context.Context, out chan<- KeyEvent) error {
	events := make(chan types.KeyboardEvent, 100)
	if err := keyboard.Install(nil, events); err != nil {
		return apperr.Wrap(err, apperr.CodeUnsupported, "install keyboard hook")
	}
	defer keyboard.Uninstall()
	if h.logger != nil {
		h.logger.Info("keyboard hook installed")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			var down bool
			switch ev.Message {
			case types.WM_KEYDOWN, types.WM_SYSKEYDOWN:
				down = true
			case types.WM_KEYUP, types.WM_SYSKEYUP:
			default:
				continue
			}
			ke := KeyEvent{VK: byte(ev.VKCode), Down: down}
			select {
			case out <- ke:
			default:
				if h.logger != nil {
					h.logger.Debug("key event dropped", "key", ke.String())
				}
			}
		}
	}
}
