//go:build !windows

package hotkey

import (
	"context"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

// Run reports Unsupported; global keyboard hooks need Windows.
func (h *Hook) Run(ctx context.Context, out chan<- KeyEvent) error {
	return apperr.New(apperr.CodeUnsupported, "keyboard hook requires windows")
}
