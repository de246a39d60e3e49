package hotkey

import (
	"context"
	"log/slog"
)

// Hook delivers global key events until its context ends.
type Hook struct {
	logger *slog.Logger
}

func NewHook(logger *slog.Logger) *Hook { return &Hook{logger: logger} }

// Decode runs events through b until ctx ends or events closes, sending each
// intent to out. It blocks on out.
func Decode(ctx context.Context, b *Binder, events <-chan KeyEvent, out chan<- Intent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			intent, ok := b.Handle(ev)
			if !ok {
				continue
			}
			select {
			case out <- intent:
			case <-ctx.Done():
				return
			}
		}
	}
}
