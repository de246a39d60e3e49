// Package action synthesizes key presses and reads the pointer position.
package action

import (
	"image"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultHold is how long a synthesized key stays down.
const DefaultHold = 40 * time.Millisecond

// Dispatcher emits a key press for a symbol. PressKey returns without waiting
// for the key to be released.
type Dispatcher interface {
	PressKey(symbol string)
}

// PointerSource reports the pointer position in screen coordinates.
type PointerSource interface {
	Position() (image.Point, error)
}

// LogDispatcher logs presses instead of sending them.
type LogDispatcher struct {
	logger  *slog.Logger
	presses atomic.Uint64
}

// NewLogDispatcher returns the dry-run dispatcher.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) PressKey(symbol string) {
	d.presses.Add(1)
	if d.logger == nil {
		return
	}
	if _, ok := ParseVK(symbol); !ok {
		d.logger.Warn("unknown key symbol", "action", symbol)
		return
	}
	d.logger.Info("key press (dry run)", "action", symbol)
}

// Presses reports how many presses were requested.
func (d *LogDispatcher) Presses() uint64 { return d.presses.Load() }

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r)
		}
	}
}

var _ Dispatcher = (*LogDispatcher)(nil)
