// Package hotkey turns global keyboard events into control intents.
package hotkey

import (
	"fmt"

	"github.com/soocke/pixel-trigger-go/domain/action"
	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

// KeyEvent is one global key transition.
type KeyEvent struct {
	VK   byte
	Down bool
}

func (e KeyEvent) String() string {
	name := action.KeyName(e.VK)
	if name == "" {
		name = fmt.Sprintf("vk%#02x", e.VK)
	}
	if e.Down {
		return name + " down"
	}
	return name + " up"
}

// IntentKind enumerates what a hotkey asks the application to do.
type IntentKind int

const (
	IntentCalibrate IntentKind = iota
	IntentMoveToPointer
	IntentToggle
	IntentExit
)

func (k IntentKind) String() string {
	switch k {
	case IntentCalibrate:
		return "calibrate"
	case IntentMoveToPointer:
		return "move_to_pointer"
	case IntentToggle:
		return "toggle"
	case IntentExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Intent is a decoded hotkey. Region is only meaningful for calibrate and
// move intents.
type Intent struct {
	Kind   IntentKind
	Region int
}

func (i Intent) String() string {
	switch i.Kind {
	case IntentCalibrate, IntentMoveToPointer:
		return fmt.Sprintf("%s(%d)", i.Kind, i.Region)
	}
	return i.Kind.String()
}

// Bindings names the keys: Regions[i] selects region i.
type Bindings struct {
	Regions []string `json:"regions" mapstructure:"regions"`
	Toggle  string   `json:"toggle" mapstructure:"toggle"`
	Exit    string   `json:"exit" mapstructure:"exit"`
}

// DefaultBindings are digits 1..4, F8 to toggle and Escape to exit.
func DefaultBindings() Bindings {
	return Bindings{Regions: []string{"1", "2", "3", "4"}, Toggle: "f8", Exit: "esc"}
}

const (
	vkShift  = 0x10
	vkLShift = 0xA0
	vkRShift = 0xA1
)

// Binder decodes key events against Bindings. It is not safe for
// concurrent use; feed it from one goroutine.
type Binder struct {
	regions map[byte]int
	toggle  byte
	exit    byte
	shift   bool
	held    map[byte]bool
}

// NewBinder resolves every binding to a virtual-key code.
func NewBinder(b Bindings) (*Binder, error) {
	bd := &Binder{regions: make(map[byte]int, len(b.Regions)), held: make(map[byte]bool)}
	seen := make(map[byte]string)
	resolve := func(what, sym string) (byte, error) {
		vk, ok := action.ParseVK(sym)
		if !ok {
			return 0, apperr.Newf(apperr.CodeInvalidConfig, "hotkey %s: unknown key %q", what, sym)
		}
		if isShift(vk) {
			return 0, apperr.Newf(apperr.CodeInvalidConfig, "hotkey %s: shift is reserved", what)
		}
		if prev, dup := seen[vk]; dup {
			return 0, apperr.Newf(apperr.CodeInvalidConfig, "hotkey %s: %q already bound to %s", what, sym, prev)
		}
		seen[vk] = what
		return vk, nil
	}
	for i, sym := range b.Regions {
		vk, err := resolve(fmt.Sprintf("region %d", i), sym)
		if err != nil {
			return nil, err
		}
		bd.regions[vk] = i
	}
	var err error
	if bd.toggle, err = resolve("toggle", b.Toggle); err != nil {
		return nil, err
	}
	if bd.exit, err = resolve("exit", b.Exit); err != nil {
		return nil, err
	}
	return bd, nil
}

// Handle decodes one event. Region keys with shift held map to
// IntentMoveToPointer and keep firing on auto-repeat; every other intent
// fires once per physical press.
func (b *Binder) Handle(ev KeyEvent) (Intent, bool) {
	if isShift(ev.VK) {
		b.shift = ev.Down
		return Intent{}, false
	}
	if !ev.Down {
		delete(b.held, ev.VK)
		return Intent{}, false
	}
	repeat := b.held[ev.VK]
	b.held[ev.VK] = true

	if idx, ok := b.regions[ev.VK]; ok {
		if b.shift {
			return Intent{Kind: IntentMoveToPointer, Region: idx}, true
		}
		if repeat {
			return Intent{}, false
		}
		return Intent{Kind: IntentCalibrate, Region: idx}, true
	}
	if repeat {
		return Intent{}, false
	}
	switch ev.VK {
	case b.toggle:
		return Intent{Kind: IntentToggle}, true
	case b.exit:
		return Intent{Kind: IntentExit}, true
	}
	return Intent{}, false
}

func isShift(vk byte) bool { return vk == vkShift || vk == vkLShift || vk == vkRShift }
