package hotkey

import (
	"context"
	"testing"
	"time"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
)

func newDefaultBinder(t *testing.T) *Binder {
	t.Helper()
	b, err := NewBinder(DefaultBindings())
	if err != nil {
		t.Fatalf("NewBinder: %v", err)
	}
	return b
}

func down(vk byte) KeyEvent { return KeyEvent{VK: vk, Down: true} }
func up(vk byte) KeyEvent   { return KeyEvent{VK: vk} }

func TestBinder_DigitCalibrates(t *testing.T) {
	b := newDefaultBinder(t)
	intent, ok := b.Handle(down('3'))
	if !ok || intent != (Intent{Kind: IntentCalibrate, Region: 2}) {
		t.Fatalf("got %v %v", intent, ok)
	}
	if _, ok := b.Handle(down('3')); ok {
		t.Fatal("auto-repeat recalibrated")
	}
	b.Handle(up('3'))
	if _, ok := b.Handle(down('3')); !ok {
		t.Fatal("second press ignored")
	}
}

func TestBinder_ShiftDigitFollowsPointer(t *testing.T) {
	b := newDefaultBinder(t)
	b.Handle(down(vkLShift))
	for i := 0; i < 3; i++ {
		intent, ok := b.Handle(down('1'))
		if !ok || intent != (Intent{Kind: IntentMoveToPointer, Region: 0}) {
			t.Fatalf("repeat %d: got %v %v", i, intent, ok)
		}
	}
	b.Handle(up(vkLShift))
	if _, ok := b.Handle(down('1')); ok {
		t.Fatal("held digit after shift release should not fire")
	}
}

func TestBinder_ToggleAndExit(t *testing.T) {
	b := newDefaultBinder(t)
	if intent, ok := b.Handle(down(0x77)); !ok || intent.Kind != IntentToggle {
		t.Fatalf("F8: %v %v", intent, ok)
	}
	if _, ok := b.Handle(down(0x77)); ok {
		t.Fatal("toggle repeated")
	}
	if intent, ok := b.Handle(down(0x1B)); !ok || intent.Kind != IntentExit {
		t.Fatalf("esc: %v %v", intent, ok)
	}
	if _, ok := b.Handle(down('Q')); ok {
		t.Fatal("unbound key produced an intent")
	}
}

func TestNewBinder_Rejects(t *testing.T) {
	tests := []Bindings{
		{Regions: []string{"1", "1"}, Toggle: "f8", Exit: "esc"},
		{Regions: []string{"1"}, Toggle: "warp", Exit: "esc"},
		{Regions: []string{"shift"}, Toggle: "f8", Exit: "esc"},
		{Regions: []string{"1"}, Toggle: "esc", Exit: "esc"},
	}
	for i, bindings := range tests {
		if _, err := NewBinder(bindings); !apperr.IsCode(err, apperr.CodeInvalidConfig) {
			t.Errorf("case %d: err = %v", i, err)
		}
	}
}

func TestIntentString(t *testing.T) {
	if got := (Intent{Kind: IntentMoveToPointer, Region: 1}).String(); got != "move_to_pointer(1)" {
		t.Errorf("String() = %q", got)
	}
	if got := (Intent{Kind: IntentExit}).String(); got != "exit" {
		t.Errorf("String() = %q", got)
	}
}

func TestKeyEventString(t *testing.T) {
	tests := []struct {
		ev   KeyEvent
		want string
	}{
		{KeyEvent{VK: 0x77, Down: true}, "f8 down"},
		{KeyEvent{VK: '2'}, "2 up"},
		{KeyEvent{VK: 0x1B, Down: true}, "esc down"},
		{KeyEvent{VK: 0x5B, Down: true}, "vk0x5b down"},
	}
	for _, tt := range tests {
		if got := tt.ev.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, want %q", tt.ev, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	b := newDefaultBinder(t)
	events := make(chan KeyEvent, 4)
	out := make(chan Intent, 4)
	events <- down('2')
	events <- up('2')
	events <- down(0x1B)
	close(events)

	done := make(chan struct{})
	go func() {
		Decode(context.Background(), b, events, out)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Decode did not return on closed events")
	}
	close(out)
	var got []Intent
	for i := range out {
		got = append(got, i)
	}
	if len(got) != 2 || got[0].Kind != IntentCalibrate || got[0].Region != 1 || got[1].Kind != IntentExit {
		t.Fatalf("intents = %v", got)
	}
}
