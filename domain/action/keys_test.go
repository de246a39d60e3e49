package action

import (
	"log/slog"
	"testing"
)

func TestParseVK(t *testing.T) {
	tests := []struct {
		in   string
		want byte
		ok   bool
	}{
		{"left", 0x25, true},
		{"Up", 0x26, true},
		{"right", 0x27, true},
		{"DOWN", 0x28, true},
		{"a", 'A', true},
		{"Z", 'Z', true},
		{"7", '7', true},
		{"F1", 0x70, true},
		{"f8", 0x77, true},
		{"F12", 0x7B, true},
		{"F13", 0, false},
		{"F0", 0, false},
		{"space", 0x20, true},
		{" enter ", 0x0D, true},
		{"esc", 0x1B, true},
		{"shift", 0x10, true},
		{"", 0, false},
		{"hyper", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseVK(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseVK(%q) = (%#x, %v), want (%#x, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKeyNameRoundTrip(t *testing.T) {
	for _, sym := range []string{"left", "up", "right", "down", "a", "q", "1", "f1", "f10", "f12", "space", "enter", "esc", "shift"} {
		vk, ok := ParseVK(sym)
		if !ok {
			t.Fatalf("ParseVK(%q) failed", sym)
		}
		if got := KeyName(vk); got != sym {
			t.Errorf("KeyName(ParseVK(%q)) = %q", sym, got)
		}
	}
	if KeyName(0xFF) != "" {
		t.Error("unknown vk should have no name")
	}
}

func TestIsExtended(t *testing.T) {
	for _, sym := range []string{"left", "up", "right", "down"} {
		vk, _ := ParseVK(sym)
		if !isExtended(vk) {
			t.Errorf("%s should be extended", sym)
		}
	}
	if isExtended('A') {
		t.Error("letters are not extended keys")
	}
}

func TestLogDispatcherCounts(t *testing.T) {
	d := NewLogDispatcher(slog.New(slog.DiscardHandler))
	d.PressKey("left")
	d.PressKey("nope")
	if d.Presses() != 2 {
		t.Fatalf("presses = %d", d.Presses())
	}
	NewLogDispatcher(nil).PressKey("left")
}
