package action

import (
	"strconv"
	"strings"
)

// Windows virtual-key codes for the named keys a region can be bound to.
var namedKeys = map[string]byte{
	"backspace": 0x08,
	"tab":       0x09,
	"enter":     0x0D,
	"return":    0x0D,
	"shift":     0x10,
	"ctrl":      0x11,
	"alt":       0x12,
	"escape":    0x1B,
	"esc":       0x1B,
	"space":     0x20,
	"left":      0x25,
	"up":        0x26,
	"right":     0x27,
	"down":      0x28,
}

var keyNames = func() map[byte]string {
	m := make(map[byte]string, len(namedKeys))
	for name, vk := range namedKeys {
		// prefer the shortest alias
		if prev, ok := m[vk]; ok && (len(prev) < len(name) || len(prev) == len(name) && prev < name) {
			continue
		}
		m[vk] = name
	}
	return m
}()

// ParseVK converts a key symbol ("left", "a", "7", "F8") into a Windows
// virtual-key code. Symbols are case-insensitive.
func ParseVK(symbol string) (byte, bool) {
	k := strings.ToLower(strings.TrimSpace(symbol))
	if vk, ok := namedKeys[k]; ok {
		return vk, true
	}
	if len(k) == 1 {
		switch c := k[0]; {
		case c >= 'a' && c <= 'z':
			return c - 'a' + 'A', true // 'A'..'Z' match VK codes
		case c >= '0' && c <= '9':
			return c, true
		}
	}
	if len(k) >= 2 && k[0] == 'f' {
		if n, err := strconv.Atoi(k[1:]); err == nil && n >= 1 && n <= 12 {
			return byte(0x70 + n - 1), true // VK_F1=0x70
		}
	}
	return 0, false
}

// KeyName is the inverse of ParseVK, used to name hooked key events.
func KeyName(vk byte) string {
	switch {
	case vk >= 'A' && vk <= 'Z':
		return string(rune(vk - 'A' + 'a'))
	case vk >= '0' && vk <= '9':
		return string(rune(vk))
	case vk >= 0x70 && vk <= 0x7B:
		return "f" + strconv.Itoa(int(vk-0x70)+1)
	}
	if name, ok := keyNames[vk]; ok {
		return name
	}
	return ""
}

// isExtended reports keys that need KEYEVENTF_EXTENDEDKEY (the arrow cluster).
func isExtended(vk byte) bool { return vk >= 0x25 && vk <= 0x28 }
