package hotkey

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultTrigger is the out-of-the-box combo.
const DefaultTrigger = "ctrl+shift+space"

// Combo is a parsed trigger definition: one or more modifiers plus a key.
type Combo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Key   string
}

// ParseCombo parses a trigger like "ctrl+shift+space" or "alt+f9".
// Supported modifiers: ctrl, shift, alt. Supported keys: space, a-z, 0-9,
// f1-f12. At least one modifier is required so a plain key never becomes a
// global trigger.
func ParseCombo(s string) (Combo, error) {
	var c Combo
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		switch p {
		case "ctrl", "control":
			c.Ctrl = true
		case "shift":
			c.Shift = true
		case "alt", "option":
			c.Alt = true
		case "":
			return Combo{}, fmt.Errorf("empty component in trigger %q", s)
		default:
			if i != len(parts)-1 {
				return Combo{}, fmt.Errorf("unknown modifier %q in trigger %q", p, s)
			}
			if !validKey(p) {
				return Combo{}, fmt.Errorf("unsupported trigger key %q", p)
			}
			c.Key = p
		}
	}
	if c.Key == "" {
		return Combo{}, fmt.Errorf("trigger %q has no key", s)
	}
	if !c.Ctrl && !c.Shift && !c.Alt {
		return Combo{}, fmt.Errorf("trigger %q needs at least one modifier", s)
	}
	return c, nil
}

func validKey(k string) bool {
	if k == "space" {
		return true
	}
	if len(k) == 1 {
		ch := k[0]
		return (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9')
	}
	if strings.HasPrefix(k, "f") {
		n, err := strconv.Atoi(k[1:])
		return err == nil && n >= 1 && n <= 12
	}
	return false
}

func (c Combo) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}
