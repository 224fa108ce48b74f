package hotkey

import "testing"

func TestParseCombo(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ctrl+shift+space", "ctrl+shift+space"},
		{"Ctrl+Shift+Space", "ctrl+shift+space"},
		{" ctrl + shift + space ", "ctrl+shift+space"},
		{"alt+f9", "alt+f9"},
		{"option+f9", "alt+f9"},
		{"control+alt+v", "ctrl+alt+v"},
		{"shift+5", "shift+5"},
		{"ctrl+shift+alt+z", "ctrl+shift+alt+z"},
	}
	for _, c := range cases {
		got, err := ParseCombo(c.in)
		if err != nil {
			t.Errorf("ParseCombo(%q): %v", c.in, err)
			continue
		}
		if got.String() != c.want {
			t.Errorf("ParseCombo(%q) = %q, want %q", c.in, got.String(), c.want)
		}
	}
}

func TestParseComboErrors(t *testing.T) {
	cases := []string{
		"",
		"space",          // no modifier
		"ctrl+shift",     // no key
		"ctrl++space",    // empty component
		"ctrl+shift+",    // trailing separator
		"hyper+space",    // unknown modifier
		"ctrl+escape",    // esc is reserved for cancel
		"ctrl+f13",       // out of range
		"ctrl+aa",        // not a key
		"space+ctrl",     // key before modifier
	}
	for _, in := range cases {
		if _, err := ParseCombo(in); err == nil {
			t.Errorf("ParseCombo(%q): expected error", in)
		}
	}
}

func TestDefaultTriggerParses(t *testing.T) {
	c, err := ParseCombo(DefaultTrigger)
	if err != nil {
		t.Fatalf("default trigger does not parse: %v", err)
	}
	if !c.Ctrl || !c.Shift || c.Key != "space" {
		t.Errorf("unexpected default combo: %+v", c)
	}
}
