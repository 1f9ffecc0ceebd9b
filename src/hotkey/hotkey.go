package hotkey

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"

	"screen-pin/src/logutil"
)

// Listen registers a global hotkey and calls callback on every activation.
// The callback runs on the hook goroutine and must not block.
func Listen(hotkeyConfig string, log logutil.Sink, callback func()) error {
	combo, err := NewCombo(hotkeyConfig)
	if err != nil {
		return err
	}
	if log == nil {
		log = logutil.Discard()
	}
	logutil.Logf(log, logutil.LevelInfo, "hotkey: listening for %s", combo)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logutil.Logf(log, logutil.LevelError, "hotkey: panic in hook goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			logutil.Logf(log, logutil.LevelError, "hotkey: gohook.Start() returned nil channel")
			return
		}
		defer gohook.End()

		for ev := range evChan {
			var fired bool
			switch ev.Kind {
			case gohook.KeyDown:
				fired = combo.Press(ev.Rawcode)
			case gohook.KeyUp:
				combo.Release(ev.Rawcode)
			default:
				continue
			}
			if fired {
				logutil.Logf(log, logutil.LevelDebug, "hotkey: %s activated", combo)
				if callback != nil {
					callback()
				}
			}
		}
		logutil.Logf(log, logutil.LevelDebug, "hotkey: event channel closed")
	}()
	return nil
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// Combo tracks which keys of a combination are held down.
type Combo struct {
	raw  string
	mu   sync.Mutex
	keys []keyState
}

// NewCombo parses a hotkey like "Ctrl+Alt+A". Every key must be known.
func NewCombo(hotkeyConfig string) (*Combo, error) {
	names := parseHotkey(hotkeyConfig)
	c := &Combo{raw: hotkeyConfig}
	for _, name := range names {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			return nil, fmt.Errorf("hotkey %q: unknown key %q", hotkeyConfig, name)
		}
		c.keys = append(c.keys, keyState{name: name, rawcodes: codes})
	}
	if len(c.keys) == 0 {
		return nil, fmt.Errorf("hotkey %q: no keys", hotkeyConfig)
	}
	return c, nil
}

func (c *Combo) String() string { return c.raw }

// Press records a key-down and reports whether the whole combination is
// now held. Firing resets the state so holding the keys fires once.
func (c *Combo) Press(rawcode uint16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mark(rawcode, true)
	for i := range c.keys {
		if !c.keys[i].pressed {
			return false
		}
	}
	for i := range c.keys {
		c.keys[i].pressed = false
	}
	return true
}

// Release records a key-up.
func (c *Combo) Release(rawcode uint16) {
	c.mu.Lock()
	c.mark(rawcode, false)
	c.mu.Unlock()
}

func (c *Combo) mark(rawcode uint16, pressed bool) {
	for i := range c.keys {
		for _, rc := range c.keys[i].rawcodes {
			if rc == rawcode {
				c.keys[i].pressed = pressed
				break
			}
		}
	}
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+a" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			part = "ctrl"
		case "win", "cmd", "super":
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys
}

// Windows virtual-key codes for named keys. Modifiers list both the left
// and right variants.
var namedKeys = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":       {32},
	"enter":       {13},
	"return":      {13},
	"esc":         {27},
	"escape":      {27},
	"tab":         {9},
	"backspace":   {8},
	"delete":      {46},
	"del":         {46},
	"insert":      {45},
	"ins":         {45},
	"home":        {36},
	"end":         {35},
	"pageup":      {33},
	"pgup":        {33},
	"pagedown":    {34},
	"pgdn":        {34},
	"left":        {37},
	"up":          {38},
	"right":       {39},
	"down":        {40},
	"printscreen": {44}, // VK_SNAPSHOT
	"prtsc":       {44},
}

// keyNameToRawcodes maps a key name to its Windows virtual key code rawcodes.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if codes, ok := namedKeys[keyName]; ok {
		return codes
	}
	if alias := parseHotkey(keyName); len(alias) == 1 && alias[0] != keyName {
		return keyNameToRawcodes(alias[0])
	}
	if len(keyName) == 1 {
		switch ch := keyName[0]; {
		case ch >= 'a' && ch <= 'z':
			return []uint16{uint16(ch-'a') + 65}
		case ch >= '0' && ch <= '9':
			return []uint16{uint16(ch-'0') + 48}
		}
	}
	if rest, ok := strings.CutPrefix(keyName, "f"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)} // VK_F1 = 112
		}
	}
	return nil
}
