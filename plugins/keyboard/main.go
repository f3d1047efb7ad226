// Package main provides a keyboard plugin.
// It drives presentations by sending keystrokes for recognized gestures,
// via AppleScript on macOS and xdotool on Linux.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action     string          `json:"action"`
	Gesture    string          `json:"gesture"`
	Confidence float64         `json:"confidence"`
	Config     json.RawMessage `json:"config"`
	Params     json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeystrokeParams defines parameters for keystroke and shortcut actions.
type KeystrokeParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// presentKeys maps presentation gestures to the key that performs them.
var presentKeys = map[string]KeystrokeParams{
	"next_slide":     {Key: "right"},
	"previous_slide": {Key: "left"},
	"start_present":  {Key: "f5"},
	"end":            {Key: "escape"},
	"home":           {Key: "home"},
	"zoom_in":        {Key: "=", Modifiers: []string{"command"}},
	"zoom_out":       {Key: "-", Modifiers: []string{"command"}},
}

// appleKeyCodes holds key codes for keys AppleScript cannot type as text.
var appleKeyCodes = map[string]int{
	"right":  124,
	"left":   123,
	"up":     126,
	"down":   125,
	"escape": 53,
	"return": 36,
	"home":   115,
	"end":    119,
	"f5":     96,
	"space":  49,
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// xdotoolKeys maps key and modifier names to X keysyms.
var xdotoolKeys = map[string]string{
	"right":   "Right",
	"left":    "Left",
	"up":      "Up",
	"down":    "Down",
	"escape":  "Escape",
	"return":  "Return",
	"home":    "Home",
	"end":     "End",
	"f5":      "F5",
	"space":   "space",
	"=":       "equal",
	"-":       "minus",
	"command": "ctrl",
	"cmd":     "ctrl",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"option":  "alt",
	"alt":     "alt",
	"shift":   "shift",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	p, err := resolve(req)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}
	if err := send(runtime.GOOS, p); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	data, _ := json.Marshal(p)
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

// resolve turns a request into the keystroke to send.
func resolve(req Request) (KeystrokeParams, error) {
	switch req.Action {
	case "present":
		p, ok := presentKeys[req.Gesture]
		if !ok {
			return p, fmt.Errorf("no presentation key for gesture %q", req.Gesture)
		}
		return p, nil
	case "keystroke", "shortcut":
		var p KeystrokeParams
		if len(req.Config) > 0 {
			if err := json.Unmarshal(req.Config, &p); err != nil {
				return p, fmt.Errorf("failed to parse config: %w", err)
			}
		}
		if p.Key == "" && len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return p, fmt.Errorf("failed to parse params: %w", err)
			}
		}
		if p.Key == "" {
			return p, fmt.Errorf("key is required")
		}
		return p, nil
	default:
		return KeystrokeParams{}, fmt.Errorf("unknown action: %s", req.Action)
	}
}

func send(goos string, p KeystrokeParams) error {
	switch goos {
	case "darwin":
		return run("osascript", "-e", buildKeystrokeScript(p.Key, p.Modifiers))
	case "linux":
		return run("xdotool", "key", xdotoolChord(p.Key, p.Modifiers))
	default:
		return fmt.Errorf("unsupported platform %s", goos)
	}
}

// buildKeystrokeScript generates an AppleScript for the given key and modifiers.
func buildKeystrokeScript(key string, modifiers []string) string {
	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	stroke := fmt.Sprintf(`keystroke "%s"`, key)
	if code, ok := appleKeyCodes[strings.ToLower(key)]; ok {
		stroke = fmt.Sprintf("key code %d", code)
	}
	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to %s`, stroke)
	}
	return fmt.Sprintf(`tell application "System Events" to %s using {%s}`, stroke, strings.Join(appleModifiers, ", "))
}

// xdotoolChord builds an xdotool key chord such as "ctrl+equal".
func xdotoolChord(key string, modifiers []string) string {
	parts := make([]string, 0, len(modifiers)+1)
	for _, mod := range modifiers {
		if sym, ok := xdotoolKeys[strings.ToLower(mod)]; ok {
			parts = append(parts, sym)
		}
	}
	if sym, ok := xdotoolKeys[strings.ToLower(key)]; ok {
		key = sym
	}
	return strings.Join(append(parts, key), "+")
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
