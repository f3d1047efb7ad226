// Package main provides a system control plugin.
// It handles zoom, volume and media playback controls via AppleScript on
// macOS and xdotool/pactl on Linux.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
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

// command is one external invocation performing an action.
type command struct {
	name string
	args []string
}

func osascript(script string) command {
	return command{name: "osascript", args: []string{"-e", script}}
}

func xdotool(key string) command {
	return command{name: "xdotool", args: []string{"key", key}}
}

func pactl(args ...string) command {
	return command{name: "pactl", args: args}
}

// actionCommands maps action names to the command per platform.
var actionCommands = map[string]map[string]command{
	"zoom-in": {
		"darwin": osascript(`tell application "System Events" to keystroke "=" using {command down}`),
		"linux":  xdotool("ctrl+plus"),
	},
	"zoom-out": {
		"darwin": osascript(`tell application "System Events" to keystroke "-" using {command down}`),
		"linux":  xdotool("ctrl+minus"),
	},
	"volume-up": {
		"darwin": osascript(`set volume output volume ((output volume of (get volume settings)) + 10)`),
		"linux":  pactl("set-sink-volume", "@DEFAULT_SINK@", "+10%"),
	},
	"volume-down": {
		"darwin": osascript(`set volume output volume ((output volume of (get volume settings)) - 10)`),
		"linux":  pactl("set-sink-volume", "@DEFAULT_SINK@", "-10%"),
	},
	"volume-mute": {
		"darwin": osascript(`set volume output muted (not (output muted of (get volume settings)))`),
		"linux":  pactl("set-sink-mute", "@DEFAULT_SINK@", "toggle"),
	},
	"media-play-pause": {
		"darwin": osascript(`tell application "System Events" to key code 100`),
		"linux":  xdotool("XF86AudioPlay"),
	},
	"media-next": {
		"darwin": osascript(`tell application "System Events" to key code 101`),
		"linux":  xdotool("XF86AudioNext"),
	},
	"media-prev": {
		"darwin": osascript(`tell application "System Events" to key code 98`),
		"linux":  xdotool("XF86AudioPrev"),
	},
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	cmd, err := lookup(req.Action, runtime.GOOS)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	output, err := exec.Command(cmd.name, cmd.args...).CombinedOutput()
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v: %s", req.Action, err, output))
		return
	}

	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func lookup(action, goos string) (command, error) {
	byOS, ok := actionCommands[action]
	if !ok {
		return command{}, fmt.Errorf("unknown action: %s", action)
	}
	cmd, ok := byOS[goos]
	if !ok {
		return command{}, fmt.Errorf("action %s is not supported on %s", action, goos)
	}
	return cmd, nil
}

// actions lists the supported action names.
func actions() []string {
	names := make([]string, 0, len(actionCommands))
	for name := range actionCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}
