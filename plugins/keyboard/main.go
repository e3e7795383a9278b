// Package main provides a keyboard plugin.
// It sends keystrokes and shortcuts through robotgo.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-vgo/robotgo"

	"github.com/ayusman/airpointer/internal/plugin"
)

// KeystrokeParams defines parameters for keystroke and shortcut actions.
type KeystrokeParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // cmd, alt, ctrl, shift
}

// modifierMap maps user-friendly modifier names to robotgo key names.
var modifierMap = map[string]string{
	"command": "cmd",
	"cmd":     "cmd",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(plugin.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	switch req.Action {
	case "keystroke", "shortcut":
		if err := handleKeystroke(req.Params); err != nil {
			writeResponse(plugin.Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
			return
		}
	default:
		writeResponse(plugin.Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	writeResponse(plugin.Response{Success: true})
}

// handleKeystroke processes keystroke and shortcut actions.
func handleKeystroke(params json.RawMessage) error {
	var p KeystrokeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}

	if p.Key == "" {
		return fmt.Errorf("key is required")
	}

	return robotgo.KeyTap(strings.ToLower(p.Key), modifiers(p.Modifiers)...)
}

// modifiers converts modifier names, dropping unknown ones.
func modifiers(names []string) []interface{} {
	var mods []interface{}
	for _, name := range names {
		if mod, ok := modifierMap[strings.ToLower(name)]; ok {
			mods = append(mods, mod)
		}
	}
	return mods
}

func writeResponse(resp plugin.Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
