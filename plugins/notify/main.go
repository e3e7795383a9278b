// Package main provides a notification plugin.
// "announce" returns the message in the response data; "desktop" also shows
// it with notify-send (Linux) or osascript (macOS).
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/ayusman/airpointer/internal/plugin"
)

// NotifyParams are the optional request parameters.
type NotifyParams struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(plugin.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	params := NotifyParams{
		Title:   "airpointer",
		Message: fmt.Sprintf("%s detected! Running your function...", req.Trigger),
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			writeResponse(plugin.Response{Error: fmt.Sprintf("failed to parse params: %v", err)})
			return
		}
	}

	switch req.Action {
	case "announce":
	case "desktop":
		if err := showNotification(params.Title, params.Message); err != nil {
			writeResponse(plugin.Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
			return
		}
	default:
		writeResponse(plugin.Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	data, _ := json.Marshal(map[string]string{"message": params.Message})
	writeResponse(plugin.Response{Success: true, Data: data})
}

func showNotification(title, message string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", message, title)
		cmd = exec.Command("osascript", "-e", script)
	default:
		cmd = exec.Command("notify-send", title, message)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeResponse(resp plugin.Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
