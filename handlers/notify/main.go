// Package main provides a desktop notification handler for macOS.
// It shows recognized signs and matched phrases via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request represents the input from the handler dispatcher.
type Request struct {
	Event       string   `json:"event"`
	Name        string   `json:"name"`
	Translation string   `json:"translation"`
	Confidence  float64  `json:"confidence"`
	Gestures    []string `json:"gestures"`
	Timestamp   int64    `json:"timestamp"`
}

// Response represents the output to the handler dispatcher.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	script, err := buildNotificationScript(&req)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	if err := runAppleScript(script); err != nil {
		writeErrorResponse(fmt.Sprintf("notification failed: %v", err))
		return
	}

	writeSuccessResponse()
}

// buildNotificationScript generates the AppleScript for the event.
func buildNotificationScript(req *Request) (string, error) {
	switch req.Event {
	case "gesture":
		body := fmt.Sprintf("Recognized %s (%.0f%%)", req.Name, req.Confidence*100)
		return fmt.Sprintf(`display notification "%s" with title "Mudra"`, escape(body)), nil
	case "phrase":
		body := req.Translation
		if body == "" {
			body = strings.Join(req.Gestures, " ")
		}
		return fmt.Sprintf(`display notification "%s" with title "Mudra" subtitle "%s"`,
			escape(body), escape(req.Name)), nil
	default:
		return "", fmt.Errorf("unknown event: %s", req.Event)
	}
}

// escape makes a string safe to embed in an AppleScript double-quoted literal.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
