// Package main provides a speech handler for macOS.
// It speaks matched phrase translations aloud via the say command.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
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

	// Prefer the translation; fall back to the phrase name
	text := req.Translation
	if text == "" {
		text = req.Name
	}
	if text == "" {
		writeErrorResponse("nothing to speak")
		return
	}

	if err := speak(text); err != nil {
		writeErrorResponse(fmt.Sprintf("speech failed: %v", err))
		return
	}

	writeSuccessResponse()
}

// speak pronounces the text with the macOS say command.
func speak(text string) error {
	cmd := exec.Command("say", text)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
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
