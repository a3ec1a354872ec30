// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output support for scripting and integration.
//
// Every command that supports --json emits the same envelope so callers
// can parse output uniformly.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONResponse is the standardized response format for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Error:     nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      nil,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout.
// Human-readable messages should go to stderr when JSON mode is enabled.
func (r *JSONResponse) Print() error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// StatusData represents the data returned by the status command.
type StatusData struct {
	Backend StatusBackendInfo `json:"backend"`
	Storage StatusStorageInfo `json:"storage"`
	Config  StatusConfigInfo  `json:"config"`
}

// StatusBackendInfo contains backend reachability information.
type StatusBackendInfo struct {
	BaseURL   string `json:"base_url"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

// StatusStorageInfo contains thread store information.
type StatusStorageInfo struct {
	DatabasePath string `json:"database_path"`
	Threads      int    `json:"threads"`
	Available    bool   `json:"available"`
}

// StatusConfigInfo contains configuration summary for status output.
type StatusConfigInfo struct {
	Path           string `json:"path"`
	Theme          string `json:"theme"`
	TurnsPerMinute int    `json:"turns_per_minute"`
}

// AskData represents the data returned by the ask command in JSON mode.
type AskData struct {
	ThreadID   string         `json:"thread_id"`
	Question   string         `json:"question"`
	Answer     string         `json:"answer"`
	Sources    []AskSource    `json:"sources"`
	Agents     []string       `json:"agents,omitempty"`
	MessageID  string         `json:"message_id,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// AskSource is one cited source in ask JSON output.
type AskSource struct {
	Ref   int    `json:"ref"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

// ThreadData represents a thread in threads list JSON output.
type ThreadData struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Interactions int    `json:"interactions"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	Preview      string `json:"preview,omitempty"`
}

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}
