// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for communicating with the
// ragline answer backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnreachable
	ErrTypeTimeout
	ErrTypeThrottled
	ErrTypeConnection
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Type: ErrTypeUnreachable, Message: "backend is not reachable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrThrottled   = &ClientError{Type: ErrTypeThrottled, Message: "turn rate limit exceeded"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend API base URL (default: http://127.0.0.1:8000)
	// Note: Uses explicit IPv4 address instead of localhost to avoid IPv6 resolution issues on Windows
	BaseURL string

	// Timeout for non-streaming requests (default: 10s)
	Timeout time.Duration

	// StreamTimeout for establishing streaming connections (default: 15s)
	StreamTimeout time.Duration

	// TurnsPerMinute caps how many turns may be opened per minute
	// (default: 20). Zero keeps the default; negative disables the cap.
	TurnsPerMinute int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:        "http://127.0.0.1:8000",
		Timeout:        10 * time.Second,
		StreamTimeout:  15 * time.Second,
		TurnsPerMinute: 20,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the ragline backend API.
// It provides health checks and streaming turn operations.
//
// The Client is thread-safe for concurrent use.
//
// Example:
//
//	client := backend.NewClient()
//	if err := client.CheckHealth(ctx); err != nil {
//	    log.Fatal("backend not available:", err)
//	}
//	body, err := client.OpenTurn(ctx, threadID, "how do rivers form?")
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
	limiter      *rate.Limiter
}

// NewClient creates a new backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new backend client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8000"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.StreamTimeout == 0 {
		config.StreamTimeout = 15 * time.Second
	}
	if config.TurnsPerMinute == 0 {
		config.TurnsPerMinute = 20
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.TurnsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.TurnsPerMinute)/60, config.TurnsPerMinute)
	}

	// The stream client has no overall timeout: turn duration is
	// unbounded. StreamTimeout instead bounds connection establishment,
	// up to and including the response headers.
	streamTransport := http.DefaultTransport.(*http.Transport).Clone()
	streamTransport.ResponseHeaderTimeout = config.StreamTimeout

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		streamClient: &http.Client{
			Transport: streamTransport,
		},
		limiter: limiter,
	}
}

// =============================================================================
// REQUEST / RESPONSE SHAPES
// =============================================================================

// TurnRequest is the body posted to /api/chat to open a turn.
type TurnRequest struct {
	UserInput string `json:"user_input"`
	ThreadID  string `json:"thread_id"`
}

// backendError mirrors the backend's error body, {"detail": "..."}.
type backendError struct {
	Detail string `json:"detail"`
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckHealth verifies that the backend is reachable and healthy.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrUnreachable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: "unexpected status from backend: " + resp.Status,
		}
	}

	return nil
}

// =============================================================================
// TURN STREAMING
// =============================================================================

// OpenTurn posts a user query to the backend and returns the response
// body, a newline-delimited JSON event stream. The caller owns the
// returned ReadCloser and must close it when the turn ends.
//
// OpenTurn blocks only to establish the connection, bounded by
// ClientConfig.StreamTimeout; reading the stream has no overall
// deadline because turn duration is unbounded. Cancel ctx to abort
// mid-stream.
func (c *Client) OpenTurn(ctx context.Context, threadID, userInput string) (io.ReadCloser, error) {
	if !c.limiter.Allow() {
		return nil, ErrThrottled
	}

	body, err := json.Marshal(TurnRequest{UserInput: userInput, ThreadID: threadID})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	// SECURITY: TLS not required - the backend runs locally over HTTP by default
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		var netErr net.Error
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return nil, ErrTimeout
		case errors.As(err, &netErr) && netErr.Timeout():
			// ResponseHeaderTimeout fired: the backend accepted the
			// connection but never started the stream.
			return nil, ErrTimeout
		default:
			return nil, ErrUnreachable
		}
	}

	if resp.StatusCode != http.StatusOK {
		defer drainAndClose(resp.Body)

		var backendErr backendError
		if err := json.NewDecoder(resp.Body).Decode(&backendErr); err == nil && backendErr.Detail != "" {
			return nil, &ClientError{
				Type:    ErrTypeInvalidResponse,
				Message: backendErr.Detail,
			}
		}
		return nil, &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: "turn request failed: " + resp.Status,
		}
	}

	return resp.Body, nil
}

// =============================================================================
// UTILITY METHODS
// =============================================================================

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// IsUnreachable checks if an error indicates the backend is not reachable.
func IsUnreachable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeUnreachable
	}
	return errors.Is(err, ErrUnreachable)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// IsThrottled checks if an error is a local rate-limit rejection.
func IsThrottled(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeThrottled
	}
	return errors.Is(err, ErrThrottled)
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
