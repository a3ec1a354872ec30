// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the ragline answer backend.
//
// # Key Types
//
//   - Client: thread-safe HTTP client with health checks and streaming
//     turn requests, rate-limited locally per configuration.
//   - ClientConfig: base URL, timeouts, and turn rate cap.
//   - ClientError: typed error with an ErrorType category and an
//     optional wrapped cause.
//
// # Usage
//
//	client := backend.NewClient()
//	if err := client.CheckHealth(ctx); err != nil {
//	    // backend down, ask the user to start it
//	}
//	body, err := client.OpenTurn(ctx, threadID, query)
//	if err != nil {
//	    return err
//	}
//	defer body.Close()
//	// feed body reads into a stream.Framer
//
// The stream returned by OpenTurn is newline-delimited JSON; framing
// and decoding live in the stream package.
package backend
