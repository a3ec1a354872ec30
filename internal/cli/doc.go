// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for ragline.
//
// This package implements all CLI commands for the ragline client,
// covering one-shot questions, interactive chat, thread history, and
// configuration management.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - JSONResponse: Uniform envelope for --json output
//
// # Usage
//
// Parse and execute commands:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    cli.HandleAsk(args)
//	case cli.CmdChat:
//	    cli.HandleChat(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - ask: Run one turn against the answer backend and render the result
//   - chat: Interactive REPL sharing one backend thread
//   - threads: List, show, search, export, and delete stored threads
//   - status: Backend reachability and storage health
//   - config: Show and edit the configuration file
//
// All commands support --json for machine-readable output.
package cli
