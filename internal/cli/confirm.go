// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation handling for destructive ragline commands.
//
// One pattern for every destructive action:
//  1. If --confirm was passed, proceed without prompting
//  2. If --json mode, require --confirm (no interactive prompts in JSON mode)
//  3. If stdin is not a TTY, require --confirm (can't prompt)
//  4. Otherwise, show an interactive [y/N] prompt
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// RequireConfirmation checks if the user has confirmed a destructive action.
//
// Returns true if confirmed, false if cancelled. The error is non-nil
// when confirmation is required but cannot be collected (JSON mode or
// non-TTY stdin without --confirm).
func RequireConfirmation(confirmFlag bool, action string, jsonMode bool) (bool, error) {
	if confirmFlag {
		return true, nil
	}

	if jsonMode {
		return false, fmt.Errorf("confirmation required: use --confirm for destructive actions in JSON mode")
	}

	if !IsTTY() {
		return false, fmt.Errorf("confirmation required but stdin is not a terminal; use --confirm")
	}

	fmt.Printf("Are you sure you want to %s? [y/N]: ", action)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false, nil
	}

	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes", nil
}

// RequireConfirmationWithDetails shows labeled details before prompting.
func RequireConfirmationWithDetails(confirmFlag bool, action string, details map[string]string, jsonMode bool) (bool, error) {
	if !confirmFlag && !jsonMode && IsTTY() {
		for label, value := range details {
			fmt.Printf("  %s %s\n", RenderLabel(label+":"), ValueStyle.Render(value))
		}
	}
	return RequireConfirmation(confirmFlag, action, jsonMode)
}
