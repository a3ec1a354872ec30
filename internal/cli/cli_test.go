// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragline/internal/backend"
	"github.com/jeranaias/ragline/internal/sources"
	"github.com/jeranaias/ragline/internal/storage"
)

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

func TestParseArgsDefaultsToChat(t *testing.T) {
	cmd, _ := ParseArgs(nil)
	assert.Equal(t, CmdChat, cmd)
}

func TestParseArgsAsk(t *testing.T) {
	cmd, args := ParseArgs([]string{"ask", "how", "do", "rivers", "form"})
	require.Equal(t, CmdAsk, cmd)
	assert.Equal(t, "how do rivers form", args.Query)
}

func TestParseArgsAskThreadFlag(t *testing.T) {
	cmd, args := ParseArgs([]string{"ask", "--thread", "abc123", "question"})
	require.Equal(t, CmdAsk, cmd)
	assert.Equal(t, "abc123", args.Thread)
	assert.Equal(t, "question", args.Query)
}

func TestParseArgsAskThreadEquals(t *testing.T) {
	_, args := ParseArgs([]string{"ask", "--thread=abc123", "question"})
	assert.Equal(t, "abc123", args.Thread)
}

func TestParseArgsUnknownCommandBecomesQuestion(t *testing.T) {
	cmd, args := ParseArgs([]string{"how", "does", "indexing", "work"})
	require.Equal(t, CmdAsk, cmd)
	assert.Equal(t, "how does indexing work", args.Query)
}

func TestParseArgsGlobalFlags(t *testing.T) {
	cmd, args := ParseArgs([]string{"--json", "-q", "--server", "http://10.0.0.1:9000", "status"})
	assert.Equal(t, CmdStatus, cmd)
	assert.True(t, args.JSON)
	assert.True(t, args.Quiet)
	assert.Equal(t, "http://10.0.0.1:9000", args.Server)
}

func TestParseArgsServerEquals(t *testing.T) {
	_, args := ParseArgs([]string{"--server=http://10.0.0.1:9000", "status"})
	assert.Equal(t, "http://10.0.0.1:9000", args.Server)
}

func TestParseArgsThreads(t *testing.T) {
	cmd, args := ParseArgs([]string{"threads", "export", "abc", "--format", "json", "--output", "out.json"})
	require.Equal(t, CmdThreads, cmd)
	assert.Equal(t, "export", args.Subcommand)
	assert.Equal(t, "abc", args.Thread)
	assert.Equal(t, "json", args.Options["format"])
	assert.Equal(t, "out.json", args.Options["output"])
}

func TestParseArgsThreadsSearchFreeText(t *testing.T) {
	_, args := ParseArgs([]string{"threads", "search", "deploy", "retries"})
	assert.Equal(t, "search", args.Subcommand)
	assert.Equal(t, "deploy retries", args.Query)
}

func TestParseArgsThreadsDeleteConfirm(t *testing.T) {
	_, args := ParseArgs([]string{"threads", "delete", "abc", "--confirm"})
	assert.Equal(t, "delete", args.Subcommand)
	assert.Equal(t, "abc", args.Thread)
	assert.Equal(t, "true", args.Options["confirm"])
}

func TestParseArgsConfigSet(t *testing.T) {
	cmd, args := ParseArgs([]string{"config", "set", "ui.theme", "light"})
	require.Equal(t, CmdConfig, cmd)
	assert.Equal(t, "set", args.Subcommand)
	assert.Equal(t, "ui.theme", args.Options["key"])
	assert.Equal(t, "light", args.Options["value"])
}

func TestParseArgsAliases(t *testing.T) {
	for arg, want := range map[string]Command{
		"a":       CmdAsk,
		"c":       CmdChat,
		"s":       CmdStatus,
		"history": CmdThreads,
		"help":    CmdHelp,
		"version": CmdVersion,
	} {
		cmd, _ := ParseArgs([]string{arg})
		assert.Equal(t, want, cmd, "alias %q", arg)
	}
}

// =============================================================================
// TEXT WRAPPING
// =============================================================================

func TestWrapTextShortLineUnchanged(t *testing.T) {
	if got := WrapText("hello world", 40); got != "hello world" {
		t.Errorf("WrapText() = %q", got)
	}
}

func TestWrapTextWrapsAtWordBoundary(t *testing.T) {
	got := WrapText("alpha beta gamma delta epsilon", 14)
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 12 {
			t.Errorf("line too long: %q", line)
		}
		if strings.Contains(line, " ") && len(strings.Fields(line)) < 1 {
			t.Errorf("broken words in %q", line)
		}
	}
}

func TestWrapTextPreservesNewlines(t *testing.T) {
	got := WrapText("one\ntwo", 40)
	if got != "one\ntwo" {
		t.Errorf("WrapText() = %q", got)
	}
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", ErrMissingArgument("question", "ragline ask ..."), ExitUsageError},
		{"not found", ErrNotFound("thread", "abc"), ExitNotFoundError},
		{"store not found", storage.ErrThreadNotFound, ExitNotFoundError},
		{"unreachable", backend.ErrUnreachable, ExitNetworkError},
		{"timeout", backend.ErrTimeout, ExitTimeoutError},
		{"throttled", backend.ErrThrottled, ExitNetworkError},
		{"generic", assert.AnError, ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestGetExitCodeWrapped(t *testing.T) {
	err := WrapError(backend.ErrTimeout, "turn failed")
	assert.Equal(t, ExitTimeoutError, GetExitCode(err))
}

// =============================================================================
// RENDERING
// =============================================================================

func testSources() []sources.Source {
	return []sources.Source{
		{Type: sources.TypeLocal, Ref: 1, URL: "docs/deploy.md", Title: "Deploy Guide"},
		{Type: sources.TypeWeb, Ref: 2, URL: "https://example.com/retries", Domain: "example.com"},
	}
}

func TestRenderSourcesListsAllSources(t *testing.T) {
	out := RenderSources(testSources(), "See [1].")
	assert.Contains(t, out, "[1]")
	assert.Contains(t, out, "Deploy Guide")
	assert.Contains(t, out, "[2]")
	assert.Contains(t, out, "example.com")
}

func TestRenderSourcesMarksCited(t *testing.T) {
	out := RenderSources(testSources(), "See [2].")
	lines := strings.Split(out, "\n")
	var cited, uncited string
	for _, line := range lines {
		if strings.Contains(line, "[2]") && !strings.Contains(line, "https://") {
			cited = line
		}
		if strings.Contains(line, "[1]") {
			uncited = line
		}
	}
	require.NotEmpty(t, cited)
	require.NotEmpty(t, uncited)
	assert.Contains(t, cited, "*")
	assert.NotContains(t, uncited, "*")
}

func TestRenderSourcesEmpty(t *testing.T) {
	assert.Empty(t, RenderSources(nil, "answer"))
}

func TestRenderAnswerPipedOutputIsPlain(t *testing.T) {
	// Tests never run on a TTY, so the answer must pass through
	// untouched for piped consumers.
	text := "Rivers form from rain [1]."
	assert.Equal(t, text, RenderAnswer(text, testSources()))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "12345678", shortID("123456789abcdef"))
	assert.Equal(t, "abc", shortID("abc"))
}

// =============================================================================
// CONFIRMATION
// =============================================================================

func TestRequireConfirmationFlagSkipsPrompt(t *testing.T) {
	ok, err := RequireConfirmation(true, "delete thread", false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRequireConfirmationJSONRequiresFlag(t *testing.T) {
	ok, err := RequireConfirmation(false, "delete thread", true)
	assert.False(t, ok)
	assert.Error(t, err)
}
