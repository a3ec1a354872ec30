// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the ragline CLI.
//
// Handles "ragline chat", a REPL against the answer backend. Every
// question in a session lands in the same thread, so the backend keeps
// conversational context and the whole exchange is inspectable later
// with "ragline threads show".
//
// Command: chat
//
// Examples:
//   ragline chat                      Start a new thread
//   ragline chat --thread 7f3a...     Continue an existing thread
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /new                Start a fresh thread
//   /thread             Show the current thread id
//   /sources            Show sources from the last answer
//   /timeline           Show the task timeline from the last answer
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel current turn
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/peterh/liner"

	"github.com/jeranaias/ragline/internal/backend"
	"github.com/jeranaias/ragline/internal/config"
	"github.com/jeranaias/ragline/internal/session"
	"github.com/jeranaias/ragline/internal/storage"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		// Fallback to temp directory if config dir unavailable
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}

	cli.LoadHistory()

	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Supports history navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}

	return input, nil
}

// SaveHistory persists command history to file with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for an interactive chat session.
type ChatSession struct {
	Config   *config.Config
	Client   *backend.Client
	Store    *storage.InteractionStore
	ThreadID string
	Quiet    bool
	Verbose  bool

	// Last is the most recent finished turn, backing /sources and
	// /timeline.
	Last *session.Interaction

	// Tracking
	StartTime time.Time
	Turns     int

	// Cancel function for the turn currently streaming
	CancelFunc context.CancelFunc

	// Input history handler
	InputCLI *ChatCLI
}

// NewChatSession creates a new chat session.
func NewChatSession(args Args) *ChatSession {
	cfg := loadConfig(args)

	threadID := args.Thread
	if threadID == "" {
		threadID = uuid.NewString()
	}

	return &ChatSession{
		Config:    cfg,
		Client:    newBackendClient(cfg),
		Store:     openStoreBestEffort(cfg, args),
		ThreadID:  threadID,
		Quiet:     args.Quiet,
		Verbose:   args.Verbose,
		StartTime: time.Now(),
		InputCLI:  NewChatCLI(),
	}
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand handles the "chat" command.
func HandleChatCommand(args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	chat := NewChatSession(args)
	if chat.Store != nil {
		defer chat.Store.Close()
	}
	defer chat.InputCLI.Close()

	// Reachability is checked up front so the first question doesn't
	// hang against a dead backend.
	ctx := context.Background()
	if err := chat.Client.CheckHealth(ctx); err != nil {
		if backend.IsUnreachable(err) {
			return fmt.Errorf("backend is not reachable at %s: %w", chat.Config.Server.BaseURL, err)
		}
		fmt.Fprintf(os.Stderr, "%s backend health check: %v\n", WarningStyle.Render("[warn]"), err)
	}

	if !chat.Quiet {
		printWelcome(chat)
	}

	// First Ctrl+C cancels the in-flight turn instead of exiting.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for range sigChan {
			if chat.CancelFunc != nil {
				chat.CancelFunc()
				chat.CancelFunc = nil
				fmt.Fprintln(os.Stderr, "\n"+WarningStyle.Render("[cancelled]"))
			}
		}
	}()

	for {
		input, err := chat.InputCLI.ReadInput(InfoStyle.Render("ragline> "))
		if err != nil {
			// liner.ErrPromptAborted is Ctrl+C at the prompt; anything
			// else is EOF (Ctrl+D). Both end the session.
			fmt.Println()
			printExitSummary(chat)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldContinue := handleSlashCommand(input, chat)
			if !shouldContinue {
				printExitSummary(chat)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(chat)
			return nil
		}

		if err := runChatTurn(chat, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[error]"), err)
		}
	}
}

// =============================================================================
// TURN PROCESSING
// =============================================================================

// runChatTurn sends one question through the session controller and
// renders the streamed result.
func runChatTurn(chat *ChatSession, input string) error {
	ctx, cancel := context.WithCancel(context.Background())
	chat.CancelFunc = cancel
	defer func() {
		chat.CancelFunc = nil
		cancel()
	}()

	start := time.Now()
	progress := newProgressPrinter(chat.Quiet || !chat.Config.UI.ShowTimeline)

	var persister session.Persister
	if chat.Store != nil {
		persister = chat.Store
	}
	controller := session.NewController(chat.Client, persister, session.Hooks{
		OnPhase:    progress.onPhase,
		OnTimeline: progress.onTimeline,
		OnDropped: func(err error) {
			if chat.Verbose {
				fmt.Fprintf(os.Stderr, "%s %v\n", WarningStyle.Render("[dropped]"), err)
			}
		},
	})

	interaction, err := controller.Run(ctx, chat.ThreadID, input)
	if err != nil {
		// Show whatever answer text arrived before the failure.
		if partial := controller.Answer(); partial != "" {
			fmt.Println()
			fmt.Print(RenderAnswer(partial, controller.Sources()))
			fmt.Println()
		}
		return err
	}

	chat.Last = interaction
	chat.Turns++

	fmt.Println()
	fmt.Print(RenderAnswer(interaction.AssistantResponse, interaction.Sources))
	fmt.Println()

	if chat.Config.UI.ShowSources && !chat.Quiet {
		if rendered := RenderSources(interaction.Sources, interaction.AssistantResponse); rendered != "" {
			fmt.Print(rendered)
			fmt.Println()
		}
	}

	if !chat.Quiet {
		fmt.Fprintf(os.Stderr, "%s %d sources | %s\n",
			DimStyle.Render("[turn]"),
			len(interaction.Sources),
			time.Since(start).Round(time.Millisecond))
	}

	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes an in-chat command. Returns false when
// the session should end.
func handleSlashCommand(input string, chat *ChatSession) bool {
	cmd := strings.ToLower(strings.Fields(input)[0])

	switch cmd {
	case "/help", "/h":
		printChatHelp()

	case "/new":
		chat.ThreadID = uuid.NewString()
		chat.Last = nil
		fmt.Printf("%s %s\n", SuccessStyle.Render("[new thread]"), DimStyle.Render(chat.ThreadID))

	case "/thread":
		fmt.Printf("%s %s\n", LabelStyle.Render("Thread:"), ValueStyle.Render(chat.ThreadID))

	case "/sources":
		if chat.Last == nil || len(chat.Last.Sources) == 0 {
			fmt.Println(DimStyle.Render("No sources yet. Ask something first."))
			break
		}
		fmt.Print(RenderSources(chat.Last.Sources, chat.Last.AssistantResponse))

	case "/timeline":
		if chat.Last == nil || chat.Last.Tasks.Len() == 0 {
			fmt.Println(DimStyle.Render("No timeline yet. Ask something first."))
			break
		}
		fmt.Print(RenderTimeline(chat.Last.Tasks))

	case "/quit", "/q", "/exit":
		return false

	default:
		fmt.Printf("%s unknown command %s (try /help)\n", WarningStyle.Render("[?]"), cmd)
	}

	return true
}

// printChatHelp shows available in-chat commands.
func printChatHelp() {
	fmt.Println(SectionStyle.Render("Commands"))
	fmt.Printf("  %s  Show this help\n", HighlightStyle.Render("/help"))
	fmt.Printf("  %s   Start a fresh thread\n", HighlightStyle.Render("/new"))
	fmt.Printf("  %s  Show the current thread id\n", HighlightStyle.Render("/thread"))
	fmt.Printf("  %s  Show sources from the last answer\n", HighlightStyle.Render("/sources"))
	fmt.Printf("  %s  Show the last task timeline\n", HighlightStyle.Render("/timeline"))
	fmt.Printf("  %s  Exit chat\n", HighlightStyle.Render("/quit"))
}

// printWelcome shows the session banner.
func printWelcome(chat *ChatSession) {
	fmt.Println(TitleStyle.Render("ragline chat"))
	fmt.Printf("  %s %s\n", LabelStyle.Render("Backend:"), ValueStyle.Render(chat.Config.Server.BaseURL))
	fmt.Printf("  %s %s\n", LabelStyle.Render("Thread:"), DimStyle.Render(chat.ThreadID))
	fmt.Println(DimStyle.Render("  Type /help for commands, Ctrl+D to exit."))
	fmt.Println()
}

// printExitSummary shows session statistics on exit.
func printExitSummary(chat *ChatSession) {
	if chat.Quiet || chat.Turns == 0 {
		return
	}
	fmt.Println()
	fmt.Println(SectionStyle.Render("Session"))
	fmt.Printf("  %s %d\n", LabelStyle.Render("Turns:"), chat.Turns)
	fmt.Printf("  %s %s\n", LabelStyle.Render("Duration:"), time.Since(chat.StartTime).Round(time.Second))
	fmt.Printf("  %s %s\n", LabelStyle.Render("Thread:"), DimStyle.Render(chat.ThreadID))
	fmt.Println(DimStyle.Render("  Resume with: ragline chat --thread " + chat.ThreadID))
}
