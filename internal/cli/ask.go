// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command handler for the ragline CLI.
//
// Handles "ragline ask", which runs one turn against the answer backend
// and renders the streamed result: task timeline on stderr while the
// research runs, then the answer with resolved citations and the source
// list on stdout.
//
// Command: ask [question]
//
// Examples:
//   ragline ask "How does the indexer handle deletes?"
//   ragline ask --thread 7f3a... "And on restart?"
//   echo "summarize the deploy doc" | ragline ask
//   ragline ask --json "list the retry knobs" | jq .data.answer
//
// Flags:
//   -t, --thread ID   Continue an existing thread
//   --live            Full-screen live view while streaming
//   --no-sources      Skip the source list
//   --no-timeline     Skip timeline progress output
//   --json            Output the finished turn as JSON
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/ragline/internal/config"
	"github.com/jeranaias/ragline/internal/session"
	"github.com/jeranaias/ragline/internal/sources"
	"github.com/jeranaias/ragline/internal/storage"
	"github.com/jeranaias/ragline/internal/timeline"
	"github.com/jeranaias/ragline/internal/ui/live"
)

// =============================================================================
// PROGRESS PRINTING
// =============================================================================

// progressPrinter writes timeline progress to stderr as events arrive.
// It tracks how many flattened nodes it has already printed so each
// timeline update only emits the new rows.
type progressPrinter struct {
	printed map[*timeline.Node]bool
	agents  map[string]bool
	quiet   bool
}

func newProgressPrinter(quiet bool) *progressPrinter {
	return &progressPrinter{
		printed: make(map[*timeline.Node]bool),
		agents:  make(map[string]bool),
		quiet:   quiet,
	}
}

// onTimeline prints rows added since the last update. Parent tasks are
// printed once when they open; their nested queries and cards stream as
// separate dim lines.
func (p *progressPrinter) onTimeline(tl timeline.Timeline) {
	if p.quiet {
		return
	}
	for _, e := range tl {
		switch {
		case e.Node != nil:
			p.printNode(e.Node, "  ")
		case e.Section != nil:
			if !p.agents[e.Section.Agent] {
				p.agents[e.Section.Agent] = true
				fmt.Fprintf(os.Stderr, "  %s\n", AgentStyle.Render(e.Section.Agent))
			}
			for _, n := range e.Section.Tasks {
				p.printNode(n, "    ")
			}
		}
	}
}

func (p *progressPrinter) printNode(n *timeline.Node, indent string) {
	if p.printed[n] {
		return
	}
	p.printed[n] = true

	switch {
	case n.Task != nil:
		fmt.Fprintf(os.Stderr, "%s%s %s\n", indent, DimStyle.Render("-"), n.Task.Label)
	case n.Parent != nil:
		label := n.Parent.Label
		if label == "" {
			label = string(n.Parent.Kind)
		}
		fmt.Fprintf(os.Stderr, "%s%s %s\n", indent, InfoStyle.Render("*"), label)
	}
}

// onPhase prints coarse phase transitions.
func (p *progressPrinter) onPhase(phase session.Phase) {
	if p.quiet {
		return
	}
	switch phase {
	case session.PhaseAwaitingTasks:
		fmt.Fprintf(os.Stderr, "%s\n", DimStyle.Render("thinking..."))
	case session.PhaseAwaitingAnswer:
		fmt.Fprintf(os.Stderr, "%s\n", DimStyle.Render("composing answer..."))
	}
}

// =============================================================================
// STDIN INPUT
// =============================================================================

// readQuestionFromStdin reads a piped question when none was given on
// the command line. Returns "" when stdin is a terminal.
func readQuestionFromStdin() string {
	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return ""
	}
	data, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// =============================================================================
// ASK HANDLER
// =============================================================================

// HandleAskCommand handles the "ask" command.
func HandleAskCommand(args Args) error {
	cfg := loadConfig(args)

	question := args.Query
	if question == "" {
		question = readQuestionFromStdin()
	}
	if question == "" {
		err := ErrMissingArgument("question", `ragline ask "your question"`)
		if args.JSON {
			NewJSONErrorResponse("ask", err).Print()
		}
		return err
	}

	threadID := args.Thread
	if threadID == "" {
		threadID = uuid.NewString()
	}

	client := newBackendClient(cfg)

	store := openStoreBestEffort(cfg, args)
	if store != nil {
		defer store.Close()
	}

	// Cancel the turn on Ctrl+C instead of killing the process so a
	// partial answer can still be shown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Full-screen live view when requested and we actually have a TTY.
	if (args.Live || cfg.UI.LiveView) && IsStdoutTTY() && !args.JSON {
		return runLiveTurn(ctx, cfg, client, store, threadID, question, args)
	}

	start := time.Now()
	progress := newProgressPrinter(args.Quiet || args.JSON || args.Options["no-timeline"] == "true" || !cfg.UI.ShowTimeline)

	var persister session.Persister
	if store != nil {
		persister = store
	}
	controller := session.NewController(client, persister, session.Hooks{
		OnPhase:    progress.onPhase,
		OnTimeline: progress.onTimeline,
		OnDropped: func(err error) {
			if args.Verbose {
				fmt.Fprintf(os.Stderr, "%s %v\n", WarningStyle.Render("[dropped]"), err)
			}
		},
	})

	interaction, err := controller.Run(ctx, threadID, question)
	if err != nil {
		// A truncated stream still produced a partial answer worth showing.
		if interaction == nil && controller.Answer() != "" && !args.JSON {
			fmt.Println()
			fmt.Print(RenderAnswer(controller.Answer(), controller.Sources()))
		}
		if args.JSON {
			NewJSONErrorResponse("ask", err).Print()
		}
		return err
	}

	if args.JSON {
		return printAskJSON(interaction, time.Since(start))
	}

	fmt.Println()
	fmt.Print(RenderAnswer(interaction.AssistantResponse, interaction.Sources))
	fmt.Println()

	showSources := cfg.UI.ShowSources && !args.Quiet && args.Options["no-sources"] != "true"
	if showSources {
		if rendered := RenderSources(interaction.Sources, interaction.AssistantResponse); rendered != "" {
			fmt.Print(rendered)
			fmt.Println()
		}
	}

	if !args.Quiet {
		fmt.Fprintf(os.Stderr, "%s %s  %s\n",
			DimStyle.Render("thread:"),
			DimStyle.Render(interaction.ThreadID),
			DimStyle.Render(time.Since(start).Round(time.Millisecond).String()))
	}

	return nil
}

// printAskJSON emits the finished turn in the standard JSON envelope.
func printAskJSON(in *session.Interaction, elapsed time.Duration) error {
	data := AskData{
		ThreadID:   in.ThreadID,
		Question:   in.UserQuery,
		Answer:     in.AssistantResponse,
		Sources:    toAskSources(in.Sources),
		Agents:     in.Agents,
		MessageID:  in.MessageID,
		DurationMs: elapsed.Milliseconds(),
	}
	return NewJSONResponse("ask", data).Print()
}

func toAskSources(srcs []sources.Source) []AskSource {
	out := make([]AskSource, 0, len(srcs))
	for _, s := range srcs {
		out = append(out, AskSource{
			Ref:   s.Ref,
			Type:  string(s.Type),
			Title: s.Title,
			URL:   s.URL,
		})
	}
	return out
}

// runLiveTurn runs one turn inside the full-screen live view.
func runLiveTurn(ctx context.Context, cfg *config.Config, client session.TurnOpener, store *storage.InteractionStore, threadID, question string, args Args) error {
	var persister session.Persister
	if store != nil {
		persister = store
	}

	view := live.New(question, cfg.UI.CompactMode, cfg.UI.Theme)
	controller := session.NewController(client, persister, view.Hooks())

	interaction, err := view.Run(ctx, controller, threadID, question)
	if err != nil {
		return err
	}

	// Re-print the finished answer in scrollback once the live view
	// exits, so the result survives the alternate screen.
	fmt.Print(RenderAnswer(interaction.AssistantResponse, interaction.Sources))
	fmt.Println()
	if cfg.UI.ShowSources && !args.Quiet {
		if rendered := RenderSources(interaction.Sources, interaction.AssistantResponse); rendered != "" {
			fmt.Print(rendered)
		}
	}
	return nil
}
