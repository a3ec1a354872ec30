// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// threads.go - Thread history command handlers for the ragline CLI.
//
// Command: threads [list|show|search|export|delete]
//
// Examples:
//   ragline threads list
//   ragline threads show 7f3a...
//   ragline threads search "retries"
//   ragline threads export 7f3a... --format markdown --output notes.md
//   ragline threads delete 7f3a... --confirm
package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/ragline/internal/storage"
)

// HandleThreads dispatches thread subcommands.
func HandleThreads(args Args) error {
	cfg := loadConfig(args)

	store, err := openStore(cfg)
	if err != nil {
		return NewCommandError("threads", args.Subcommand, "cannot open thread store", err)
	}
	defer store.Close()

	ctx := context.Background()

	switch args.Subcommand {
	case "", "list", "ls", "l":
		return handleThreadsList(ctx, store, args)
	case "show":
		return handleThreadsShow(ctx, store, args)
	case "search":
		return handleThreadsSearch(ctx, store, args)
	case "export":
		return handleThreadsExport(ctx, store, cfg.Storage.ExportDir, args)
	case "delete", "rm":
		return handleThreadsDelete(ctx, store, args)
	default:
		return ErrMissingArgument("subcommand",
			"ragline threads [list|show|search|export|delete]")
	}
}

// =============================================================================
// LIST AND SEARCH
// =============================================================================

func handleThreadsList(ctx context.Context, store *storage.InteractionStore, args Args) error {
	threads, err := store.ListThreads(ctx)
	if err != nil {
		return NewCommandError("threads", "list", "query failed", err)
	}
	return printThreads(threads, args)
}

func handleThreadsSearch(ctx context.Context, store *storage.InteractionStore, args Args) error {
	if args.Query == "" {
		return ErrMissingArgument("query", `ragline threads search "what to find"`)
	}
	threads, err := store.SearchThreads(ctx, args.Query)
	if err != nil {
		return NewCommandError("threads", "search", "query failed", err)
	}
	return printThreads(threads, args)
}

func printThreads(threads []storage.Thread, args Args) error {
	if args.JSON {
		data := make([]ThreadData, 0, len(threads))
		for _, t := range threads {
			data = append(data, ThreadData{
				ID:           t.ID,
				Title:        t.Title,
				Interactions: t.InteractionCount,
				CreatedAt:    t.CreatedAt.Format(time.RFC3339),
				UpdatedAt:    t.UpdatedAt.Format(time.RFC3339),
				Preview:      t.Preview,
			})
		}
		return NewJSONResponse("threads", data).Print()
	}

	if len(threads) == 0 {
		fmt.Println(DimStyle.Render("No threads yet. Start one with: ragline ask \"...\""))
		return nil
	}

	fmt.Println(TitleStyle.Render("Threads"))
	for _, t := range threads {
		fmt.Printf("%s  %s\n",
			HighlightStyle.Render(shortID(t.ID)),
			ValueStyle.Render(t.Title))
		fmt.Printf("    %s\n",
			DimStyle.Render(fmt.Sprintf("%d turns | updated %s | %s",
				t.InteractionCount,
				t.UpdatedAt.Local().Format("2006-01-02 15:04"),
				t.ID)))
	}
	return nil
}

// shortID returns a display prefix for a thread id.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// =============================================================================
// SHOW
// =============================================================================

func handleThreadsShow(ctx context.Context, store *storage.InteractionStore, args Args) error {
	if args.Thread == "" {
		return ErrMissingArgument("thread id", "ragline threads show <id>")
	}

	interactions, err := store.LoadThread(ctx, args.Thread)
	if err != nil {
		if errors.Is(err, storage.ErrThreadNotFound) {
			return ErrNotFound("thread", args.Thread)
		}
		return NewCommandError("threads", "show", "load failed", err)
	}

	if args.JSON {
		return NewJSONResponse("threads", interactions).Print()
	}

	for i, in := range interactions {
		if i > 0 {
			fmt.Println(RenderSeparatorAdaptive())
		}
		fmt.Printf("%s %s\n", SectionStyle.Render("User"), DimStyle.Render(in.CreatedAt.Local().Format("2006-01-02 15:04")))
		fmt.Println(WrapText(in.UserQuery, GetTerminalWidth()))
		fmt.Println()
		fmt.Println(SectionStyle.Render("Assistant"))
		fmt.Print(RenderAnswer(in.AssistantResponse, in.Sources))
		fmt.Println()
		if len(in.Sources) > 0 && !args.Quiet {
			fmt.Print(RenderSources(in.Sources, in.AssistantResponse))
		}
	}
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

func handleThreadsExport(ctx context.Context, store *storage.InteractionStore, exportDir string, args Args) error {
	if args.Thread == "" {
		return ErrMissingArgument("thread id", "ragline threads export <id> [--format markdown|json] [--output FILE]")
	}

	format := args.Options["format"]
	if format == "" {
		format = "markdown"
	}

	output := args.Options["output"]
	if output == "" {
		// Without --output the export goes to stdout.
		switch strings.ToLower(format) {
		case "markdown", "md":
			md, err := store.ExportMarkdown(ctx, args.Thread)
			if err != nil {
				return exportErr(args.Thread, err)
			}
			fmt.Print(md)
			return nil
		case "json":
			data, err := store.ExportJSON(ctx, args.Thread)
			if err != nil {
				return exportErr(args.Thread, err)
			}
			fmt.Println(string(data))
			return nil
		default:
			return ErrUnsupportedFormat(format, []string{"markdown", "json"})
		}
	}

	if exportDir != "" && !strings.ContainsAny(output, "/\\") {
		output = filepath.Join(exportDir, output)
	}

	if err := store.ExportToFile(ctx, args.Thread, format, output); err != nil {
		return exportErr(args.Thread, err)
	}

	if !args.Quiet {
		fmt.Printf("%s exported to %s\n", SuccessStyle.Render("[OK]"), output)
	}
	return nil
}

func exportErr(threadID string, err error) error {
	if errors.Is(err, storage.ErrThreadNotFound) {
		return ErrNotFound("thread", threadID)
	}
	return NewCommandError("threads", "export", "export failed", err)
}

// =============================================================================
// DELETE
// =============================================================================

func handleThreadsDelete(ctx context.Context, store *storage.InteractionStore, args Args) error {
	if args.Thread == "" {
		return ErrMissingArgument("thread id", "ragline threads delete <id> [--confirm]")
	}

	confirmed, err := RequireConfirmation(
		args.Options["confirm"] == "true",
		"delete thread "+shortID(args.Thread),
		args.JSON)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := store.DeleteThread(ctx, args.Thread); err != nil {
		if errors.Is(err, storage.ErrThreadNotFound) {
			return ErrNotFound("thread", args.Thread)
		}
		return NewCommandError("threads", "delete", "delete failed", err)
	}

	if args.JSON {
		return NewJSONResponse("threads", map[string]string{"deleted": args.Thread}).Print()
	}
	fmt.Printf("%s deleted thread %s\n", SuccessStyle.Render("[OK]"), shortID(args.Thread))
	return nil
}
