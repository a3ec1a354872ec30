// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for ragline.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdAsk
	CmdThreads
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool   // Output in JSON format
	Server  string // Backend URL override
	Live    bool   // Full-screen live view for ask

	// Command-specific
	Query      string
	Thread     string // Thread ID to continue or operate on
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string

	// Options holds command-specific named options (e.g., --format, --output)
	Options map[string]string
}

const usageText = `ragline - conversational search over your corpus and the web

Ragline is a terminal client for a streaming retrieval backend.

It provides:
  - Single-question and interactive chat against the answer backend
  - A live task timeline while multi-agent research runs
  - Inline [n] citations resolved against retrieved sources
  - Local thread history in SQLite with search and export

Usage:
  ragline                    Start interactive chat (default)
  ragline ask "question"     Ask a single question
  ragline chat               Interactive chat
  ragline threads [subcommand] Thread history management
  ragline status             Show backend and storage status
  ragline config [show|get|set|path] Configuration
  ragline version            Show version
  ragline help               Show this help

Thread Commands:
  ragline threads list              List saved threads
  ragline threads show <id>         Show a thread's turns
  ragline threads search <text>     Search threads by title or content
  ragline threads export <id>       Export a thread
    --format markdown|json          Export format (default: markdown)
    --output FILE                   Write to file (default: stdout)
  ragline threads delete <id>       Delete a thread
    --confirm                       Skip the confirmation prompt

Config Commands:
  ragline config show               Show current configuration
  ragline config get <key>          Get a value (e.g. server.base_url)
  ragline config set <key> <value>  Set and save a value
  ragline config path               Show the config file path

Global Flags:
  --server URL    Override the backend URL for this invocation
  --live          Full-screen live view while streaming (ask only)
  --json          Output in JSON format
  -q, --quiet     Minimal output (no timeline, no source list)
  -v, --verbose   Debug output

Examples:
  # Basic usage
  ragline                                Start interactive chat
  ragline ask "How does the indexer work?"
  echo "summarize the deploy doc" | ragline ask

  # Continue an existing thread
  ragline ask --thread 7f3a... "And what about retries?"

  # Thread history
  ragline threads list
  ragline threads search "retries"
  ragline threads export 7f3a... --format markdown --output notes.md
  ragline threads delete 7f3a... --confirm

  # Configuration and status
  ragline status
  ragline config set server.base_url http://127.0.0.1:8000
  ragline config set ui.theme light

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("ragline version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given argument list. Split out from Parse for
// testability.
func ParseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	// No arguments: interactive chat is the default
	if len(remaining) == 0 {
		return CmdChat, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "ask", "a":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat", "c":
		parseChatArgs(&parsedArgs, remaining)
		return CmdChat, parsedArgs

	case "threads", "thread", "history":
		parseThreadsArgs(&parsedArgs, remaining)
		return CmdThreads, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command: treat the whole line as a question.
		// "ragline how do retries work" just works.
		all := append([]string{cmd}, remaining...)
		parsedArgs.Raw = all
		parseAskArgs(&parsedArgs, all)
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	parsedArgs := Args{
		Options: make(map[string]string),
	}

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--live":
			parsedArgs.Live = true
		case "--server":
			if i+1 < len(args) {
				i++
				parsedArgs.Server = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--server=") {
				parsedArgs.Server = strings.TrimPrefix(arg, "--server=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-t", "--thread":
			if i+1 < len(remaining) {
				i++
				args.Thread = remaining[i]
			}
		case "--no-sources":
			args.Options["no-sources"] = "true"
		case "--no-timeline":
			args.Options["no-timeline"] = "true"
		default:
			if strings.HasPrefix(arg, "--thread=") {
				args.Thread = strings.TrimPrefix(arg, "--thread=")
			} else if !strings.HasPrefix(arg, "-") {
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// parseChatArgs parses chat command specific arguments.
func parseChatArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-t", "--thread":
			if i+1 < len(remaining) {
				i++
				args.Thread = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--thread=") {
				args.Thread = strings.TrimPrefix(arg, "--thread=")
			}
		}
	}
}

// parseThreadsArgs parses threads command specific arguments.
func parseThreadsArgs(args *Args, remaining []string) {
	var positional []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		switch {
		case arg == "--format" && i+1 < len(remaining):
			args.Options["format"] = remaining[i+1]
			i++
		case strings.HasPrefix(arg, "--format="):
			args.Options["format"] = strings.TrimPrefix(arg, "--format=")
		case arg == "--output" && i+1 < len(remaining):
			args.Options["output"] = remaining[i+1]
			i++
		case strings.HasPrefix(arg, "--output="):
			args.Options["output"] = strings.TrimPrefix(arg, "--output=")
		case arg == "--confirm":
			args.Options["confirm"] = "true"
		case !strings.HasPrefix(arg, "-"):
			positional = append(positional, arg)
		}
	}

	if len(positional) > 0 {
		args.Subcommand = positional[0]
	}
	if len(positional) > 1 {
		args.Thread = positional[1]
		// search takes free text, not a thread id
		if args.Subcommand == "search" {
			args.Query = strings.Join(positional[1:], " ")
		}
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
	}
	if len(remaining) > 1 {
		args.Options["key"] = remaining[1]
	}
	if len(remaining) > 2 {
		args.Options["value"] = strings.Join(remaining[2:], " ")
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleAsk handles the "ask" command.
// This delegates to the full implementation in ask.go.
func HandleAsk(args Args) {
	if err := HandleAskCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleChat handles the "chat" command.
// This delegates to the full implementation in chat.go.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		resp := NewJSONResponse("version", data)
		resp.Print()
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
