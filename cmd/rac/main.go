package main

import (
	"fmt"
	"io"
	"os"

	"github.com/agext/levenshtein"

	"github.com/aiopener/rac"
)

// commands lists every subcommand name, for typo suggestions.
var commands = []string{"serve", "mcp", "resolve", "paths", "raw", "version", "help"}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version", "-v", "--version":
		printVersion(os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	case "serve":
		err = handleServe(args)
	case "mcp":
		err = handleMCP(args)
	case "resolve":
		err = handleResolve(args, os.Stdout)
	case "paths":
		err = handlePaths(args, os.Stdout)
	case "raw":
		err = handleRaw(args, os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if s := suggestCommand(command); s != "" {
			fmt.Fprintf(os.Stderr, "Did you mean: %s?\n", s)
		}
		fmt.Fprintln(os.Stderr)
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// suggestCommand returns the known command closest to input, or "" when
// nothing is within two edits.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, c := range commands {
		if d := levenshtein.Distance(input, c, nil); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "rac v%s\n%s\n", rac.Version(), rac.BuildInfo())
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintf(w, `rac - layered context resolver

Usage:
  rac <command> [flags]

Commands:
  serve     Start the HTTP API
  mcp       Serve the MCP tools over stdio
  resolve   Resolve a LAYER/FILE[/SECTION] path
  paths     List every path a tenant can query
  raw       Print a file without inheritance or reference resolution
  version   Show version information
  help      Show this help

Every command except version and help accepts --config FILE. Without it,
settings come from RAC_* environment variables and built-in defaults.

Examples:
  rac serve --config rac.yaml
  rac resolve --client uhu USE_CASE/COPYWRITER/prohibitions
  rac resolve --client-id PRORAIL --format json USE_CASE/COPYWRITER
  rac paths --client uhu
  rac raw --section gates LOGIC_08_QUALITY_GATES

Run 'rac <command> --help' for command flags.
`)
}
