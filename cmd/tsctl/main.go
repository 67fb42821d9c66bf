// Command tsctl inspects trendscope's local data.
//
// Usage:
//
//	tsctl                   Show help
//	tsctl events            JSONL event log viewer
//	tsctl stats             Per-pipeline counts and latencies from the event log
//	tsctl history           Prompt history
package main

import (
	"fmt"
	"os"
)

const usage = `tsctl - trendscope inspection CLI

Usage:
  tsctl <command> [flags]

Commands:
  events      JSONL event log viewer
  stats       Per-pipeline counts and latencies
  history     List or prune the prompt history

Flags common to all commands:
  -dir        Data directory (default ~/.trendscope)

Run 'tsctl <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "events":
		err = runEvents(args, os.Stdout)
	case "stats":
		err = runStats(args, os.Stdout)
	case "history":
		err = runHistory(args, os.Stdout)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "tsctl: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "tsctl %s: %v\n", cmd, err)
		os.Exit(1)
	}
}
