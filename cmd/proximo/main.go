package main

import (
	"fmt"
	"os"

	"github.com/rendis/proximo/internal/tui"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "sync":
			if err := runSync(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "export":
			if err := runExport(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "version":
			fmt.Println("proximo " + version)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	// No subcommand → launch TUI
	if err := tui.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `proximo - provider directory sync and explorer

Usage:
  proximo                Launch interactive TUI
  proximo sync [flags]   Run headless directory sync
  proximo export [flags] Export .db to CSV
  proximo version        Show version

Run 'proximo sync --help' or 'proximo export --help' for flags.
`)
}
