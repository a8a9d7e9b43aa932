package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	cmd, rest := resolveCommand(os.Args[1:])
	switch cmd {
	case "dashboard":
		os.Exit(runDashboard(rest))
	case "status":
		os.Exit(runStatus(rest))
	case "doctor":
		os.Exit(runDoctor(rest))
	case "mcp":
		os.Exit(runMCP(rest))
	case "help":
		printHelp()
		os.Exit(0)
	default:
		printHelp()
		os.Exit(1)
	}
}

func resolveCommand(args []string) (string, []string) {
	subcommands := map[string]bool{
		"dashboard": true,
		"status":    true,
		"doctor":    true,
		"mcp":       true,
	}

	alias := map[string]string{
		"dash":  "dashboard",
		"check": "doctor",
	}

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if subcommands[args[0]] {
			return args[0], args[1:]
		}
		if mapped, ok := alias[args[0]]; ok {
			return mapped, args[1:]
		}
		return "", args
	}

	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return "help", nil
		}
	}

	return "dashboard", args
}

func printHelp() {
	fmt.Print(`terradeck - terminal UI for Terraform workflows

Usage:
  terradeck [command] [options]

Commands:
  dashboard            Run the dashboard TUI (default)
  status               Show account auth and workspace status
  doctor               Check local environment and config
  mcp                  Run MCP server (stdio)

Options:
  -c, --config <path>  Path to terradeck config YAML
  -h, --help           Show this help

Aliases:
  dash, check
`)
}
