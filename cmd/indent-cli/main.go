package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mikelcalvo/indent-cli/internal/indent"
)

func main() {
	// No arguments, "tui" or a --route flag -> launch TUI
	if len(os.Args) < 2 || os.Args[1] == "tui" || strings.HasPrefix(os.Args[1], "--route=") {
		if err := runTUI(os.Args[1:]); err != nil {
			fmt.Printf("%sError: %s%s\n", indent.Red, err, indent.Reset)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cmd := os.Args[1]

	// Help doesn't need config
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		os.Exit(0)
	}

	// Version
	if cmd == "version" || cmd == "-v" || cmd == "--version" {
		fmt.Printf("Indent CLI v%s\n", indent.Version)
		fmt.Printf("Created by %s in %s\n", indent.Author, indent.Year)
		os.Exit(0)
	}

	config, err := indent.LoadConfig()
	if err != nil {
		fmt.Printf("%sError: %s%s\n", indent.Red, err, indent.Reset)
		os.Exit(1)
	}
	client := indent.NewClient(config)
	ctx := context.Background()

	var cmdErr error
	switch cmd {
	case "ping":
		cmdErr = client.CmdPing(ctx)
	case "config":
		cmdErr = client.CmdConfig()
	case "masters":
		cmdErr = client.CmdMasters(ctx, os.Args[2:])
	default:
		fmt.Printf("%sUnknown command: %s%s\n", indent.Red, cmd, indent.Reset)
		printUsage()
		os.Exit(1)
	}

	if cmdErr != nil {
		fmt.Printf("%sError: %s%s\n", indent.Red, cmdErr, indent.Reset)
		os.Exit(1)
	}
}

func runTUI(args []string) error {
	start := indent.RouteHome
	for _, arg := range args {
		if strings.HasPrefix(arg, "--route=") {
			route, err := indent.ParseRoute(strings.TrimPrefix(arg, "--route="))
			if err != nil {
				return err
			}
			start = route
		}
	}

	config, err := indent.LoadConfig()
	if err != nil {
		return err
	}

	f, err := tea.LogToFile(config.LogFile, "indent")
	if err != nil {
		return fmt.Errorf("cannot open log file: %w", err)
	}
	defer f.Close()
	log.Printf("starting TUI against %s", config.APIURL)

	return indent.RunTUI(indent.NewClient(config), start)
}

func printUsage() {
	fmt.Printf(`%sIndent CLI%s - Created by Mikel Calvo in 2026

Usage: indent-cli <command> [args...]

%sCommands:%s

  %stui [--route=/form]%s               Open the indent entry UI (default)
  %sping%s                              Fetch master dropdowns and report counts
  %sconfig%s                            Show current configuration
  %smasters [set]%s                     List a master set, or count every set
  %sversion%s                           Show version information

%sMaster sets:%s
  companies, departments, projects, Plants, cost_categories,
  cost_centers, IndentItems, Indentuom

%sConfiguration (.indent-config or environment):%s
  INDENT_API_URL          Backend base URL (default http://127.0.0.1:8000)
  INDENT_BRAND            Title in the UI
  INDENT_HTTP_TIMEOUT     Request timeout, e.g. 30s (default: none)
  INDENT_SHARE_MASTERS    true to fetch master dropdowns once for both forms
  INDENT_COERCE_ALL_DIGITS true to send every all-digits header value as a number
  INDENT_PO_PLACEHOLDER   purchaseorderno sent with item rows
  INDENT_LOG_FILE         Diagnostic log written while the UI runs

%sExamples:%s
  indent-cli
  indent-cli --route=/form
  indent-cli masters IndentItems

`,
		indent.Blue, indent.Reset,
		indent.Yellow, indent.Reset,
		indent.Green, indent.Reset, indent.Green, indent.Reset, indent.Green, indent.Reset,
		indent.Green, indent.Reset, indent.Green, indent.Reset,
		indent.Yellow, indent.Reset,
		indent.Yellow, indent.Reset,
		indent.Yellow, indent.Reset,
	)
}
