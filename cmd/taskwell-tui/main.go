package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/taskwell/taskwell/client"
	"github.com/taskwell/taskwell/tui"
)

func main() {
	endpoint := flag.String("endpoint", "http://localhost:8080", "the taskwell API endpoint")
	flag.Parse()

	token := os.Getenv("TASKWELL_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "TASKWELL_TOKEN must be set to a bearer token")
		os.Exit(1)
	}

	m := tui.New(client.NewClient(*endpoint, token))

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running client: %s\n", err)
		os.Exit(1)
	}
}
