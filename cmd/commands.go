package main

// commands.go implements `ttfbridge commands`.

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ttfbridge/host/internal/router"
)

func runCommands(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("commands", flag.ContinueOnError)
	fs.SetOutput(stderr)

	jsonOutput := fs.Bool("json", false, "Output in JSON format")
	mutatingOnly := fs.Bool("mutating", false, "Only list commands that change the document")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ttfbridge commands [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	var list []router.CommandInfo
	for _, c := range router.Commands() {
		if *mutatingOnly && !c.Mutating {
			continue
		}
		list = append(list, c)
	}

	if *jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.Encode(list)
		return 0
	}

	for _, c := range list {
		kind := "read"
		if c.Mutating {
			kind = "write"
		}
		fmt.Fprintf(stdout, "%-32s %s\n", c.Name, kind)
	}
	return 0
}
