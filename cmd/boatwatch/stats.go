package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/bakkerme/boatwatch/internal/core"
)

// printStats writes store statistics either as a table or, for format
// "json", as an indented JSON object.
func printStats(w io.Writer, stats core.StoreStats, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	case "", "table":
	default:
		return fmt.Errorf("unsupported stats format %q (expected table or json)", format)
	}

	lastCheck := "never"
	if stats.LastCheck != nil {
		lastCheck = stats.LastCheck.Format(time.RFC3339)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Store", "Known listings", "Last check"})
	t.AppendRow(table.Row{stats.Location, stats.TotalKnown, lastCheck})
	t.Render()
	return nil
}
