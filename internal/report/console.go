package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"listing_watcher/internal/domain"
)

// MaxListed caps the number of new listings shown per cycle.
const MaxListed = 5

// Console prints a per-cycle summary to a terminal.
type Console struct {
	out     io.Writer
	csvPath string
	names   []string
}

// NewConsole reports to out. names fixes the row order of the category
// table; csvPath is shown in the save confirmation.
func NewConsole(out io.Writer, csvPath string, names []string) *Console {
	return &Console{out: out, csvPath: csvPath, names: names}
}

func (c *Console) Report(result *domain.PollResult) {
	failed := make(map[string]error, len(result.Errors))
	for _, e := range result.Errors {
		failed[e.Category] = e.Err
	}
	fresh := make(map[string]int)
	for _, l := range result.NewRecords {
		fresh[l.Category]++
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.SetTitle("Cycle %s", result.CycleID)
	t.AppendHeader(table.Row{"Category", "Found", "New", "Error"})
	for _, name := range c.names {
		errText := ""
		if err, ok := failed[name]; ok {
			errText = err.Error()
		}
		t.AppendRow(table.Row{name, result.PerCategoryCounts[name], fresh[name], errText})
	}
	t.AppendFooter(table.Row{"Total", total(result.PerCategoryCounts), len(result.NewRecords), len(result.Errors)})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()

	if len(result.NewRecords) == 0 {
		fmt.Fprintln(c.out, "No new listings found.")
		return
	}

	listed := result.NewRecords[:min(MaxListed, len(result.NewRecords))]

	lt := table.NewWriter()
	lt.SetOutputMirror(c.out)
	lt.SetTitle("Found %d new listings", len(result.NewRecords))
	lt.AppendHeader(table.Row{"Category", "Title", "Price", "Link", "Image", "Posted"})
	for _, l := range listed {
		lt.AppendRow(table.Row{l.Category, text.Trim(l.Title, 60), l.Price, l.Link, l.Image, l.PostedDate})
	}
	if rest := len(result.NewRecords) - len(listed); rest > 0 {
		lt.AppendFooter(table.Row{fmt.Sprintf("... and %d more", rest)})
	}
	lt.SetStyle(table.StyleRounded)
	lt.Style().Format.Footer = text.FormatDefault
	lt.Render()

	fmt.Fprintf(c.out, "Saved %d new listings to %s\n", len(result.NewRecords), c.csvPath)
}

func total(counts map[string]int) int {
	n := 0
	for _, v := range counts {
		n += v
	}
	return n
}
