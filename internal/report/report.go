// Package report renders the decisions of a purge run as a table.
package report

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/olekukonko/tablewriter"

	"github.com/imedwei/wings-backup-purger/internal/backup"
	"github.com/imedwei/wings-backup-purger/internal/utils"
)

// Table collects one row per archive and prints them when the run completes.
type Table struct {
	mu   sync.Mutex
	w    io.Writer
	rows [][]string
}

// NewTable creates a report that renders to w.
func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

// Decision implements backup.Sink.
func (t *Table) Decision(ctx context.Context, ev backup.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = append(t.rows, []string{
		ev.Archive.Name,
		utils.FormatBytes(ev.Archive.Size),
		string(ev.Outcome),
		ev.Reason,
	})
}

// Summary implements backup.Sink.
func (t *Table) Summary(ctx context.Context, summary backup.RunSummary) {
	t.mu.Lock()
	defer t.mu.Unlock()

	table := tablewriter.NewWriter(t.w)
	table.SetHeader([]string{"File", "Size", "Outcome", "Reason"})

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	table.AppendBulk(t.rows)
	table.Render()

	fmt.Fprintf(t.w, "\n%d deleted, %d kept, %s cleared\n",
		summary.BackupsDeleted,
		summary.BackupsKept,
		utils.FormatGigabytes(summary.BytesCleared),
	)

	t.rows = nil
}
