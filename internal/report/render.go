package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// Render prints a table for the console
func Render(w io.Writer, t Table) {
	fmt.Fprintln(w, t.Title)

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(false)
	table.SetHeader(t.Header)
	table.AppendBulk(t.Rows)
	table.Render()

	fmt.Fprintln(w)
}

// RenderAll prints every table of the summary
func RenderAll(w io.Writer, s *Summary) {
	for _, t := range s.Tables() {
		Render(w, t)
	}
}
