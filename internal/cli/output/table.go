package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is a result that knows its own columns.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes t borderless and left aligned, headers upper-cased.
func PrintTable(w io.Writer, t TableRenderer) error {
	tw := plainTable(w)
	tw.SetHeader(t.Headers())
	tw.AppendBulk(t.Rows())
	tw.Render()
	return nil
}

// KeyValues writes one aligned "key: value" line per pair.
func KeyValues(w io.Writer, pairs [][2]string) error {
	tw := plainTable(w)
	tw.SetColumnSeparator(":")
	for _, kv := range pairs {
		tw.Append(kv[:])
	}
	tw.Render()
	return nil
}

func plainTable(w io.Writer) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetBorder(false)
	tw.SetHeaderLine(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetCenterSeparator("")
	tw.SetColumnSeparator("")
	tw.SetRowSeparator("")
	tw.SetTablePadding("  ")
	tw.SetNoWhiteSpace(true)
	return tw
}
