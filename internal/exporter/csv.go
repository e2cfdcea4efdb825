package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes a header and every record to w. It returns the number of
// records written.
func WriteCSV(w io.Writer, options WriteOptions, records iter.Seq[[]string]) (int, error) {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return 0, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return 0, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	n := 0
	for record := range records {
		if err := writer.Write(record); err != nil {
			return n, fmt.Errorf("failed to write record %d: %w", n, err)
		}
		n++
	}

	writer.Flush()
	return n, writer.Error()
}
