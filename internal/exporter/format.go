package exporter

import (
	"strconv"

	"dyadpanel/pkg/contracts/domain"
)

// formatFloat renders the shortest representation that round-trips, or NA
func formatFloat(f domain.Float) string {
	return f.String()
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool formats a boolean as a 0/1 indicator
func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
