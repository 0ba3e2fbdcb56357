package exporter

import (
	"strconv"
	"time"
)

// DateTimeLayout is how sale dates are written; the loader parses it back
const DateTimeLayout = "2006-01-02 15:04:05.999999999"

// formatFloat writes the shortest representation that parses back to f
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatDate leaves missing dates blank
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateTimeLayout)
}
