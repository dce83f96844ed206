package report

import (
	"strings"
	"unicode/utf8"
)

// Presentation constants. These are exact contracts: the rendered workbook
// must reproduce them bit-for-bit.
const (
	maxColumnWidth      = 80
	minColumnWidth      = 8
	minDescriptionWidth = 30
	minTimestampWidth   = 25

	headerRowHeight = 26
	dataRowHeight   = 16

	zoomScale      = 80
	printFitWidth  = 1
	printFitHeight = 0 // unconstrained
)

// Class is the presentation class of a column.
type Class int

const (
	ClassGeneric Class = iota
	ClassTimestamp
	ClassDescription
)

// Classify returns the presentation class for a header.
func Classify(header string) Class {
	switch header {
	case "Description":
		return ClassDescription
	case "Timestamp (logged)":
		return ClassTimestamp
	default:
		return ClassGeneric
	}
}

// ColumnLayout is the computed presentation policy for one column.
type ColumnLayout struct {
	Width  int
	Wrap   bool
	VAlign string // "top" or "center"
}

// ViewHints are the sheet-level presentation settings.
type ViewHints struct {
	ZoomScale   int
	FitToWidth  int
	FitToHeight int
}

// Layout is the full presentation policy for a rendered table.
type Layout struct {
	Columns      []ColumnLayout
	HeaderHeight float64
	RowHeight    float64
	Hints        ViewHints
}

// Compute derives the layout for a table. For each column the content length
// is the maximum, over the header and every cell's longest single line, of
// the rendered length; the width is that length padded and clamped by
// column class. Compute is pure: it never touches the sink.
func Compute(headers []string, rows [][]string) Layout {
	columns := make([]ColumnLayout, len(headers))

	for col, header := range headers {
		maxLen := longestLine(header)
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			if n := longestLine(row[col]); n > maxLen {
				maxLen = n
			}
		}

		switch Classify(header) {
		case ClassDescription:
			columns[col] = ColumnLayout{
				Width:  clamp(maxLen+4, minDescriptionWidth, maxColumnWidth),
				Wrap:   true,
				VAlign: "top",
			}
		case ClassTimestamp:
			columns[col] = ColumnLayout{
				Width:  clamp(maxLen+4, minTimestampWidth, maxColumnWidth),
				Wrap:   true,
				VAlign: "top",
			}
		default:
			columns[col] = ColumnLayout{
				Width:  clamp(maxLen+2, minColumnWidth, maxColumnWidth),
				Wrap:   false,
				VAlign: "center",
			}
		}
	}

	return Layout{
		Columns:      columns,
		HeaderHeight: headerRowHeight,
		RowHeight:    dataRowHeight,
		Hints: ViewHints{
			ZoomScale:   zoomScale,
			FitToWidth:  printFitWidth,
			FitToHeight: printFitHeight,
		},
	}
}

// longestLine returns the rendered length of the longest single line of s.
func longestLine(s string) int {
	max := 0
	for _, line := range strings.Split(s, "\n") {
		if n := utf8.RuneCountInString(line); n > max {
			max = n
		}
	}
	return max
}

func clamp(n, lower, upper int) int {
	if n < lower {
		return lower
	}
	if n > upper {
		return upper
	}
	return n
}
