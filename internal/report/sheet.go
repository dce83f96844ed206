package report

import "fmt"

// headerFillColor is the light gray fill behind the header row.
const headerFillColor = "DDDDDD"

// CellStyle is the style subset the report needs from a sink.
type CellStyle struct {
	Bold      bool
	FillColor string // RGB hex, empty for none
	HAlign    string // empty for default
	VAlign    string
	Wrap      bool
}

// Sheet is the narrow interface the report renders through. The layout
// computation itself is pure; only these calls touch the sink.
type Sheet interface {
	SetCell(row, col int, value any) error
	SetCellStyle(startRow, startCol, endRow, endCol int, style CellStyle) error
	SetColumnWidth(col int, width float64) error
	SetRowHeight(row int, height float64) error
	FreezeHeader() error
	AutoFilter(lastRow, lastCol int) error
	SetViewHints(hints ViewHints) error
}

// RenderTable writes the header and data cells. Rows and columns are
// 1-based; row 1 is the header.
func RenderTable(s Sheet, rows []Row) error {
	for col, header := range Columns {
		if err := s.SetCell(1, col+1, header); err != nil {
			return fmt.Errorf("write header cell %d: %w", col+1, err)
		}
	}

	for i, row := range rows {
		for col, value := range row.values() {
			if err := s.SetCell(i+2, col+1, value); err != nil {
				return fmt.Errorf("write cell (%d,%d): %w", i+2, col+1, err)
			}
		}
	}

	return nil
}

// ApplyLayout applies the computed presentation policy: header styling,
// frozen header, auto-filter, per-column widths and alignment, row heights,
// and the sheet-level view hints. dataRows is the number of rows below the
// header.
func ApplyLayout(s Sheet, lay Layout, dataRows int) error {
	lastRow := dataRows + 1
	lastCol := len(lay.Columns)

	if err := s.SetCellStyle(1, 1, 1, lastCol, CellStyle{
		Bold:      true,
		FillColor: headerFillColor,
		HAlign:    "center",
		VAlign:    "center",
	}); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	if err := s.FreezeHeader(); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	if err := s.AutoFilter(lastRow, lastCol); err != nil {
		return fmt.Errorf("set auto-filter: %w", err)
	}

	if err := s.SetRowHeight(1, lay.HeaderHeight); err != nil {
		return fmt.Errorf("set header height: %w", err)
	}
	for row := 2; row <= lastRow; row++ {
		if err := s.SetRowHeight(row, lay.RowHeight); err != nil {
			return fmt.Errorf("set row %d height: %w", row, err)
		}
	}

	for i, col := range lay.Columns {
		if err := s.SetColumnWidth(i+1, float64(col.Width)); err != nil {
			return fmt.Errorf("set column %d width: %w", i+1, err)
		}
		if dataRows == 0 {
			continue
		}
		if err := s.SetCellStyle(2, i+1, lastRow, i+1, CellStyle{
			Wrap:   col.Wrap,
			VAlign: col.VAlign,
		}); err != nil {
			return fmt.Errorf("style column %d: %w", i+1, err)
		}
	}

	return s.SetViewHints(lay.Hints)
}
