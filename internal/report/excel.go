package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"evreport/internal/logging"
)

// SheetName is the name of the single report sheet.
const SheetName = "Report"

// backupStampLayout is the 14-digit timestamp appended to a displaced file.
const backupStampLayout = "20060102150405"

// WriteError is returned when the report cannot be persisted. The
// aggregation result itself is not lost, only its rendering.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write report %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ExcelWriter renders report rows into an xlsx workbook.
type ExcelWriter struct {
	path string
	log  *logging.Logger
}

// NewExcelWriter creates a writer targeting path.
func NewExcelWriter(path string, log *logging.Logger) *ExcelWriter {
	if log == nil {
		log = logging.Nop()
	}
	return &ExcelWriter{path: path, log: log}
}

// Path returns the target path.
func (w *ExcelWriter) Path() string { return w.path }

// Write persists the rows. An existing file at the target is renamed aside
// first, never overwritten. The raw table is saved before any formatting is
// attempted; a formatting failure is only a warning, since data correctness
// takes priority over presentation.
func (w *ExcelWriter) Write(rows []Row) error {
	if backup, err := backupExisting(w.path); err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("Failed to back up existing report")
	} else if backup != "" {
		w.log.Info().Str("from", w.path).Str("to", backup).Msg("Backed up existing report")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}

	sheet := &excelSheet{file: f, sheet: SheetName}
	if err := RenderTable(sheet, rows); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}
	if err := f.SaveAs(w.path); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}
	w.log.Info().Str("path", w.path).Int("rows", len(rows)).Msg("Wrote report")

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = row.Cells()
	}
	lay := Compute(Columns, cells)

	if err := ApplyLayout(sheet, lay, len(rows)); err != nil {
		w.log.Warn().Err(err).Msg("Failed to apply report formatting; raw table retained")
		return nil
	}
	if err := f.SaveAs(w.path); err != nil {
		w.log.Warn().Err(err).Msg("Failed to save formatted report; raw table retained")
		return nil
	}
	w.log.Info().Str("path", w.path).Msg("Applied report formatting")

	return nil
}

// backupExisting renames an existing file at path to carry a timestamp
// suffix. It returns the backup name, or "" when there was nothing to move.
func backupExisting(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	backup := fmt.Sprintf("%s_%s%s", base, time.Now().Format(backupStampLayout), ext)

	if err := os.Rename(path, backup); err != nil {
		return "", err
	}
	return backup, nil
}

// excelSheet adapts an excelize workbook to the Sheet interface.
type excelSheet struct {
	file  *excelize.File
	sheet string
}

func (s *excelSheet) SetCell(row, col int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return s.file.SetCellValue(s.sheet, cell, value)
}

func (s *excelSheet) SetCellStyle(startRow, startCol, endRow, endCol int, style CellStyle) error {
	start, err := excelize.CoordinatesToCellName(startCol, startRow)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(endCol, endRow)
	if err != nil {
		return err
	}

	st := excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: style.HAlign,
			Vertical:   style.VAlign,
			WrapText:   style.Wrap,
		},
	}
	if style.Bold {
		st.Font = &excelize.Font{Bold: true}
	}
	if style.FillColor != "" {
		st.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{style.FillColor},
			Pattern: 1,
		}
	}

	id, err := s.file.NewStyle(&st)
	if err != nil {
		return err
	}
	return s.file.SetCellStyle(s.sheet, start, end, id)
}

func (s *excelSheet) SetColumnWidth(col int, width float64) error {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}
	return s.file.SetColWidth(s.sheet, name, name, width)
}

func (s *excelSheet) SetRowHeight(row int, height float64) error {
	return s.file.SetRowHeight(s.sheet, row, height)
}

func (s *excelSheet) FreezeHeader() error {
	return s.file.SetPanes(s.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (s *excelSheet) AutoFilter(lastRow, lastCol int) error {
	end, err := excelize.CoordinatesToCellName(lastCol, lastRow)
	if err != nil {
		return err
	}
	return s.file.AutoFilter(s.sheet, "A1:"+end, nil)
}

func (s *excelSheet) SetViewHints(hints ViewHints) error {
	zoom := float64(hints.ZoomScale)
	if err := s.file.SetSheetView(s.sheet, 0, &excelize.ViewOptions{
		ZoomScale: &zoom,
	}); err != nil {
		return err
	}

	fitWidth := hints.FitToWidth
	fitHeight := hints.FitToHeight
	return s.file.SetPageLayout(s.sheet, &excelize.PageLayoutOptions{
		FitToWidth:  &fitWidth,
		FitToHeight: &fitHeight,
	})
}
