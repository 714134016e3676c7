package audit

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is Excel's limit on sheet names.
const maxSheetName = 31

// SheetWriter writes tabular data sheet by sheet.
type SheetWriter interface {
	AddSheet(name string) error
	WriteHeader(columns []string) error
	WriteRow(row []interface{}) error
	Save(w io.Writer) error
	Close() error
}

// ExcelizeWriter implements SheetWriter using excelize.
type ExcelizeWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
	widths       map[int]int
}

func NewExcelizeWriter() SheetWriter {
	return &ExcelizeWriter{file: excelize.NewFile()}
}

func (w *ExcelizeWriter) AddSheet(name string) error {
	if err := w.finishSheet(); err != nil {
		return err
	}
	for utf8.RuneCountInString(name) > maxSheetName {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}

	// The workbook starts with Sheet1; the first sheet reuses it.
	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.currentSheet = name
	w.currentRow = 1
	w.widths = make(map[int]int)
	return nil
}

func (w *ExcelizeWriter) WriteHeader(columns []string) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	row := make([]interface{}, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.writeCells(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		start, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		end, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow)
		_ = w.file.SetCellStyle(w.currentSheet, start, end, style)
	}
	_ = w.file.SetPanes(w.currentSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	})

	w.currentRow++
	return nil
}

func (w *ExcelizeWriter) WriteRow(row []interface{}) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	if err := w.writeCells(row); err != nil {
		return err
	}
	w.currentRow++
	return nil
}

func (w *ExcelizeWriter) writeCells(row []interface{}) error {
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
		if n := utf8.RuneCountInString(fmt.Sprint(val)); n > w.widths[i+1] {
			w.widths[i+1] = n
		}
	}
	return nil
}

// finishSheet sizes the columns of the current sheet to their content.
func (w *ExcelizeWriter) finishSheet() error {
	if w.currentSheet == "" {
		return nil
	}
	for col, n := range w.widths {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		width := float64(n) + 2
		if width > 60 {
			width = 60
		}
		if err := w.file.SetColWidth(w.currentSheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

func (w *ExcelizeWriter) Save(wr io.Writer) error {
	if err := w.finishSheet(); err != nil {
		return err
	}
	return w.file.Write(wr)
}

func (w *ExcelizeWriter) Close() error {
	return w.file.Close()
}
