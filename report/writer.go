package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	"github.com/xuri/excelize/v2"
)

// Writer consumes report rows. Flush must be called after the last Write.
type Writer interface {
	Write(row []string) error
	Flush() error
}

type tsvWriter struct {
	w *tsv.Writer
}

// NewTSV creates a Writer that emits tab-separated lines to w.
func NewTSV(w io.Writer) Writer {
	return &tsvWriter{w: tsv.NewWriter(w)}
}

func (t *tsvWriter) Write(row []string) error {
	for _, field := range row {
		t.w.WriteString(field)
	}
	return t.w.EndLine()
}

func (t *tsvWriter) Flush() error { return t.w.Flush() }

type csvWriter struct {
	w *csv.Writer
}

// NewCSV creates a Writer that emits comma-separated lines to w.
func NewCSV(w io.Writer) Writer {
	return &csvWriter{w: csv.NewWriter(w)}
}

func (c *csvWriter) Write(row []string) error { return c.w.Write(row) }

func (c *csvWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// XLSX writes rows into one sheet of a spreadsheet, saved to disk by Flush.
// Fields that parse as numbers are stored as numbers.
type XLSX struct {
	f     *excelize.File
	path  string
	sheet string
	row   int
}

// NewXLSX creates a spreadsheet writer that saves to path. The sheet is
// named sheet.
func NewXLSX(path, sheet string) (*XLSX, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, errors.E(err, "xlsx sheet", sheet)
	}
	return &XLSX{f: f, path: path, sheet: sheet}, nil
}

func cellValue(field string) interface{} {
	if v, err := strconv.ParseInt(field, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(field, 64); err == nil {
		return v
	}
	return field
}

// Write implements Writer.
func (x *XLSX) Write(row []string) error {
	x.row++
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(row))
	for i, field := range row {
		values[i] = cellValue(field)
	}
	return x.f.SetSheetRow(x.sheet, cell, &values)
}

// Flush saves the spreadsheet and releases it. Further writes fail.
func (x *XLSX) Flush() error {
	var err errors.Once
	err.Set(x.f.SaveAs(x.path))
	err.Set(x.f.Close())
	if e := err.Err(); e != nil {
		return errors.E(e, "save", x.path)
	}
	return nil
}

type multi []Writer

// Multi returns a Writer that duplicates every row to each of ws.
func Multi(ws ...Writer) Writer { return multi(ws) }

func (m multi) Write(row []string) error {
	for _, w := range m {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Flush() error {
	var err errors.Once
	for _, w := range m {
		err.Set(w.Flush())
	}
	return err.Err()
}
