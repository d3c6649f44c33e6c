package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupported = errors.New("unsupported file type")
	ErrNoSheet     = errors.New("sheet does not exist")
)

// Table is an in-memory grid of cell values, addressed 1-based.
type Table struct {
	Path  string
	Sheet string
	rows  [][]string
}

func NewTable(path, sheet string, rows [][]string) *Table {
	return &Table{Path: path, Sheet: sheet, rows: rows}
}

// MaxRow is the index of the last row that exists in the sheet.
func (t *Table) MaxRow() int {
	return len(t.rows)
}

// Cell returns the value at row, col. Cells past the end of an existing
// row are empty; rows outside 1..MaxRow are an error.
func (t *Table) Cell(row, col int) (string, error) {
	if row < 1 || row > len(t.rows) {
		return "", fmt.Errorf("row %d out of range 1..%d", row, len(t.rows))
	}
	if col < 1 {
		return "", fmt.Errorf("column %d out of range", col)
	}
	cells := t.rows[row-1]
	if col > len(cells) {
		return "", nil
	}
	return cells[col-1], nil
}

// Supported reports whether Open can load path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".csv", ".tsv":
		return true
	}
	return false
}

// Open loads one sheet of a workbook. sheetNumber starts at 1; delimited
// text files only have sheet 1.
func Open(path string, sheetNumber int) (*Table, error) {
	if sheetNumber < 1 {
		return nil, fmt.Errorf("%w: sheet numbers start at 1, got %d", ErrNoSheet, sheetNumber)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return openExcel(path, sheetNumber)
	case ".csv", ".tsv":
		if sheetNumber != 1 {
			return nil, fmt.Errorf("%w: %s has a single sheet, got %d", ErrNoSheet, filepath.Base(path), sheetNumber)
		}
		return openDelimited(path, strings.EqualFold(filepath.Ext(path), ".tsv"))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
}

// SheetNames lists the sheets of a workbook in order.
func SheetNames(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		return f.GetSheetList(), nil
	case ".csv", ".tsv":
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		return []string{strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
}

func openExcel(path string, sheetNumber int) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheetNumber > len(sheets) {
		return nil, fmt.Errorf("%w: %s has %d sheet(s), got %d", ErrNoSheet, filepath.Base(path), len(sheets), sheetNumber)
	}
	name := sheets[sheetNumber-1]

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return NewTable(path, name, rows), nil
}

func openDelimited(path string, isTSV bool) (*Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	if isTSV {
		reader.Comma = '\t'
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	// encoding/csv drops empty lines, but a blank line ends an intent block,
	// so each one is put back as an empty row.
	var rows [][]string
	lastLine := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		line, _ := reader.FieldPos(0)
		for i := 0; i < line-lastLine-1; i++ {
			rows = append(rows, []string{})
		}
		rows = append(rows, record)

		end, _ := reader.FieldPos(len(record) - 1)
		lastLine = end + strings.Count(record[len(record)-1], "\n")
	}
	return NewTable(path, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), rows), nil
}
