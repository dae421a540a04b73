package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type FileKind string

const (
	KindSpreadsheet FileKind = "spreadsheet"
	KindCSV         FileKind = "csv"
)

// KindForFilename maps an upload's extension to a file kind. The second
// return is false for extensions outside the allow-list.
func KindForFilename(name string) (FileKind, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return KindSpreadsheet, true
	case ".csv":
		return KindCSV, true
	default:
		return "", false
	}
}

// Sheet describes one sheet of an uploaded workbook.
type Sheet struct {
	Name     string   `json:"name"`
	RowCount int      `json:"row_count"`
	Headers  []string `json:"headers"`
	HasData  bool     `json:"has_data"`
}

// Row is one raw data row with its 1-based spreadsheet row number.
type Row struct {
	Number int
	Cells  []string
}

// Workbook is a fully parsed upload. The whole file is read into memory
// up front; uploads are size-capped at the intake layer.
type Workbook struct {
	sheets []Sheet
	rows   map[string][][]string
}

// csvSheetName is the implicit sheet a CSV upload surfaces as.
const csvSheetName = "Sheet1"

// OpenWorkbook parses an uploaded buffer in its declared format and
// returns the workbook, or ErrUnreadableFile when the buffer cannot be
// parsed as that format.
func OpenWorkbook(data []byte, kind FileKind) (*Workbook, error) {
	switch kind {
	case KindSpreadsheet:
		return openSpreadsheet(data)
	case KindCSV:
		return openCSV(data)
	default:
		return nil, fmt.Errorf("%w: unknown file kind %q", ErrUnreadableFile, kind)
	}
}

func openSpreadsheet(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer func() { _ = f.Close() }()

	wb := &Workbook{rows: make(map[string][][]string)}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: reading sheet %q: %v", ErrUnreadableFile, name, err)
		}
		wb.addSheet(name, rows)
	}
	if len(wb.sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableFile)
	}
	return wb, nil
}

func openCSV(data []byte) (*Workbook, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows are padded later

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	// CSV input is a single implicit sheet.
	wb := &Workbook{rows: make(map[string][][]string)}
	wb.addSheet(csvSheetName, records)
	return wb, nil
}

func (wb *Workbook) addSheet(name string, rows [][]string) {
	headerIdx := -1
	for i, row := range rows {
		if !rowEmpty(row) {
			headerIdx = i
			break
		}
	}

	sheet := Sheet{Name: name, RowCount: len(rows)}
	if headerIdx >= 0 {
		headers := make([]string, len(rows[headerIdx]))
		for i, h := range rows[headerIdx] {
			headers[i] = strings.TrimSpace(h)
		}
		sheet.Headers = headers
		for _, row := range rows[headerIdx+1:] {
			if !rowEmpty(row) {
				sheet.HasData = true
				break
			}
		}
	}

	wb.sheets = append(wb.sheets, sheet)
	wb.rows[name] = rows
}

// Sheets lists the workbook's sheets in file order.
func (wb *Workbook) Sheets() []Sheet {
	return wb.sheets
}

// Headers returns the header row of a named sheet.
func (wb *Workbook) Headers(name string) ([]string, error) {
	for _, s := range wb.sheets {
		if s.Name == name {
			return s.Headers, nil
		}
	}
	return nil, fmt.Errorf("sheet %q not found", name)
}

// DataRows returns the non-empty rows after the header of a named
// sheet, each tagged with its 1-based spreadsheet row number.
func (wb *Workbook) DataRows(name string) ([]Row, error) {
	rows, ok := wb.rows[name]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", name)
	}

	headerIdx := -1
	for i, row := range rows {
		if !rowEmpty(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, nil
	}

	var out []Row
	for i := headerIdx + 1; i < len(rows); i++ {
		if rowEmpty(rows[i]) {
			continue
		}
		out = append(out, Row{Number: i + 1, Cells: rows[i]})
	}
	return out, nil
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
