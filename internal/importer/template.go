package importer

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// BuildTemplate generates a blank workbook carrying the canonical
// header row for the given field catalog, ready to be filled in and
// re-imported.
func BuildTemplate(fields []FieldSpec) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, field := range fields {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("building template header: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, field.Label); err != nil {
			return nil, fmt.Errorf("building template header: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}
	return buf.Bytes(), nil
}
