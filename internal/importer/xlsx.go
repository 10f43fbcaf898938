package importer

import (
	"errors"
	"io"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/model"
)

// ParseXLSX reads the contact table from the first sheet of a workbook.
func ParseXLSX(r io.Reader) ([]model.ContactRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.ParseError("XLSX file", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, apperrors.ParseError("XLSX file", errors.New("workbook has no sheets"))
	}

	records, err := f.GetRows(sheetName)
	if err != nil {
		return nil, apperrors.ParseError("XLSX file", err)
	}
	if len(records) == 0 {
		return []model.ContactRow{}, nil
	}

	// GetRows keeps empty rows in place, so the sheet row is the index plus one.
	lines := make([]int, len(records)-1)
	for i := range lines {
		lines[i] = i + 2
	}

	rows, err := buildRows(records[0], records[1:], lines)
	if err != nil {
		return nil, apperrors.ParseError("XLSX file", err)
	}
	return rows, nil
}
