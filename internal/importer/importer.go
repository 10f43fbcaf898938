// Package importer turns uploaded contact tables (CSV or XLSX) into contact rows.
package importer

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/model"
)

// Column headers recognised in contact tables, compared case-insensitively.
const (
	ColName           = "ime"
	ColSurname        = "prezime"
	ColEmail          = "email"
	ColPhonePrimary   = "mobprimarni"
	ColPhoneSecondary = "mobsek"
	ColLinkedInURL    = "linkedinurl"
	ColCountry        = "drzava"
	ColCity           = "grad"
	ColOccupation     = "zanimanje"
	ColIncomeBand     = "godisnjaplata"
)

var columnSetters = map[string]func(*model.ContactRow, string){
	ColName:           func(r *model.ContactRow, v string) { r.Name = v },
	ColSurname:        func(r *model.ContactRow, v string) { r.Surname = v },
	ColEmail:          func(r *model.ContactRow, v string) { r.Email = v },
	ColPhonePrimary:   func(r *model.ContactRow, v string) { r.PhonePrimary = v },
	ColPhoneSecondary: func(r *model.ContactRow, v string) { r.PhoneSecondary = v },
	ColLinkedInURL:    func(r *model.ContactRow, v string) { r.LinkedInURL = v },
	ColCountry:        func(r *model.ContactRow, v string) { r.Country = v },
	ColCity:           func(r *model.ContactRow, v string) { r.City = v },
	ColOccupation:     func(r *model.ContactRow, v string) { r.Occupation = v },
	ColIncomeBand:     func(r *model.ContactRow, v string) { r.IncomeBand = v },
}

var errNoIdentityColumn = errors.New("header has neither an email nor a mobprimarni column")

const utf8BOM = "\ufeff"

// Parse dispatches on the file extension.
func Parse(filename string, r io.Reader) ([]model.ContactRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return ParseCSV(r)
	case ".xlsx":
		return ParseXLSX(r)
	default:
		return nil, apperrors.InvalidInput("file", "unsupported file type, expected .csv or .xlsx")
	}
}

// normalizeHeader lower-cases and trims a header cell, dropping a leading BOM.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, utf8BOM)))
}

// buildRows maps a header row plus data records into contact rows. lines[i]
// is the source line of records[i]. Blank records, including ones made only
// of separators, are skipped and do not count toward the total.
func buildRows(header []string, records [][]string, lines []int) ([]model.ContactRow, error) {
	setters := make([]func(*model.ContactRow, string), len(header))
	hasIdentity := false
	for i, h := range header {
		name := normalizeHeader(h)
		setters[i] = columnSetters[name]
		if name == ColEmail || name == ColPhonePrimary {
			hasIdentity = true
		}
	}
	if !hasIdentity {
		return nil, errNoIdentityColumn
	}

	rows := make([]model.ContactRow, 0, len(records))
	for i, record := range records {
		if isBlank(record) {
			continue
		}
		row := model.ContactRow{Line: lines[i]}
		for col, value := range record {
			if col < len(setters) && setters[col] != nil {
				setters[col](&row, strings.TrimSpace(value))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
