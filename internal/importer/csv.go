package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/model"
)

// ParseCSV reads a comma or semicolon separated contact table. The
// delimiter is picked from the header line.
func ParseCSV(r io.Reader) ([]model.ContactRow, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && string(bom) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, apperrors.ParseError("CSV file", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.ContactRow{}, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		records [][]string
		lines   []int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.ParseError("CSV file", err)
		}
		// Quoted fields may span lines and blank lines are skipped, so the
		// reader's position is the only reliable line number.
		line, _ := reader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}
	if len(records) == 0 {
		return []model.ContactRow{}, nil
	}

	rows, err := buildRows(records[0], records[1:], lines[1:])
	if err != nil {
		return nil, apperrors.ParseError("CSV file", err)
	}
	return rows, nil
}

// detectDelimiter counts separators on the first line outside quotes.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	var commas, semicolons int
	inQuotes := false
	for _, c := range line {
		switch c {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				commas++
			}
		case ';':
			if !inQuotes {
				semicolons++
			}
		}
	}
	if semicolons > commas {
		return ';'
	}
	return ','
}
