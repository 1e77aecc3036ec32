package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Record is one CSV data row with its 1-based line number in the source.
type Record struct {
	Line   int
	Fields []string
}

// CSVImporter reads tabular uploads. The first row is treated as a header and
// skipped; blank rows are ignored.
type CSVImporter struct {
	MinColumns int
	MaxRows    int
}

// NewCSVImporter builds an importer requiring at least minColumns per row.
func NewCSVImporter(minColumns, maxRows int) *CSVImporter {
	return &CSVImporter{MinColumns: minColumns, MaxRows: maxRows}
}

// Read parses every data row from r.
func (i *CSVImporter) Read(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records := make([]Record, 0)
	header := true
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if header {
			header = false
			continue
		}
		if isBlank(fields) {
			continue
		}
		if len(fields) < i.MinColumns {
			return nil, fmt.Errorf("line %d: expected at least %d columns, got %d", line, i.MinColumns, len(fields))
		}
		if i.MaxRows > 0 && len(records) >= i.MaxRows {
			return nil, fmt.Errorf("csv exceeds %d rows", i.MaxRows)
		}
		records = append(records, Record{Line: line, Fields: fields})
	}
	return records, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
