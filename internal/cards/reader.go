// Package cards implements the rendering pipeline: reading the CSV data
// source into rows, expanding rows into rendered card fragments, and
// composing the fragments into the final HTML document.
package cards

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/cardeck/cardeck/internal/errors"
)

// Row maps field names from the CSV header to the raw string values of one
// record. Rows are built fresh on every render pass and never mutated.
type Row map[string]string

// ReadRows loads the data source at path into an ordered sequence of rows.
// The first record is the header defining field names. The file is decoded
// as UTF-8 with an optional byte-order marker. Records shorter than the
// header pad the missing fields with empty strings.
//
// Rows are re-read on every call; the file may have just changed and must
// never be cached across render passes.
func ReadRows(path string, comma rune) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewReadError("opening data source", err).WithPath(path)
	}
	defer f.Close()

	// utf-8-sig tolerance: the decoder strips a leading BOM if present.
	decoded := transform.NewReader(f, unicode.UTF8BOM.NewDecoder())

	reader := csv.NewReader(decoded)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.NewReadError("reading header row", err).WithPath(path)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewReadError("reading data row", err).WithPath(path)
		}
		if len(record) > len(header) {
			return nil, errors.NewReadError(
				fmt.Sprintf("row has %d fields, header has %d", len(record), len(header)), nil).WithPath(path)
		}

		row := make(Row, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
