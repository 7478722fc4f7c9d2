package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadIdentifiers parses a delimited identifier list. Fields may be
// separated by commas or newlines; blank fields and lines starting with '#'
// are skipped. Duplicates are kept, each one is probed.
func ReadIdentifiers(r io.Reader) ([]Identifier, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var ids []Identifier
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read identifiers: %w", err)
		}

		for _, field := range record {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			ids = append(ids, Identifier(field))
		}
	}

	return ids, nil
}
