package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/notedex/internal/doctree"
)

// csvBatchSize is the number of data rows grouped under one section.
const csvBatchSize = 20

// CSVParser handles CSV files such as exported glossaries or flash cards.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := newBuilder(filename)
	if len(records) == 0 {
		return b.document(), nil
	}

	// First row is headers.
	headers := records[0]
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))
		// 1-indexed, skip header
		if err := b.heading(1, fmt.Sprintf("Rows %d-%d", i+2, end+1), i+2); err != nil {
			return nil, err
		}
		for _, row := range dataRows[i:end] {
			var text strings.Builder
			for j, cell := range row {
				if j > 0 {
					text.WriteString(", ")
				}
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
			}
			b.block(doctree.KindListItem, text.String(), 0)
		}
	}

	return b.document(), nil
}
