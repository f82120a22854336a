package fetcher

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter rune // default ','
	SkipRows  int  // header rows to skip
	TrimSpace bool
}

// ReadCSV reads all records from r. Rows may have a variable number of
// fields; the caller validates shape per row.
func ReadCSV(r io.Reader, opts CSVOptions) ([][]string, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1

	var rows [][]string
	for i := 0; ; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: read csv")
		}
		if i < opts.SkipRows {
			continue
		}
		if opts.TrimSpace {
			for j := range record {
				record[j] = strings.TrimSpace(record[j])
			}
		}
		rows = append(rows, record)
	}
}
