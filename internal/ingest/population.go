package ingest

import (
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/arogyamap/access-cli/internal/fetcher"
	"github.com/arogyamap/access-cli/internal/model"
)

// PopulationOptions selects the district and population columns of a census
// table. Column indexes are zero-based and apply after SkipRows header rows
// are discarded.
type PopulationOptions struct {
	DistrictCol   int
	PopulationCol int
	SkipRows      int
	SheetName     string
	Delimiter     rune
}

// ReadPopulationCSV parses district population counts from a delimited file.
// Rows with a blank district or an unparsable count are skipped with a
// warning rather than failing the load.
func ReadPopulationCSV(path string, opts PopulationOptions) ([]model.PopulationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open population file %s", path)
	}
	defer f.Close()

	rows, err := fetcher.ReadCSV(f, fetcher.CSVOptions{
		Delimiter: opts.Delimiter,
		SkipRows:  opts.SkipRows,
		TrimSpace: true,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read population file %s", path)
	}
	return populationFromRows(rows, opts), nil
}

// ReadPopulationXLSX parses district population counts from a workbook, the
// format census abstracts ship in.
func ReadPopulationXLSX(path string, opts PopulationOptions) ([]model.PopulationRecord, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{
		SheetName: opts.SheetName,
		SkipRows:  opts.SkipRows,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read population workbook %s", path)
	}
	return populationFromRows(rows, opts), nil
}

func populationFromRows(rows [][]string, opts PopulationOptions) []model.PopulationRecord {
	maxCol := opts.DistrictCol
	if opts.PopulationCol > maxCol {
		maxCol = opts.PopulationCol
	}

	records := make([]model.PopulationRecord, 0, len(rows))
	var skipped int
	for i, row := range rows {
		if len(row) <= maxCol {
			skipped++
			continue
		}
		district := strings.TrimSpace(row[opts.DistrictCol])
		if district == "" {
			skipped++
			continue
		}
		pop, err := parsePopulation(row[opts.PopulationCol])
		if err != nil {
			skipped++
			zap.L().Warn("ingest: skipping population row",
				zap.Int("row", i),
				zap.String("district", district),
				zap.String("value", row[opts.PopulationCol]),
			)
			continue
		}
		records = append(records, model.PopulationRecord{District: district, Population: pop})
	}
	if skipped > 0 {
		zap.L().Info("ingest: skipped population rows", zap.Int("skipped", skipped))
	}
	return records
}

// parsePopulation tolerates the thousands separators census exports use.
func parsePopulation(s string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if cleaned == "" {
		return 0, eris.New("ingest: empty population value")
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, eris.Wrap(err, "ingest: parse population value")
	}
	if n < 0 {
		return 0, eris.New("ingest: negative population value")
	}
	return n, nil
}

// PopulationIndex builds a district-keyed lookup, canonicalizing names so
// census spellings match shapefile spellings. Later records for the same
// canonical district win.
func PopulationIndex(records []model.PopulationRecord, canon *Canonicalizer) map[string]*model.PopulationRecord {
	idx := make(map[string]*model.PopulationRecord, len(records))
	for i := range records {
		idx[canon.Key(records[i].District)] = &records[i]
	}
	return idx
}
