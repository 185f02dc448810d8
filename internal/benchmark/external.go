package benchmark

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ExternalResult is one externally measured operation, already converted to
// the report's units.
type ExternalResult struct {
	Seconds float64
	USSMb   float64
	RSSMb   float64
}

// operationTokens maps the operation spellings found in external result
// files to operation identifiers. Canonical operation names pass through
// unmapped.
var operationTokens = map[string]Operation{
	"1hour":           OperationInsert1Hour,
	"5min_result.csv": OperationInsert5Min,
}

// LoadExternalResults reads precomputed result files. Each file is a csv
// with an Operation column plus Time (ms), USS (KB) and RSS (KB) columns;
// extra columns are ignored and short rows leave the missing values at zero.
// On key collision rows from later files win.
func LoadExternalResults(paths []string) (map[Operation]ExternalResult, error) {
	results := map[Operation]ExternalResult{}
	for _, path := range paths {
		if err := loadExternalFile(path, results); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func loadExternalFile(path string, results map[Operation]ExternalResult) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening external results %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// Data rows are allowed to be shorter than the header.
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return errors.Wrapf(err, "reading external results %s", path)
	}
	if len(rows) == 0 {
		return nil
	}

	header := map[string]int{}
	for i, name := range rows[0] {
		header[strings.TrimSpace(name)] = i
	}
	opIdx, ok := header["Operation"]
	if !ok {
		return errors.Errorf("external results %s has no Operation column", path)
	}

	for _, row := range rows[1:] {
		if opIdx >= len(row) || strings.TrimSpace(row[opIdx]) == "" {
			continue
		}
		token := strings.TrimSpace(row[opIdx])
		op, ok := operationTokens[token]
		if !ok {
			op = Operation(token)
		}
		timeMs, err := numericCell(row, header, "Time (ms)", path)
		if err != nil {
			return err
		}
		ussKb, err := numericCell(row, header, "USS (KB)", path)
		if err != nil {
			return err
		}
		rssKb, err := numericCell(row, header, "RSS (KB)", path)
		if err != nil {
			return err
		}
		results[op] = ExternalResult{
			Seconds: timeMs / 1000,
			USSMb:   ussKb / 1024,
			RSSMb:   rssKb / 1024,
		}
	}
	return nil
}

func numericCell(row []string, header map[string]int, column string, path string) (float64, error) {
	idx, ok := header[column]
	if !ok || idx >= len(row) {
		return 0, nil
	}
	cell := strings.TrimSpace(row[idx])
	if cell == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s in external results %s", column, path)
	}
	return value, nil
}
