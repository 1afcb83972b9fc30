// Package scores loads the life-level dataset and answers score lookups by
// postal-code prefix (PC4).
package scores

import (
	"context"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fundascout/fundascout/internal/fetcher"
	"github.com/fundascout/fundascout/pkg/maps"
)

// ErrScoreNotFound is returned by Score when a resolved postal code has no
// entry in the dataset. Distinct from the ZipNotFound sentinel, which is a
// geocoding miss and scores 0.
var ErrScoreNotFound = eris.New("scores: no score for postal prefix")

// Table maps 4-digit postal prefixes to the life-level score of the latest
// year in the dataset. Built once at startup, read-only afterwards.
type Table struct {
	scores     map[int]float64
	latestYear int
}

// row is one parsed dataset record.
type row struct {
	year   int
	prefix int
	score  float64
}

// Load reads the dataset (CSV columns jaar, PC4, afw; header required) and
// keeps only rows of the latest year across the whole file. Duplicate
// prefixes within that year are last-write-wins.
func Load(ctx context.Context, r io.Reader) (*Table, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var rows []row
	var rowErr error
	latestYear := 0
	for record := range rowCh {
		if rowErr != nil {
			continue // keep draining so the stream goroutine can exit
		}
		parsed, err := parseRow(record)
		if err != nil {
			rowErr = err
			continue
		}
		if parsed.year > latestYear {
			latestYear = parsed.year
		}
		rows = append(rows, parsed)
	}
	if rowErr != nil {
		return nil, rowErr
	}
	for err := range errCh {
		if err != nil {
			return nil, eris.Wrap(err, "scores: read dataset")
		}
	}

	if err := checkHeader(headerCh); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, eris.New("scores: dataset is empty")
	}

	table := &Table{scores: make(map[int]float64), latestYear: latestYear}
	for _, parsed := range rows {
		if parsed.year == latestYear {
			table.scores[parsed.prefix] = parsed.score
		}
	}

	zap.L().Debug("score table loaded",
		zap.Int("year", latestYear),
		zap.Int("prefixes", len(table.scores)),
	)
	return table, nil
}

// LoadFile opens path and loads the table from it.
func LoadFile(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "scores: open dataset")
	}
	defer f.Close() //nolint:errcheck
	return Load(ctx, f)
}

// Score returns the life-level score for a postal code. The geocoding miss
// sentinel scores 0 without a prefix parse. A postal code whose 4-digit
// prefix is absent from the dataset returns ErrScoreNotFound: that is a data
// gap, and the caller decides whether to default or abort.
func (t *Table) Score(zipCode string) (float64, error) {
	if zipCode == maps.ZipNotFound {
		return 0, nil
	}
	if len(zipCode) < 4 {
		return 0, eris.Errorf("scores: postal code %q too short for a PC4 prefix", zipCode)
	}
	prefix, err := strconv.Atoi(zipCode[:4])
	if err != nil {
		return 0, eris.Wrapf(err, "scores: parse postal prefix of %q", zipCode)
	}
	score, ok := t.scores[prefix]
	if !ok {
		return 0, eris.Wrapf(ErrScoreNotFound, "prefix %d", prefix)
	}
	return score, nil
}

// Year reports the dataset year the table was built from.
func (t *Table) Year() int {
	return t.latestYear
}

// Len reports the number of prefixes in the table.
func (t *Table) Len() int {
	return len(t.scores)
}

func parseRow(record []string) (row, error) {
	if len(record) < 3 {
		return row{}, eris.Errorf("scores: dataset row has %d columns, want 3", len(record))
	}
	year, err := strconv.Atoi(record[0])
	if err != nil {
		return row{}, eris.Wrapf(err, "scores: parse year %q", record[0])
	}
	prefix, err := strconv.Atoi(record[1])
	if err != nil {
		return row{}, eris.Wrapf(err, "scores: parse PC4 %q", record[1])
	}
	score, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return row{}, eris.Wrapf(err, "scores: parse score %q", record[2])
	}
	return row{year: year, prefix: prefix, score: score}, nil
}

// checkHeader validates the header row names the expected columns in the
// expected order. The Leefbaarometer export is stable, so a mismatch means
// the wrong file was bundled.
func checkHeader(headerCh chan []string) error {
	select {
	case header := <-headerCh:
		if len(header) < 3 || header[0] != "jaar" || header[1] != "PC4" || header[2] != "afw" {
			return eris.Errorf("scores: unexpected dataset header %v, want [jaar PC4 afw]", header)
		}
		return nil
	default:
		return eris.New("scores: dataset has no header row")
	}
}
