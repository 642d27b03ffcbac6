// Package transform turns catalogued raw CSV exports into the clean parquet layer.
package transform

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Source column names in the ERP export.
const (
	ColOrderID    = "IDCOMMESSA"
	ColOrderValue = "VALORE_ORDINE_RAW"
	ColQuoteTotal = "TOTALE_PREVENTIVO_COMMERCIALE_RAW"
)

// Row is one cleaned order line as written to parquet.
type Row struct {
	OrderID       string   `parquet:"name=IDCOMMESSA, type=BYTE_ARRAY, convertedtype=UTF8"`
	OrderValue    float64  `parquet:"name=VALORE_ORDINE, type=DOUBLE"`
	QuoteTotal    *float64 `parquet:"name=TOTALE_PREVENTIVO_COMMERCIALE, type=DOUBLE, repetitiontype=OPTIONAL"`
	ClientIDFK    string   `parquet:"name=client_id_fk, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProcessedDate string   `parquet:"name=processed_date, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// CleanOptions controls how one CSV export is cleaned.
type CleanOptions struct {
	ClientID      string
	ProcessedDate string // YYYY-MM-DD
	SkipRows      int    // junk rows directly after the header
}

// Stats counts what happened to the input rows.
type Stats struct {
	Read    int
	Skipped int
	Dropped int
	Written int
}

func (s *Stats) add(o Stats) {
	s.Read += o.Read
	s.Skipped += o.Skipped
	s.Dropped += o.Dropped
	s.Written += o.Written
}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Clean reads a ';'-separated export and returns the rows whose order value is positive.
// Decimal commas are converted to points; a value that still does not parse
// counts as invalid and drops the row.
func Clean(r io.Reader, opts CleanOptions) ([]Row, Stats, error) {
	var stats Stats

	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, stats, nil
	}
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)

	idIdx, ok := cols[ColOrderID]
	if !ok {
		return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, ColOrderID)
	}
	valueIdx, ok := cols[ColOrderValue]
	if !ok {
		return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, ColOrderValue)
	}
	quoteIdx, hasQuote := cols[ColQuoteTotal]

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, stats, fmt.Errorf("read row %d: %w", stats.Read+1, err)
		}
		stats.Read++
		if stats.Read <= opts.SkipRows {
			stats.Skipped++
			continue
		}

		value, ok := ParseAmount(field(rec, valueIdx))
		if !ok || value <= 0 {
			stats.Dropped++
			continue
		}

		row := Row{
			OrderID:       field(rec, idIdx),
			OrderValue:    value,
			ClientIDFK:    opts.ClientID,
			ProcessedDate: opts.ProcessedDate,
		}
		if hasQuote {
			if q, ok := ParseAmount(field(rec, quoteIdx)); ok {
				row.QuoteTotal = &q
			}
		}
		rows = append(rows, row)
		stats.Written++
	}
	return rows, stats, nil
}

// ParseAmount parses a decimal-comma amount such as "1234,50".
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[strings.TrimSpace(h)] = i
	}
	return cols
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}
