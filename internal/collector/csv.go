package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"FVGBacktest/internal/model"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
}

// CSVSource reads a cleaned bar file: timestamp,open,high,low,close[,...].
// Without a header row the first five columns are taken positionally.
type CSVSource struct {
	Path string
}

func (s *CSVSource) Name() string { return "csv:" + s.Path }

func (s *CSVSource) Load(ctx context.Context) ([]model.Bar, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()
	return ReadCSV(ctx, f)
}

// ReadCSV parses a cleaned bar file from r. A UTF-8 or UTF-16 byte order mark
// (as written by terminal exports) selects the decoding.
func ReadCSV(ctx context.Context, r io.Reader) ([]model.Bar, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	cols := [5]int{0, 1, 2, 3, 4}
	var bars []model.Bar
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if line == 1 && isHeader(rec) {
			if cols, err = headerColumns(rec); err != nil {
				return nil, err
			}
			continue
		}
		if line%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		b, err := parseRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func isHeader(rec []string) bool {
	for _, f := range rec {
		if strings.EqualFold(strings.TrimSpace(f), "timestamp") {
			return true
		}
	}
	return false
}

func headerColumns(rec []string) ([5]int, error) {
	want := [5]string{"timestamp", "open", "high", "low", "close"}
	var cols [5]int
	for i, name := range want {
		cols[i] = -1
		for j, f := range rec {
			if strings.EqualFold(strings.TrimSpace(f), name) {
				cols[i] = j
				break
			}
		}
		if cols[i] < 0 {
			return cols, fmt.Errorf("csv header missing column %q", name)
		}
	}
	return cols, nil
}

func parseRecord(rec []string, cols [5]int) (model.Bar, error) {
	for _, c := range cols {
		if c >= len(rec) {
			return model.Bar{}, fmt.Errorf("expected at least %d fields, got %d", c+1, len(rec))
		}
	}
	ts, err := parseTimestamp(rec[cols[0]])
	if err != nil {
		return model.Bar{}, err
	}
	var v [4]float64
	for i := 0; i < 4; i++ {
		if v[i], err = strconv.ParseFloat(strings.TrimSpace(rec[cols[i+1]]), 64); err != nil {
			return model.Bar{}, fmt.Errorf("parse price %q: %w", rec[cols[i+1]], err)
		}
	}
	return model.Bar{Time: ts, Open: v[0], High: v[1], Low: v[2], Close: v[3]}, nil
}

// parseTimestamp keeps the written wall clock, whatever offset it carries.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return naive(t, nil), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// WriteCSV writes bars in the cleaned layout read by CSVSource.
func WriteCSV(w io.Writer, bars []model.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "open", "high", "low", "close"}); err != nil {
		return err
	}
	for _, b := range bars {
		rec := []string{
			b.Time.Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
