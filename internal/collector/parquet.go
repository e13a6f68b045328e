package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"FVGBacktest/internal/model"
)

// ParquetBar is the on-disk row layout shared with the crawler exports.
type ParquetBar struct {
	Timestamp int64   `parquet:"t"` // Unix milliseconds, UTC
	Open      float64 `parquet:"o"`
	High      float64 `parquet:"h"`
	Low       float64 `parquet:"l"`
	Close     float64 `parquet:"c"`
	Volume    int64   `parquet:"v"`
}

// ParquetSource reads a Parquet bar file and converts times to the wall
// clock of Location.
type ParquetSource struct {
	Path     string
	Location *time.Location
}

func (s *ParquetSource) Name() string { return "parquet:" + s.Path }

func (s *ParquetSource) Load(ctx context.Context) ([]model.Bar, error) {
	rows, err := parquet.ReadFile[ParquetBar](s.Path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", s.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bars := make([]model.Bar, len(rows))
	for i, r := range rows {
		bars[i] = model.Bar{
			Time:  naive(time.UnixMilli(r.Timestamp), s.Location),
			Open:  r.Open,
			High:  r.High,
			Low:   r.Low,
			Close: r.Close,
		}
	}
	return bars, nil
}

// WriteParquet stores bars whose times are wall clock in loc.
func WriteParquet(path string, bars []model.Bar, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([]ParquetBar, len(bars))
	for i, b := range bars {
		t := time.Date(b.Time.Year(), b.Time.Month(), b.Time.Day(), b.Time.Hour(), b.Time.Minute(), b.Time.Second(), 0, loc)
		rows[i] = ParquetBar{Timestamp: t.UnixMilli(), Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
	}
	return parquet.WriteFile(path, rows)
}
