package collector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"FVGBacktest/internal/model"
)

const histDataLayout = "20060102 150405"

// HistDataSource reads raw HistData minute exports:
// "YYYYMMDD HHMMSS;open;high;low;close;volume" with no header. Times are UTC
// and are converted to the wall clock of Location.
type HistDataSource struct {
	Path     string
	Location *time.Location
}

func (s *HistDataSource) Name() string { return "histdata:" + s.Path }

func (s *HistDataSource) Load(ctx context.Context) ([]model.Bar, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()
	return ReadHistData(ctx, f, s.Location)
}

// ReadHistData parses a HistData export from r.
func ReadHistData(ctx context.Context, r io.Reader, loc *time.Location) ([]model.Bar, error) {
	sc := bufio.NewScanner(r)
	var bars []model.Bar
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if line%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		fields := strings.Split(text, ";")
		if len(fields) < 5 {
			return nil, fmt.Errorf("histdata line %d: expected at least 5 fields (time;open;high;low;close[;volume]), got %d", line, len(fields))
		}
		ts, err := time.ParseInLocation(histDataLayout, fields[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("histdata line %d: %w", line, err)
		}
		var v [4]float64
		for i := 0; i < 4; i++ {
			if v[i], err = strconv.ParseFloat(fields[i+1], 64); err != nil {
				return nil, fmt.Errorf("histdata line %d: %w", line, err)
			}
		}
		bars = append(bars, model.Bar{Time: naive(ts, loc), Open: v[0], High: v[1], Low: v[2], Close: v[3]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read histdata: %w", err)
	}
	return bars, nil
}
