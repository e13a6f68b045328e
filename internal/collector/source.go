package collector

import (
	"context"
	"errors"
	"time"

	"FVGBacktest/internal/model"
)

// ErrNoBars is returned when a source yields nothing usable.
var ErrNoBars = errors.New("no bars loaded")

// Source loads a minute bar series for one instrument. Bar times are naive
// session wall-clock times carried in time.UTC.
type Source interface {
	Load(ctx context.Context) ([]model.Bar, error)
	Name() string
}

// MockSource returns fixed bars for development and testing.
type MockSource struct {
	Bars []model.Bar
	Err  error
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Load(_ context.Context) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Bar, len(m.Bars))
	copy(out, m.Bars)
	return out, nil
}

// naive keeps the wall clock of t in loc and drops the zone.
func naive(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
