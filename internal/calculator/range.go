package calculator

import (
	"errors"
	"math"

	"FVGBacktest/internal/model"
)

var (
	// ErrEmptyWindow means no bar falls inside the opening range window.
	ErrEmptyWindow = errors.New("no bars in opening range window")
	// ErrNoBarsAfterWindow means the day ends inside the opening range window.
	ErrNoBarsAfterWindow = errors.New("no bars after opening range window")
)

// CalculateOpeningRange scans the bars whose time of day lies in
// [session.Start, session.RangeEnd()] and returns their high/low, the ATR of the
// last bar in the window, and the index of the first bar strictly after it.
func CalculateOpeningRange(bars []model.Bar, session model.Session) (model.OpeningRange, int, error) {
	start, end := session.Start, session.RangeEnd()
	high := math.Inf(-1)
	low := math.Inf(1)
	atr := math.NaN()
	found := false
	next := -1
	for i, b := range bars {
		tod := model.TimeOfDay(b.Time)
		if tod > end {
			if next < 0 {
				next = i
			}
			continue
		}
		if tod < start {
			continue
		}
		found = true
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
		atr = b.ATR
	}
	if !found {
		return model.OpeningRange{}, -1, ErrEmptyWindow
	}
	r := model.OpeningRange{High: high, Low: low, ATRAtCapture: atr}
	if next < 0 {
		return r, -1, ErrNoBarsAfterWindow
	}
	return r, next, nil
}
