package model

import "time"

// Bar represents a single minute candlestick with its derived indicators.
// ATR is NaN until the indicator has warmed up.
type Bar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
	ATR   float64
	EMA   float64
}

// Day is a time-ascending run of bars sharing one calendar date.
type Day struct {
	Date time.Time
	Bars []Bar
}

// TimeOfDay returns the wall-clock offset of t from its own midnight.
func TimeOfDay(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// OpeningRange is the high/low of the first minutes of the session.
type OpeningRange struct {
	High         float64
	Low          float64
	ATRAtCapture float64
}

// Width returns High-Low.
func (r OpeningRange) Width() float64 { return r.High - r.Low }

// Extreme reports whether the range is wider than mult times the ATR at capture.
// An undefined ATR never flags the range as extreme.
func (r OpeningRange) Extreme(mult float64) bool {
	return r.Width() > r.ATRAtCapture*mult
}
