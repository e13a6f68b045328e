package model

import "time"

// SameBarPolicy decides which exit wins when stop and target are both touched in one bar.
type SameBarPolicy int

const (
	StopFirst SameBarPolicy = iota
	TargetFirst
)

func (p SameBarPolicy) String() string {
	if p == TargetFirst {
		return "target_first"
	}
	return "stop_first"
}

// Session holds session clock offsets from midnight.
type Session struct {
	Start        time.Duration
	EntryCutoff  time.Duration // no new setups after this time
	ForcedExit   time.Duration // pending orders expire and open trades close here
	RangeMinutes int
}

// RangeEnd returns the last time of day included in the opening range window.
func (s Session) RangeEnd() time.Duration {
	return s.Start + time.Duration(s.RangeMinutes-1)*time.Minute
}

// Params is the immutable engine configuration passed into the core.
type Params struct {
	Spread         float64
	CommissionR    float64
	SlippagePoints float64

	Session    Session
	ATRPeriod  int
	EMAPeriod  int
	MinDayBars int

	ExtremeRangeMult   float64
	MinGapATR          float64
	BreakevenTriggerR  float64
	BreakevenOffset    float64
	MinRiskSpreadRatio float64
	SameBarPolicy      SameBarPolicy
}

// DefaultParams returns the reference market and rule constants.
func DefaultParams() Params {
	return Params{
		Spread:         0.20,
		CommissionR:    0.05,
		SlippagePoints: 0.50,
		Session: Session{
			Start:        9*time.Hour + 30*time.Minute,
			EntryCutoff:  11 * time.Hour,
			ForcedExit:   13 * time.Hour,
			RangeMinutes: 5,
		},
		ATRPeriod:          14,
		EMAPeriod:          50,
		MinDayBars:         31,
		ExtremeRangeMult:   5,
		MinGapATR:          0.1,
		BreakevenTriggerR:  1.5,
		BreakevenOffset:    0.20,
		MinRiskSpreadRatio: 2,
		SameBarPolicy:      StopFirst,
	}
}

// Contract describes how a price distance maps to money for lot sizing.
type Contract struct {
	TickSize   float64
	TickValue  float64
	VolumeStep float64
	VolumeMin  float64
	VolumeMax  float64
}
