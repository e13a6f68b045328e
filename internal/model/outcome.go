package model

import "time"

// ExitReason tells how a filled trade was closed.
type ExitReason string

const (
	ExitTarget        ExitReason = "target"
	ExitStop          ExitReason = "stop"
	ExitBreakevenStop ExitReason = "breakeven_stop"
	ExitTime          ExitReason = "time_exit"
	ExitEndOfData     ExitReason = "end_of_data"
)

// TradeOutcome is a closed trade expressed in units of initial risk, net of commission.
type TradeOutcome struct {
	Date       time.Time  `json:"date"`
	Direction  Direction  `json:"direction"`
	SetupIndex int        `json:"setup_index"`
	FillIndex  int        `json:"fill_index"`
	ExitIndex  int        `json:"exit_index"`
	Entry      float64    `json:"entry"`
	Stop       float64    `json:"stop"`
	Target     float64    `json:"target"`
	ExitPrice  float64    `json:"exit_price"`
	Reason     ExitReason `json:"reason"`
	Breakeven  bool       `json:"breakeven"`
	RMultiple  float64    `json:"r_multiple"`
}

// OptimizationResult holds the outcome of one grid point over every Day.
type OptimizationResult struct {
	Config ParameterConfig `json:"config"`
	TotalR float64         `json:"total_r"`
	Trades []TradeOutcome  `json:"trades"`
}

// TradeCount returns the number of trades in the result.
func (r OptimizationResult) TradeCount() int { return len(r.Trades) }

// RMultiples returns the ordered r-multiples of the result's trades.
func (r OptimizationResult) RMultiples() []float64 {
	out := make([]float64, len(r.Trades))
	for i, t := range r.Trades {
		out[i] = t.RMultiple
	}
	return out
}
