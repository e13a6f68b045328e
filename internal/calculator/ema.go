package calculator

import (
	"errors"

	"FVGBacktest/internal/model"
)

// CalculateEMA computes the exponential moving average of values with the given span,
// seeded with the first value (alpha = 2/(span+1), no bias adjustment).
func CalculateEMA(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, errors.New("span must be positive")
	}
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, nil
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		oldWt := 1 - alpha
		out[i] = (oldWt*out[i-1] + alpha*values[i]) / (oldWt + alpha)
	}
	return out, nil
}

// Apply returns a copy of bars with ATR and EMA filled in.
// The input slice is left untouched.
func Apply(bars []model.Bar, atrPeriod, emaPeriod int) ([]model.Bar, error) {
	atr, err := CalculateATR(bars, atrPeriod)
	if err != nil {
		return nil, err
	}
	ema, err := CalculateEMA(extractCloses(bars), emaPeriod)
	if err != nil {
		return nil, err
	}
	out := make([]model.Bar, len(bars))
	copy(out, bars)
	for i := range out {
		out[i].ATR = atr[i]
		out[i].EMA = ema[i]
	}
	return out, nil
}

func extractCloses(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
