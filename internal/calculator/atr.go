package calculator

import (
	"errors"
	"math"

	"FVGBacktest/internal/model"
)

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per bar.
// The first bar has no previous close and is NaN.
func TrueRange(bars []model.Bar) []float64 {
	tr := make([]float64, len(bars))
	for i := range bars {
		if i == 0 {
			tr[i] = math.NaN()
			continue
		}
		prev := bars[i-1].Close
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - prev)
		lc := math.Abs(bars[i].Low - prev)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// CalculateATR smooths the true range exponentially with alpha = 1/period.
// Weights are bias-adjusted over the observations seen so far and the value
// stays NaN until `period` true ranges have been observed.
func CalculateATR(bars []model.Bar, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	return adjustedEWM(TrueRange(bars), 1/float64(period), period), nil
}

// adjustedEWM is an exponentially weighted mean with bias adjustment. NaN inputs
// before the first observation are skipped; later ones decay the weights.
func adjustedEWM(x []float64, alpha float64, minObs int) []float64 {
	out := make([]float64, len(x))
	decay := 1 - alpha
	weighted := math.NaN()
	oldWt := 1.0
	nobs := 0
	for i, cur := range x {
		isObs := !math.IsNaN(cur)
		if isObs {
			nobs++
		}
		switch {
		case math.IsNaN(weighted):
			if isObs {
				weighted = cur
				oldWt = 1
			}
		default:
			oldWt *= decay
			if isObs {
				if weighted != cur {
					weighted = (oldWt*weighted + cur) / (oldWt + 1)
				}
				oldWt++
			}
		}
		if nobs >= minObs {
			out[i] = weighted
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
