package equity

import (
	"math"

	"FVGBacktest/internal/model"
)

// profitFactorCap stands in for an infinite profit factor when nothing lost.
const profitFactorCap = 999

// Project compounds fixed-fractional risk over the ordered r-multiples:
// each trade risks fraction × current balance. Curve[0] is the initial capital.
// Zero trades yields a flat one-point curve with Summary.NoTrades set.
func Project(capital, fraction float64, rs []float64) model.Projection {
	curve := make([]model.EquityPoint, 0, len(rs)+1)
	curve = append(curve, model.EquityPoint{Trade: 0, Balance: capital})

	s := model.Summary{InitialCapital: capital, Trades: len(rs)}
	balance := capital
	peak := capital
	var gains, losses float64
	for i, r := range rs {
		risk := balance * fraction
		pnl := risk * r
		balance += pnl
		curve = append(curve, model.EquityPoint{Trade: i + 1, Risk: risk, PnL: pnl, Balance: balance})

		s.TotalR += r
		switch {
		case r > 0:
			s.Wins++
			gains += r
		case r < 0:
			s.Losses++
			losses -= r
		}
		if balance > peak {
			peak = balance
		}
		if peak > 0 {
			s.MaxDrawdown = math.Max(s.MaxDrawdown, (peak-balance)/peak)
		}
	}

	s.FinalBalance = balance
	s.NetProfit = balance - capital
	if capital != 0 {
		s.Return = s.NetProfit / capital
	}
	if len(rs) == 0 {
		s.NoTrades = true
		return model.Projection{Curve: curve, Summary: s}
	}
	s.WinRate = float64(s.Wins) / float64(len(rs))
	s.AvgR = s.TotalR / float64(len(rs))
	switch {
	case losses > 0:
		s.ProfitFactor = math.Min(gains/losses, profitFactorCap)
	case gains > 0:
		s.ProfitFactor = profitFactorCap
	}
	return model.Projection{Curve: curve, Summary: s}
}

// Balances extracts the balance sequence of a curve.
func Balances(curve []model.EquityPoint) []float64 {
	out := make([]float64, len(curve))
	for i, p := range curve {
		out[i] = p.Balance
	}
	return out
}
