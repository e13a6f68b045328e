package equity

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"FVGBacktest/internal/model"
)

var (
	ErrInvalidContract = errors.New("invalid contract specification")
	ErrInvalidRisk     = errors.New("risk amount and stop distance must be positive")
)

// LotSize sizes a position so that a stop-out at distance loses riskMoney:
// volume = risk / ((distance / tickSize) * tickValue), rounded to the volume
// step and clamped to the contract's volume limits.
func LotSize(riskMoney, distance float64, c model.Contract) (float64, error) {
	if c.TickSize <= 0 || c.TickValue <= 0 {
		return 0, fmt.Errorf("%w: tick size %v, tick value %v", ErrInvalidContract, c.TickSize, c.TickValue)
	}
	if riskMoney <= 0 || distance <= 0 {
		return 0, ErrInvalidRisk
	}

	ticks := decimal.NewFromFloat(distance).Div(decimal.NewFromFloat(c.TickSize))
	perLot := ticks.Mul(decimal.NewFromFloat(c.TickValue))
	vol := decimal.NewFromFloat(riskMoney).Div(perLot)

	if c.VolumeStep > 0 {
		step := decimal.NewFromFloat(c.VolumeStep)
		vol = vol.Div(step).Round(0).Mul(step)
	}
	if c.VolumeMin > 0 {
		vol = decimal.Max(vol, decimal.NewFromFloat(c.VolumeMin))
	}
	if c.VolumeMax > 0 {
		vol = decimal.Min(vol, decimal.NewFromFloat(c.VolumeMax))
	}
	f, _ := vol.Float64()
	return f, nil
}

// RiskAmount returns the money at risk for one trade, rounded to cents.
func RiskAmount(balance, fraction float64) float64 {
	f, _ := decimal.NewFromFloat(balance).Mul(decimal.NewFromFloat(fraction)).Round(2).Float64()
	return f
}
