package strategy

import "FVGBacktest/internal/model"

// trendSide returns the only direction the EMA filter allows on this bar.
// A close sitting exactly on the EMA allows neither.
func trendSide(confirm model.Bar) model.Direction {
	switch {
	case confirm.Close > confirm.EMA:
		return model.Long
	case confirm.Close < confirm.EMA:
		return model.Short
	default:
		return 0
	}
}

// gapSize returns the size of the imbalance between base and confirm in the
// given direction. A non-positive value means the ranges overlap.
func gapSize(dir model.Direction, base, confirm model.Bar) float64 {
	if dir == model.Long {
		return confirm.Low - base.High
	}
	return base.Low - confirm.High
}

// hasGap checks the gap is open and at least minGapATR × ATR wide.
// An undefined ATR never qualifies.
func hasGap(dir model.Direction, base, confirm model.Bar, minGapATR float64) bool {
	g := gapSize(dir, base, confirm)
	return g > 0 && g >= minGapATR*confirm.ATR
}

// breaksOut reports whether the confirm close is beyond the opening range.
func breaksOut(dir model.Direction, confirm model.Bar, or model.OpeningRange) bool {
	if dir == model.Long {
		return confirm.Close > or.High
	}
	return confirm.Close < or.Low
}

// levels prices the resting order: entry at the near edge of the base bar,
// stop beyond its far edge padded by a multiple of ATR, target at RR × risk.
func levels(dir model.Direction, base model.Bar, atr float64, pc model.ParameterConfig) (entry, stop, target float64) {
	if dir == model.Long {
		entry = base.High
		stop = base.Low - pc.StopATRMult*atr
		target = entry + (entry-stop)*pc.RR
		return
	}
	entry = base.Low
	stop = base.High + pc.StopATRMult*atr
	target = entry - (stop-entry)*pc.RR
	return
}
