package strategy

import (
	"errors"
	"math"

	"FVGBacktest/internal/model"
)

var (
	// ErrNoPattern means the window holds no gap+breakout in the trend direction.
	ErrNoPattern = errors.New("no setup pattern")
	// ErrRiskTooSmall means a pattern was found but its stop sits too close to
	// cover trading costs.
	ErrRiskTooSmall = errors.New("setup risk below cost threshold")
)

// Evaluate applies the gap+breakout rule to a base bar and the confirm bar two
// bars later. The returned Setup has no Index; Detect fills it in.
func Evaluate(base, confirm model.Bar, or model.OpeningRange, pc model.ParameterConfig, p model.Params) (model.Setup, error) {
	dir := trendSide(confirm)
	if dir == 0 {
		return model.Setup{}, ErrNoPattern
	}
	if !hasGap(dir, base, confirm, p.MinGapATR) || !breaksOut(dir, confirm, or) {
		return model.Setup{}, ErrNoPattern
	}

	entry, stop, target := levels(dir, base, confirm.ATR, pc)
	risk := math.Abs(entry - stop)
	if risk < p.MinRiskSpreadRatio*p.Spread {
		return model.Setup{}, ErrRiskTooSmall
	}
	return model.Setup{
		Direction: dir,
		Entry:     entry,
		Stop:      stop,
		Target:    target,
		Risk:      risk,
		ATR:       confirm.ATR,
	}, nil
}

// Detect evaluates the 3-bar window ending at bars[i]. It is a pure function of
// its inputs and is safe to call once per closed bar from a live loop.
func Detect(bars []model.Bar, i int, or model.OpeningRange, pc model.ParameterConfig, p model.Params) (model.Setup, error) {
	if i < 2 || i >= len(bars) {
		return model.Setup{}, ErrNoPattern
	}
	s, err := Evaluate(bars[i-2], bars[i], or, pc, p)
	if err != nil {
		return model.Setup{}, err
	}
	s.Index = i
	return s, nil
}
