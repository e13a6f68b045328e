package lifecycle

import "FVGBacktest/internal/model"

// Position is the state of an open trade that the breakeven rule needs.
type Position struct {
	Direction model.Direction
	Entry     float64
	Stop      float64
	Risk      float64 // initial |entry-stop|
	Breakeven bool
}

// ArmBreakeven moves the stop to entry plus the offset once the bar has run
// BreakevenTriggerR × risk in favour of the position. It arms at most once and
// never loosens an existing stop. The bool reports whether the stop moved.
func ArmBreakeven(pos Position, b model.Bar, p model.Params) (Position, bool) {
	if pos.Breakeven || pos.Risk <= 0 {
		return pos, false
	}
	trigger := pos.Entry + pos.Direction.Sign()*p.BreakevenTriggerR*pos.Risk
	reached := b.High >= trigger
	if pos.Direction == model.Short {
		reached = b.Low <= trigger
	}
	if !reached {
		return pos, false
	}

	pos.Breakeven = true
	next := pos.Entry + pos.Direction.Sign()*p.BreakevenOffset
	if !tighter(pos.Direction, next, pos.Stop) {
		return pos, false
	}
	pos.Stop = next
	return pos, true
}

func tighter(dir model.Direction, candidate, current float64) bool {
	if dir == model.Short {
		return candidate < current
	}
	return candidate > current
}

func stopHit(pos Position, b model.Bar) bool {
	if pos.Direction == model.Short {
		return b.High >= pos.Stop
	}
	return b.Low <= pos.Stop
}

func targetHit(dir model.Direction, target float64, b model.Bar) bool {
	if dir == model.Short {
		return b.Low <= target
	}
	return b.High >= target
}
