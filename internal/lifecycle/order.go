package lifecycle

import "FVGBacktest/internal/model"

// State is the lifecycle stage of a simulated order.
type State int

const (
	Pending State = iota
	Filled
	Cancelled
	Closed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Resolution says how an order left the book.
type Resolution string

const (
	ResolutionClosed Resolution = "closed"
	// ResolutionExpired: still pending at the forced-exit time.
	ResolutionExpired Resolution = "expired"
	// ResolutionInvalidated: the stop traded before the entry filled.
	ResolutionInvalidated Resolution = "invalidated"
	// ResolutionTargetBeforeFill: the target traded before the entry filled.
	ResolutionTargetBeforeFill Resolution = "target_before_fill"
	// ResolutionUnfilled: the bars ran out while pending.
	ResolutionUnfilled Resolution = "unfilled"
)

// Result is the terminal output of an order. Outcome is nil unless the order
// was filled. Index is the bar at which the order resolved.
type Result struct {
	Outcome    *model.TradeOutcome
	Index      int
	Resolution Resolution
}

// Order walks one Setup through PENDING -> {CANCELLED, FILLED -> CLOSED},
// one bar at a time.
type Order struct {
	setup  model.Setup
	params model.Params
	state  State
	pos    Position
	fill   int
	result Result
}

// NewOrder posts a pending limit order for s.
func NewOrder(s model.Setup, p model.Params) *Order {
	return &Order{
		setup:  s,
		params: p,
		state:  Pending,
		pos: Position{
			Direction: s.Direction,
			Entry:     s.Entry,
			Stop:      s.Stop,
			Risk:      s.Risk,
		},
		fill: -1,
	}
}

func (o *Order) State() State { return o.state }

// Position returns the current position state. Its Stop is the effective stop.
func (o *Order) Position() Position { return o.pos }

// Result is only meaningful once Done reports true.
func (o *Order) Result() Result { return o.result }

// Done reports whether the order reached a terminal state.
func (o *Order) Done() bool { return o.state == Cancelled || o.state == Closed }

// Step feeds bar b at index i. It returns true once the order is terminal.
func (o *Order) Step(i int, b model.Bar) bool {
	if o.Done() {
		return true
	}
	forced := model.TimeOfDay(b.Time) >= o.params.Session.ForcedExit

	if o.state == Pending {
		if forced {
			return o.cancel(i, ResolutionExpired)
		}
		if stopHit(o.pos, b) {
			return o.cancel(i, ResolutionInvalidated)
		}
		if targetHit(o.setup.Direction, o.setup.Target, b) {
			return o.cancel(i, ResolutionTargetBeforeFill)
		}
		if !o.entryTouched(b) {
			return false
		}
		o.state = Filled
		o.fill = i
		// a filled bar goes on to the management checks below
	}

	if forced {
		return o.close(i, b.Close, model.ExitTime)
	}

	o.pos, _ = ArmBreakeven(o.pos, b, o.params)

	if o.params.SameBarPolicy == model.TargetFirst {
		return o.checkTarget(i, b) || o.checkStop(i, b)
	}
	return o.checkStop(i, b) || o.checkTarget(i, b)
}

// Finish resolves an order whose bars ran out; last is the final bar index
// and lastClose its close.
func (o *Order) Finish(last int, lastClose float64) Result {
	switch o.state {
	case Pending:
		o.cancel(last, ResolutionUnfilled)
	case Filled:
		o.close(last, lastClose, model.ExitEndOfData)
	}
	return o.result
}

func (o *Order) entryTouched(b model.Bar) bool {
	if o.setup.Direction == model.Short {
		return b.High >= o.setup.Entry
	}
	return b.Low <= o.setup.Entry
}

func (o *Order) checkStop(i int, b model.Bar) bool {
	if !stopHit(o.pos, b) {
		return false
	}
	if o.pos.Breakeven {
		return o.close(i, o.pos.Stop, model.ExitBreakevenStop)
	}
	// adverse slippage applies to the original stop only
	exit := o.pos.Stop - o.setup.Direction.Sign()*o.params.SlippagePoints
	return o.close(i, exit, model.ExitStop)
}

func (o *Order) checkTarget(i int, b model.Bar) bool {
	if !targetHit(o.setup.Direction, o.setup.Target, b) {
		return false
	}
	return o.close(i, o.setup.Target, model.ExitTarget)
}

func (o *Order) cancel(i int, why Resolution) bool {
	o.state = Cancelled
	o.result = Result{Index: i, Resolution: why}
	return true
}

func (o *Order) close(i int, price float64, reason model.ExitReason) bool {
	s := o.setup
	o.state = Closed
	o.result = Result{
		Index:      i,
		Resolution: ResolutionClosed,
		Outcome: &model.TradeOutcome{
			Direction:  s.Direction,
			SetupIndex: s.Index,
			FillIndex:  o.fill,
			ExitIndex:  i,
			Entry:      s.Entry,
			Stop:       s.Stop,
			Target:     s.Target,
			ExitPrice:  price,
			Reason:     reason,
			Breakeven:  o.pos.Breakeven,
			RMultiple:  RMultiple(s.Direction, s.Entry, price, s.Risk, o.params.CommissionR),
		},
	}
	return true
}

// RMultiple converts an exit price to units of initial risk, net of commission.
func RMultiple(dir model.Direction, entry, exit, risk, commissionR float64) float64 {
	return dir.Sign()*(exit-entry)/risk - commissionR
}

// Simulate runs s against the bars after its confirmation bar.
func Simulate(bars []model.Bar, s model.Setup, p model.Params) Result {
	o := NewOrder(s, p)
	for k := s.Index + 1; k < len(bars); k++ {
		if o.Step(k, bars[k]) {
			return o.Result()
		}
	}
	if len(bars) == 0 {
		return o.Finish(-1, 0)
	}
	return o.Finish(len(bars)-1, bars[len(bars)-1].Close)
}
