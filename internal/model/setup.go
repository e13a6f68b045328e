package model

// Direction is the side of a setup or position.
type Direction int

const (
	Long Direction = iota + 1
	Short
)

// Sign returns +1 for long and -1 for short.
func (d Direction) Sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "none"
	}
}

// Setup is a resting limit order definition produced by the gap+breakout rule.
type Setup struct {
	Direction Direction
	Index     int // index of the confirmation bar within its Day
	Entry     float64
	Stop      float64
	Target    float64
	Risk      float64 // |Entry-Stop|
	ATR       float64
}

// ParameterConfig is one point of the optimization grid.
type ParameterConfig struct {
	RR          float64 `json:"rr" yaml:"rr"`
	StopATRMult float64 `json:"stop_atr_mult" yaml:"stop_atr_mult"`
}
