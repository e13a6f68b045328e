package model

// EquityPoint is the account balance after a given number of trades.
// Point 0 is the initial capital with zero risk and PnL.
type EquityPoint struct {
	Trade   int     `json:"trade"`
	Risk    float64 `json:"risk"`
	PnL     float64 `json:"pnl"`
	Balance float64 `json:"balance"`
}

// Summary rolls up a compounding projection.
type Summary struct {
	InitialCapital float64
	FinalBalance   float64
	NetProfit      float64
	Return         float64 // NetProfit / InitialCapital
	Trades         int
	Wins           int
	Losses         int
	WinRate        float64 // Wins / Trades
	TotalR         float64
	AvgR           float64
	ProfitFactor   float64
	MaxDrawdown    float64 // fraction of the running peak
	NoTrades       bool
}

// Projection is a balance curve plus its summary.
type Projection struct {
	Curve   []EquityPoint
	Summary Summary
}
