package notifier

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"FVGBacktest/internal/model"
	"FVGBacktest/internal/recorder"
)

func printer() *message.Printer { return message.NewPrinter(language.English) }

// money rounds an amount to cents half away from zero, the way balances and
// risk amounts are settled, before it is rendered.
func money(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatGrid renders one row per grid point in grid order.
func FormatGrid(results []model.OptimizationResult) string {
	p := printer()
	var b strings.Builder
	b.WriteString(p.Sprintf("%-6s | %-8s | %-9s | %s\n", "RR", "StopMult", "Total R", "# Trades"))
	b.WriteString(strings.Repeat("-", 40) + "\n")
	for _, r := range results {
		b.WriteString(p.Sprintf("%-6.2f | %-8.2f | %-9.2f | %d\n",
			r.Config.RR, r.Config.StopATRMult, r.TotalR, r.TradeCount()))
	}
	return b.String()
}

// FormatSummary renders the winning combination and its equity projection.
func FormatSummary(best model.OptimizationResult, proj model.Projection, mode string) string {
	p := printer()
	s := proj.Summary
	var b strings.Builder

	b.WriteString(p.Sprintf("FVG backtest (%s)\n", mode))
	b.WriteString(p.Sprintf("Best: RR %.2f | Stop %.2f ATR | Total %.2fR\n",
		best.Config.RR, best.Config.StopATRMult, best.TotalR))
	if s.NoTrades {
		b.WriteString("No trades produced.\n")
		return b.String()
	}
	b.WriteString(p.Sprintf("Capital: $%.2f -> $%.2f\n", money(s.InitialCapital), money(s.FinalBalance)))
	b.WriteString(p.Sprintf("Net profit: $%.2f (%+.2f%%)\n", money(s.NetProfit), s.Return*100))
	b.WriteString(p.Sprintf("Trades: %d | Wins: %d | Losses: %d | Win rate: %.1f%%\n",
		s.Trades, s.Wins, s.Losses, s.WinRate*100))
	b.WriteString(p.Sprintf("Avg R: %.3f | Profit factor: %.2f | Max drawdown: %.2f%%\n",
		s.AvgR, s.ProfitFactor, s.MaxDrawdown*100))
	return b.String()
}

// FormatRunSummary renders a recorded run headline.
func FormatRunSummary(s *recorder.RunSummary) string {
	p := printer()
	var b strings.Builder
	b.WriteString(p.Sprintf("Run %s (%s, %s)\n", s.ID, s.Mode, s.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(p.Sprintf("Best: RR %.2f | Stop %.2f ATR | Total %.2fR | %d trades\n",
		s.Best.RR, s.Best.StopATRMult, s.BestTotalR, s.Trades))
	b.WriteString(p.Sprintf("Final balance: $%.2f | Net: $%.2f | Win rate: %.1f%% | Max DD: %.2f%%\n",
		money(s.FinalBalance), money(s.NetProfit), s.WinRate*100, s.MaxDrawdown*100))
	return b.String()
}

// FormatSizing renders the position size the next live trade would take.
func FormatSizing(risk, lots, distance float64) string {
	return printer().Sprintf("Next trade: risk $%.2f = %.2f lots at %.2f pts stop distance\n", money(risk), lots, distance)
}
