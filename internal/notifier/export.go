package notifier

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"FVGBacktest/internal/model"
)

func ff(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// WriteTradesCSV writes one row per trade in chronological order.
func WriteTradesCSV(w io.Writer, trades []model.TradeOutcome) error {
	cw := csv.NewWriter(w)
	header := []string{"date", "direction", "setup_index", "fill_index", "exit_index",
		"entry", "stop", "target", "exit_price", "reason", "breakeven", "r_multiple"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, t := range trades {
		rec := []string{
			t.Date.Format("2006-01-02"), t.Direction.String(),
			strconv.Itoa(t.SetupIndex), strconv.Itoa(t.FillIndex), strconv.Itoa(t.ExitIndex),
			ff(t.Entry), ff(t.Stop), ff(t.Target), ff(t.ExitPrice),
			string(t.Reason), strconv.FormatBool(t.Breakeven), ff(t.RMultiple),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEquityCSV writes the balance curve, starting with point 0.
func WriteEquityCSV(w io.Writer, curve []model.EquityPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"trade", "risk", "pnl", "balance"}); err != nil {
		return err
	}
	for _, p := range curve {
		if err := cw.Write([]string{strconv.Itoa(p.Trade), ff(p.Risk), ff(p.PnL), ff(p.Balance)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFile creates path (and its directory) and hands it to write.
func ExportFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
