package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"FVGBacktest/internal/model"
)

// ClickHouseConfig addresses a candles table with the ingestion schema
// (symbol, interval, open_time_ms, open, high, low, close, ...).
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Table    string
	Symbol   string
}

// ClickHouseSource reads 1m candles for one symbol.
type ClickHouseSource struct {
	Config   ClickHouseConfig
	Location *time.Location
}

func (s *ClickHouseSource) Name() string {
	return fmt.Sprintf("clickhouse:%s.%s", s.Config.Database, s.Config.Table)
}

func (s *ClickHouseSource) Load(ctx context.Context) ([]model.Bar, error) {
	c := s.Config
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{c.Addr},
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	defer conn.Close()
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}

	rows, err := conn.Query(ctx, s.query(), c.Symbol)
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var (
			openMs                 uint64
			open, high, low, cl float64
		)
		if err := rows.Scan(&openMs, &open, &high, &low, &cl); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		bars = append(bars, model.Bar{
			Time:  naive(time.UnixMilli(int64(openMs)), s.Location),
			Open:  open,
			High:  high,
			Low:   low,
			Close: cl,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candles: %w", err)
	}
	return bars, nil
}

func (s *ClickHouseSource) query() string {
	return fmt.Sprintf(
		"SELECT open_time_ms, open, high, low, close FROM %s.%s FINAL WHERE symbol = ? AND interval = '1m' ORDER BY open_time_ms",
		quoteIdent(s.Config.Database), quoteIdent(s.Config.Table))
}

// quoteIdent renders name as a backtick-quoted ClickHouse identifier.
func quoteIdent(name string) string {
	r := strings.NewReplacer(`\`, `\\`, "`", "\\`")
	return "`" + r.Replace(name) + "`"
}
