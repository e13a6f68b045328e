package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // session timezones must resolve on hosts without zoneinfo

	"gopkg.in/yaml.v3"

	"FVGBacktest/internal/backtest"
	"FVGBacktest/internal/model"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

var identRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Data source kinds.
const (
	SourceCSV        = "csv"
	SourceHistData   = "histdata"
	SourceParquet    = "parquet"
	SourceClickHouse = "clickhouse"
)

// Config holds all application configuration.
type Config struct {
	Account struct {
		Capital      float64 `yaml:"capital"`
		RiskPerTrade float64 `yaml:"risk_per_trade"`
	} `yaml:"account"`
	Market struct {
		Symbol         string   `yaml:"symbol"`
		Spread         float64  `yaml:"spread"`
		CommissionR    *float64 `yaml:"commission_r"`
		SlippagePoints *float64 `yaml:"slippage_points"`
		TickSize       float64  `yaml:"tick_size"`
		TickValue      float64  `yaml:"tick_value"`
		VolumeStep     float64  `yaml:"volume_step"`
		VolumeMin      float64  `yaml:"volume_min"`
		VolumeMax      float64  `yaml:"volume_max"`
	} `yaml:"market"`
	Session SessionConfig `yaml:"session"`
	Indicators struct {
		ATRPeriod int `yaml:"atr_period"`
		EMAPeriod int `yaml:"ema_period"`
	} `yaml:"indicators"`
	Rules struct {
		ExtremeRangeMultiplier *float64 `yaml:"extreme_range_multiplier"`
		MinGapATRFraction      *float64 `yaml:"min_gap_atr_fraction"`
		BreakevenTriggerR      *float64 `yaml:"breakeven_trigger_r"`
		BreakevenOffset        *float64 `yaml:"breakeven_offset"` // nil means the spread
		MinRiskSpreadRatio     *float64 `yaml:"min_risk_spread_ratio"`
		SameBarPolicy          string   `yaml:"same_bar_policy"`
	} `yaml:"rules"`
	Grid struct {
		RR                 []float64 `yaml:"rr"`
		StopATRMultipliers []float64 `yaml:"stop_atr_multipliers"`
	} `yaml:"grid"`
	Backtest struct {
		Mode    string `yaml:"mode"`
		Workers int    `yaml:"workers"`
	} `yaml:"backtest"`
	Data struct {
		Source     string `yaml:"source"`
		Path       string `yaml:"path"`
		Timezone   string `yaml:"timezone"`
		ClickHouse struct {
			Addr     string `yaml:"addr"`
			Database string `yaml:"database"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
			Table    string `yaml:"table"`
		} `yaml:"clickhouse"`
	} `yaml:"data"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Output struct {
		TradesCSV string `yaml:"trades_csv"`
		EquityCSV string `yaml:"equity_csv"`
	} `yaml:"output"`
	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Proxy    string `yaml:"proxy"`
	} `yaml:"telegram"`
	LogLevel string `yaml:"log_level"`
}

// SessionConfig holds session clock times as "HH:MM" strings.
type SessionConfig struct {
	Start               string `yaml:"start"`
	EntryCutoff         string `yaml:"entry_cutoff"`
	ForcedExit          string `yaml:"forced_exit"`
	OpeningRangeMinutes int    `yaml:"opening_range_minutes"`
	MinDayBars          int    `yaml:"min_day_bars"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	envFloat("FVG_CAPITAL", &c.Account.Capital)
	envFloat("FVG_RISK", &c.Account.RiskPerTrade)
	envString("FVG_MODE", &c.Backtest.Mode)
	envString("FVG_DATA_PATH", &c.Data.Path)
	envString("FVG_DATA_SOURCE", &c.Data.Source)
	envString("CLICKHOUSE_ADDR", &c.Data.ClickHouse.Addr)
	envString("SQLITE_PATH", &c.Database.SQLitePath)
	envString("CRON_SCHEDULE", &c.Schedule.Cron)
	envString("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	envString("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	envString("HTTPS_PROXY", &c.Telegram.Proxy)
	envString("LOG_LEVEL", &c.LogLevel)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func (c *Config) applyDefaults() {
	d := model.DefaultParams()

	if c.Account.Capital == 0 {
		c.Account.Capital = 10000
	}
	if c.Account.RiskPerTrade == 0 {
		c.Account.RiskPerTrade = 0.01
	}

	if c.Market.Symbol == "" {
		c.Market.Symbol = "SPXUSD"
	}
	if c.Market.Spread == 0 {
		c.Market.Spread = d.Spread
	}
	orDefault(&c.Market.CommissionR, d.CommissionR)
	orDefault(&c.Market.SlippagePoints, d.SlippagePoints)
	if c.Market.TickSize == 0 {
		c.Market.TickSize = 0.01
	}
	if c.Market.TickValue == 0 {
		c.Market.TickValue = 1
	}
	if c.Market.VolumeStep == 0 {
		c.Market.VolumeStep = 0.01
	}
	if c.Market.VolumeMin == 0 {
		c.Market.VolumeMin = 0.01
	}
	if c.Market.VolumeMax == 0 {
		c.Market.VolumeMax = 100
	}

	if c.Session.Start == "" {
		c.Session.Start = "09:30"
	}
	if c.Session.EntryCutoff == "" {
		c.Session.EntryCutoff = "11:00"
	}
	if c.Session.ForcedExit == "" {
		c.Session.ForcedExit = "13:00"
	}
	if c.Session.OpeningRangeMinutes == 0 {
		c.Session.OpeningRangeMinutes = d.Session.RangeMinutes
	}
	if c.Session.MinDayBars == 0 {
		c.Session.MinDayBars = d.MinDayBars
	}

	if c.Indicators.ATRPeriod == 0 {
		c.Indicators.ATRPeriod = d.ATRPeriod
	}
	if c.Indicators.EMAPeriod == 0 {
		c.Indicators.EMAPeriod = d.EMAPeriod
	}

	orDefault(&c.Rules.ExtremeRangeMultiplier, d.ExtremeRangeMult)
	orDefault(&c.Rules.MinGapATRFraction, d.MinGapATR)
	orDefault(&c.Rules.BreakevenTriggerR, d.BreakevenTriggerR)
	orDefault(&c.Rules.MinRiskSpreadRatio, d.MinRiskSpreadRatio)
	if c.Rules.SameBarPolicy == "" {
		c.Rules.SameBarPolicy = model.StopFirst.String()
	}

	if len(c.Grid.RR) == 0 {
		c.Grid.RR = []float64{2.0, 2.5, 3.0}
	}
	if len(c.Grid.StopATRMultipliers) == 0 {
		c.Grid.StopATRMultipliers = []float64{0.5, 0.75, 1.0}
	}

	if c.Backtest.Mode == "" {
		c.Backtest.Mode = backtest.Single.String()
	}
	if c.Data.Source == "" {
		c.Data.Source = SourceCSV
	}
	if c.Data.Path == "" && c.Data.Source != SourceClickHouse {
		c.Data.Path = "data/data_spxusd_m1_clean.csv"
	}
	if c.Data.Timezone == "" {
		c.Data.Timezone = "America/New_York"
	}
	if c.Data.ClickHouse.Addr == "" {
		c.Data.ClickHouse.Addr = "localhost:9000"
	}
	if c.Data.ClickHouse.Database == "" {
		c.Data.ClickHouse.Database = "default"
	}
	if c.Data.ClickHouse.Username == "" {
		c.Data.ClickHouse.Username = "default"
	}
	if c.Data.ClickHouse.Table == "" {
		c.Data.ClickHouse.Table = "bars_m1"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// orDefault fills an unset optional value. An explicit zero is kept.
func orDefault(dst **float64, v float64) {
	if *dst == nil {
		*dst = &v
	}
}

// value reads an optional setting; unset reads as zero.
func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Validate fails fast on the first setting the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Account.Capital <= 0:
		return invalid("account.capital must be positive")
	case c.Account.RiskPerTrade <= 0 || c.Account.RiskPerTrade > 1:
		return invalid("account.risk_per_trade must be in (0, 1]")
	case c.Market.Spread <= 0:
		return invalid("market.spread must be positive")
	case c.Market.TickSize <= 0:
		return invalid("market.tick_size must be positive")
	case c.Market.TickValue <= 0:
		return invalid("market.tick_value must be positive")
	case value(c.Market.CommissionR) < 0 || value(c.Market.SlippagePoints) < 0:
		return invalid("market.commission_r and market.slippage_points must not be negative")
	case c.Session.MinDayBars < 0:
		return invalid("session.min_day_bars must not be negative")
	case value(c.Rules.ExtremeRangeMultiplier) <= 0:
		return invalid("rules.extreme_range_multiplier must be positive")
	case value(c.Rules.MinGapATRFraction) < 0:
		return invalid("rules.min_gap_atr_fraction must not be negative")
	case value(c.Rules.BreakevenTriggerR) < 0:
		return invalid("rules.breakeven_trigger_r must not be negative")
	case value(c.Rules.MinRiskSpreadRatio) < 0:
		return invalid("rules.min_risk_spread_ratio must not be negative")
	case value(c.Rules.BreakevenOffset) < 0:
		return invalid("rules.breakeven_offset must not be negative")
	case c.Indicators.ATRPeriod <= 0 || c.Indicators.EMAPeriod <= 0:
		return invalid("indicators periods must be positive")
	case c.Session.OpeningRangeMinutes <= 0:
		return invalid("session.opening_range_minutes must be positive")
	case len(c.Grid.RR) == 0:
		return invalid("grid.rr must not be empty")
	case len(c.Grid.StopATRMultipliers) == 0:
		return invalid("grid.stop_atr_multipliers must not be empty")
	}
	for _, v := range c.Grid.RR {
		if v <= 0 {
			return invalid(fmt.Sprintf("grid.rr value %v must be positive", v))
		}
	}
	for _, v := range c.Grid.StopATRMultipliers {
		if v < 0 {
			return invalid(fmt.Sprintf("grid.stop_atr_multipliers value %v must not be negative", v))
		}
	}

	if _, err := c.Session.parse(); err != nil {
		return err
	}
	if _, err := parsePolicy(c.Rules.SameBarPolicy); err != nil {
		return err
	}
	if _, err := backtest.ParseMode(c.Backtest.Mode); err != nil {
		return invalid(err.Error())
	}
	switch c.Data.Source {
	case SourceCSV, SourceHistData, SourceParquet:
		if c.Data.Path == "" {
			return invalid("data.path is required for source " + c.Data.Source)
		}
	case SourceClickHouse:
		ch := c.Data.ClickHouse
		if ch.Addr == "" || ch.Table == "" {
			return invalid("data.clickhouse.addr and data.clickhouse.table are required")
		}
		if !identRe.MatchString(ch.Database) || !identRe.MatchString(ch.Table) {
			return invalid(fmt.Sprintf("data.clickhouse database %q and table %q must match %s", ch.Database, ch.Table, identRe))
		}
	default:
		return invalid(fmt.Sprintf("unknown data.source %q", c.Data.Source))
	}
	if _, err := time.LoadLocation(c.Data.Timezone); err != nil {
		return invalid(fmt.Sprintf("data.timezone %q: %v", c.Data.Timezone, err))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}

type sessionClock struct {
	start, cutoff, exit time.Duration
}

func (s *SessionConfig) parse() (sessionClock, error) {
	var out sessionClock
	var err error
	if out.start, err = parseClock("session.start", s.Start); err != nil {
		return out, err
	}
	if out.cutoff, err = parseClock("session.entry_cutoff", s.EntryCutoff); err != nil {
		return out, err
	}
	if out.exit, err = parseClock("session.forced_exit", s.ForcedExit); err != nil {
		return out, err
	}
	if out.cutoff <= out.start {
		return out, invalid("session.entry_cutoff must be after session.start")
	}
	if out.exit < out.cutoff {
		return out, invalid("session.forced_exit must not be before session.entry_cutoff")
	}
	return out, nil
}

// parseClock turns "HH:MM" into an offset from midnight.
func parseClock(field, v string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, invalid(fmt.Sprintf("%s %q is not HH:MM", field, v))
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func parsePolicy(s string) (model.SameBarPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case model.StopFirst.String():
		return model.StopFirst, nil
	case model.TargetFirst.String():
		return model.TargetFirst, nil
	default:
		return model.StopFirst, invalid(fmt.Sprintf("unknown rules.same_bar_policy %q", s))
	}
}

// Engine projects the config onto the immutable engine parameters.
func (c *Config) Engine() (model.Params, error) {
	clock, err := c.Session.parse()
	if err != nil {
		return model.Params{}, err
	}
	policy, err := parsePolicy(c.Rules.SameBarPolicy)
	if err != nil {
		return model.Params{}, err
	}
	offset := c.Market.Spread
	if c.Rules.BreakevenOffset != nil {
		offset = *c.Rules.BreakevenOffset
	}
	return model.Params{
		Spread:         c.Market.Spread,
		CommissionR:    value(c.Market.CommissionR),
		SlippagePoints: value(c.Market.SlippagePoints),
		Session: model.Session{
			Start:        clock.start,
			EntryCutoff:  clock.cutoff,
			ForcedExit:   clock.exit,
			RangeMinutes: c.Session.OpeningRangeMinutes,
		},
		ATRPeriod:          c.Indicators.ATRPeriod,
		EMAPeriod:          c.Indicators.EMAPeriod,
		MinDayBars:         c.Session.MinDayBars,
		ExtremeRangeMult:   value(c.Rules.ExtremeRangeMultiplier),
		MinGapATR:          value(c.Rules.MinGapATRFraction),
		BreakevenTriggerR:  value(c.Rules.BreakevenTriggerR),
		BreakevenOffset:    offset,
		MinRiskSpreadRatio: value(c.Rules.MinRiskSpreadRatio),
		SameBarPolicy:      policy,
	}, nil
}

// Mode returns the configured scheduling mode.
func (c *Config) Mode() backtest.Mode {
	m, _ := backtest.ParseMode(c.Backtest.Mode)
	return m
}

// Contract returns the lot-sizing description of the traded symbol.
func (c *Config) Contract() model.Contract {
	return model.Contract{
		TickSize:   c.Market.TickSize,
		TickValue:  c.Market.TickValue,
		VolumeStep: c.Market.VolumeStep,
		VolumeMin:  c.Market.VolumeMin,
		VolumeMax:  c.Market.VolumeMax,
	}
}

// Location returns the session timezone, UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Data.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
