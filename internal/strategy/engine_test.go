package strategy

import (
	"errors"
	"math"
	"testing"

	"FVGBacktest/internal/model"
)

var cfg = model.ParameterConfig{RR: 2, StopATRMult: 0.5}

func longWindow() []model.Bar {
	return []model.Bar{
		{Open: 98.5, High: 100, Low: 98, Close: 99.5, ATR: 2, EMA: 99},
		{Open: 99.5, High: 101, Low: 99.5, Close: 100.8, ATR: 2, EMA: 99},
		{Open: 100.8, High: 102, Low: 100.5, Close: 101.5, ATR: 2, EMA: 99},
	}
}

func shortWindow() []model.Bar {
	return []model.Bar{
		{Open: 101.5, High: 102, Low: 100, Close: 100.5, ATR: 2, EMA: 101},
		{Open: 100.5, High: 100.5, Low: 99, Close: 99.2, ATR: 2, EMA: 101},
		{Open: 99.2, High: 99.5, Low: 98, Close: 98.5, ATR: 2, EMA: 101},
	}
}

var or = model.OpeningRange{High: 101, Low: 99, ATRAtCapture: 2}

func TestDetect_Long(t *testing.T) {
	s, err := Detect(longWindow(), 2, or, cfg, model.DefaultParams())
	if err != nil {
		t.Fatalf("expected setup, got %v", err)
	}
	if s.Direction != model.Long || s.Index != 2 {
		t.Fatalf("unexpected setup %+v", s)
	}
	if s.Entry != 100 || s.Stop != 97 || s.Target != 106 || s.Risk != 3 {
		t.Errorf("wrong levels: entry=%.2f stop=%.2f target=%.2f risk=%.2f", s.Entry, s.Stop, s.Target, s.Risk)
	}
}

func TestDetect_Short(t *testing.T) {
	s, err := Detect(shortWindow(), 2, or, cfg, model.DefaultParams())
	if err != nil {
		t.Fatalf("expected setup, got %v", err)
	}
	if s.Direction != model.Short {
		t.Fatalf("expected short, got %s", s.Direction)
	}
	if s.Entry != 100 || s.Stop != 103 || s.Target != 94 {
		t.Errorf("wrong levels: entry=%.2f stop=%.2f target=%.2f", s.Entry, s.Stop, s.Target)
	}
}

func TestDetect_Rejections(t *testing.T) {
	p := model.DefaultParams()
	tests := []struct {
		name   string
		mutate func(b []model.Bar)
		or     model.OpeningRange
		want   error
	}{
		{"against trend", func(b []model.Bar) { b[2].EMA = 103 }, or, ErrNoPattern},
		{"on the ema", func(b []model.Bar) { b[2].EMA = b[2].Close }, or, ErrNoPattern},
		{"overlapping ranges", func(b []model.Bar) { b[2].Low = 99.9 }, or, ErrNoPattern},
		{"gap under threshold", func(b []model.Bar) { b[2].Low = 100.1 }, or, ErrNoPattern},
		{"no breakout", nil, model.OpeningRange{High: 102, Low: 99}, ErrNoPattern},
		{"atr undefined", func(b []model.Bar) { b[2].ATR = math.NaN() }, or, ErrNoPattern},
		{"risk too small", func(b []model.Bar) { b[0].Low = 99.9; b[2].ATR = 0.5 }, or, ErrRiskTooSmall},
	}
	for _, tt := range tests {
		bars := longWindow()
		if tt.mutate != nil {
			tt.mutate(bars)
		}
		pc := cfg
		if tt.want == ErrRiskTooSmall {
			pc.StopATRMult = 0
		}
		_, err := Detect(bars, 2, tt.or, pc, p)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestDetect_WindowBounds(t *testing.T) {
	bars := longWindow()
	for _, i := range []int{-1, 0, 1, 3} {
		if _, err := Detect(bars, i, or, cfg, model.DefaultParams()); !errors.Is(err, ErrNoPattern) {
			t.Errorf("index %d: expected ErrNoPattern, got %v", i, err)
		}
	}
}

func TestDetect_DoesNotMutateBars(t *testing.T) {
	bars := longWindow()
	before := bars[2]
	Detect(bars, 2, or, cfg, model.DefaultParams())
	if bars[2] != before {
		t.Error("bars were mutated")
	}
}
