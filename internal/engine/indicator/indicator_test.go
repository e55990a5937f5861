package indicator

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestSMANotReady(t *testing.T) {
	if _, ok := SMA([]float64{1, 2}, 3); ok {
		t.Fatalf("expected not ready")
	}
	if _, ok := SMA(nil, 0); ok {
		t.Fatalf("expected not ready for zero period")
	}
}

func TestSMA(t *testing.T) {
	got, ok := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if !ok {
		t.Fatalf("expected ready")
	}
	if !almostEqual(got, 4, 1e-9) {
		t.Fatalf("sma = %v, want 4", got)
	}
}

func TestEMAConstantSeries(t *testing.T) {
	vals := make([]float64, 30)
	for i := range vals {
		vals[i] = 7.5
	}
	got, ok := EMA(vals, 10)
	if !ok {
		t.Fatalf("expected ready")
	}
	if !almostEqual(got, 7.5, 1e-9) {
		t.Fatalf("ema of constant series = %v, want 7.5", got)
	}
}

func TestEMATracksTrend(t *testing.T) {
	vals := make([]float64, 50)
	for i := range vals {
		vals[i] = float64(i)
	}
	fast, _ := EMA(vals, 5)
	slow, _ := EMA(vals, 20)
	if fast <= slow {
		t.Fatalf("in an uptrend fast ema %v should exceed slow %v", fast, slow)
	}
	if fast >= vals[len(vals)-1] {
		t.Fatalf("ema %v should lag last value %v", fast, vals[len(vals)-1])
	}
}

func TestZLEMALagsLessThanEMA(t *testing.T) {
	vals := make([]float64, 60)
	for i := range vals {
		vals[i] = 100 + float64(i)*0.5
	}
	z, ok := ZLEMA(vals, 9)
	if !ok {
		t.Fatalf("expected ready")
	}
	e, _ := EMA(vals, 9)
	last := vals[len(vals)-1]
	if math.Abs(last-z) >= math.Abs(last-e) {
		t.Fatalf("zlema %v should track a trend closer than ema %v", z, e)
	}
}

func TestZLEMANotReady(t *testing.T) {
	if _, ok := ZLEMA(make([]float64, 10), 9); ok {
		t.Fatalf("expected not ready below period+lag")
	}
}

func TestATR(t *testing.T) {
	// constant 2-point range, no gaps: ATR must converge to 2
	n := 40
	high := make([]float64, n)
	low := make([]float64, n)
	cls := make([]float64, n)
	for i := 0; i < n; i++ {
		high[i] = 101
		low[i] = 99
		cls[i] = 100
	}
	got, ok := ATR(high, low, cls, 14)
	if !ok {
		t.Fatalf("expected ready")
	}
	if !almostEqual(got, 2, 1e-9) {
		t.Fatalf("atr = %v, want 2", got)
	}
}

func TestATRNotReady(t *testing.T) {
	if _, ok := ATR(make([]float64, 5), make([]float64, 5), make([]float64, 5), 14); ok {
		t.Fatalf("expected not ready")
	}
	if _, ok := ATR(make([]float64, 20), make([]float64, 19), make([]float64, 20), 14); ok {
		t.Fatalf("expected not ready for mismatched lengths")
	}
}

func TestRSIExtremes(t *testing.T) {
	up := make([]float64, 20)
	for i := range up {
		up[i] = float64(i)
	}
	got, ok := RSI(up, 14)
	if !ok {
		t.Fatalf("expected ready")
	}
	if got != 100 {
		t.Fatalf("all-gains rsi = %v, want 100", got)
	}

	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 42
	}
	got, _ = RSI(flat, 14)
	if got != 50 {
		t.Fatalf("flat rsi = %v, want 50", got)
	}
}

func TestRSIBounded(t *testing.T) {
	vals := []float64{10, 11, 10.5, 12, 11.5, 13, 12.2, 13.5, 12.8, 14, 13.1, 14.4, 13.9, 15, 14.2, 15.5}
	got, ok := RSI(vals, 14)
	if !ok {
		t.Fatalf("expected ready")
	}
	if got <= 50 || got >= 100 {
		t.Fatalf("mostly-rising rsi = %v, want in (50,100)", got)
	}
}

func TestRSINotReady(t *testing.T) {
	if _, ok := RSI(make([]float64, 14), 14); ok {
		t.Fatalf("expected not ready below period+1")
	}
}
