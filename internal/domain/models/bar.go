package models

import (
	"fmt"
	"math"
	"time"
)

// Bar is a single OHLCV bar. Immutable once sealed; higher timeframes are
// derived from the native one-minute stream, never independently sourced.
type Bar struct {
	Symbol   string
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Range returns high minus low.
func (b Bar) Range() float64 { return b.High - b.Low }

// Body returns the absolute open-to-close distance.
func (b Bar) Body() float64 { return math.Abs(b.Close - b.Open) }

// BodyRatio returns body divided by range, 0 for a zero-range bar.
func (b Bar) BodyRatio() float64 {
	r := b.Range()
	if r == 0 {
		return 0
	}
	return b.Body() / r
}

// Bullish reports whether the bar closed above its open.
func (b Bar) Bullish() bool { return b.Close > b.Open }

// Bearish reports whether the bar closed below its open.
func (b Bar) Bearish() bool { return b.Close < b.Open }

// TypicalPrice returns (high + low + close) / 3.
func (b Bar) TypicalPrice() float64 { return (b.High + b.Low + b.Close) / 3.0 }

// Validate rejects bars that would poison cumulative session sums. A bar with
// a non-finite field must fail loudly here rather than corrupt every VWAP
// value for the rest of the session.
func (b Bar) Validate() error {
	if b.OpenTime.IsZero() {
		return fmt.Errorf("bar: zero open time")
	}
	for name, v := range map[string]float64{
		"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close, "volume": b.Volume,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bar at %s: %s is not finite", b.OpenTime.Format(time.RFC3339), name)
		}
	}
	if b.High < b.Low {
		return fmt.Errorf("bar at %s: high %.4f below low %.4f", b.OpenTime.Format(time.RFC3339), b.High, b.Low)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar at %s: negative volume", b.OpenTime.Format(time.RFC3339))
	}
	return nil
}
