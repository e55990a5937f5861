package indicator

import "math"

// ATR returns the Wilder-smoothed average true range of the given bars.
// high, low and close must have equal length of at least period+1.
func ATR(high, low, close []float64, period int) (float64, bool) {
	n := len(close)
	if period <= 0 || n < period+1 || len(high) != n || len(low) != n {
		return 0, false
	}
	trs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		tr := high[i] - low[i]
		tr = math.Max(tr, math.Abs(high[i]-close[i-1]))
		tr = math.Max(tr, math.Abs(low[i]-close[i-1]))
		trs = append(trs, tr)
	}
	// seed with simple average, then Wilder's smoothing
	sum := 0.0
	for _, tr := range trs[:period] {
		sum += tr
	}
	atr := sum / float64(period)
	for _, tr := range trs[period:] {
		atr = (atr*float64(period-1) + tr) / float64(period)
	}
	return atr, true
}
