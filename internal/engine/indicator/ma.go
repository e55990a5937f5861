// Package indicator provides stateless indicator math over price slices.
// Every function returns ok=false instead of NaN or Inf when there is not
// enough history or a denominator would be zero.
package indicator

// SMA returns the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// EMA returns the exponential moving average of values, seeded with the SMA
// of the first period values.
func EMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	ema := seed / float64(period)
	k := 2.0 / float64(period+1)
	for _, v := range values[period:] {
		ema = v*k + ema*(1-k)
	}
	return ema, true
}

// ZLEMA returns the zero-lag EMA: an EMA over de-lagged inputs
// 2*p[i] - p[i-lag] with lag = (period-1)/2.
func ZLEMA(values []float64, period int) (float64, bool) {
	if period <= 0 {
		return 0, false
	}
	lag := (period - 1) / 2
	if len(values) < period+lag {
		return 0, false
	}
	adjusted := make([]float64, 0, len(values)-lag)
	for i := lag; i < len(values); i++ {
		adjusted = append(adjusted, 2*values[i]-values[i-lag])
	}
	return EMA(adjusted, period)
}
