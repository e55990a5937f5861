package engine

import (
	"math"
	"sort"

	"SignalForge/internal/domain/models"
)

// BandPosition locates a price relative to a sigma band pair.
type BandPosition int

const (
	WithinBand BandPosition = iota
	AboveBand
	BelowBand
)

// PriorLevel is a named prior-session level near a query price.
type PriorLevel struct {
	Name     string
	Price    float64
	Distance float64
}

// VWAPEngine keeps the running session-cumulative volume-weighted price
// statistics and the per-session volume profile. It is mutated only by OnBar
// and ResetDay; detectors and the scorer read it.
//
// Invariants: vwap == sum(tp*v)/sum(v) with tp = (H+L+C)/3 after every bar,
// and variance = sum(tp^2*v)/sum(v) - vwap^2 clamped to >= 0.
type VWAPEngine struct {
	minBars int

	bars   int
	sumPV  float64
	sumV   float64
	sumPV2 float64

	vwap   float64
	stdDev float64

	sessionOpen  float64
	sessionHigh  float64
	sessionLow   float64
	sessionClose float64

	// volume profile: 1-point bin lower edge -> accumulated volume
	profile map[int]float64

	prior *models.PriorDayLevels
}

// valueAreaShare of total session volume contained in the value area.
const valueAreaShare = 0.70

// NewVWAPEngine creates an engine that reports Ready only after minBars bars
// and a positive standard deviation.
func NewVWAPEngine(minBars int) *VWAPEngine {
	if minBars < 1 {
		minBars = 1
	}
	return &VWAPEngine{minBars: minBars, profile: make(map[int]float64)}
}

// OnBar folds one bar into the session state. A zero-volume bar is weighted
// as one unit so it stays visible to the vwap and the profile.
func (e *VWAPEngine) OnBar(b models.Bar) {
	w := b.Volume
	if w <= 0 {
		w = 1
	}
	tp := b.TypicalPrice()

	e.sumPV += tp * w
	e.sumV += w
	e.sumPV2 += tp * tp * w
	e.bars++

	e.vwap = e.sumPV / e.sumV
	variance := e.sumPV2/e.sumV - e.vwap*e.vwap
	if variance < 0 {
		variance = 0
	}
	e.stdDev = math.Sqrt(variance)

	if e.bars == 1 {
		e.sessionOpen = b.Open
		e.sessionHigh = b.High
		e.sessionLow = b.Low
	} else {
		e.sessionHigh = math.Max(e.sessionHigh, b.High)
		e.sessionLow = math.Min(e.sessionLow, b.Low)
	}
	e.sessionClose = b.Close

	e.distributeVolume(b, w)
}

// distributeVolume splits the bar's volume uniformly across every 1-point bin
// its range touches.
func (e *VWAPEngine) distributeVolume(b models.Bar, w float64) {
	lo := int(math.Floor(b.Low))
	hi := int(math.Ceil(b.High))
	count := hi - lo
	if count < 1 {
		count = 1
	}
	share := w / float64(count)
	for bin := lo; bin < lo+count; bin++ {
		e.profile[bin] += share
	}
}

// Ready reports whether derived statistics are trustworthy. Both conditions
// guard against division-driven spurious signals early in the session.
func (e *VWAPEngine) Ready() bool {
	return e.bars >= e.minBars && e.stdDev > 0
}

// VWAP returns the running session vwap, 0 before the first bar.
func (e *VWAPEngine) VWAP() float64 { return e.vwap }

// StdDev returns the running volume-weighted standard deviation.
func (e *VWAPEngine) StdDev() float64 { return e.stdDev }

// BarCount returns bars processed since the last reset.
func (e *VWAPEngine) BarCount() int { return e.bars }

// Band returns vwap + level*stdDev for positive level, vwap - |level|*stdDev
// for negative level.
func (e *VWAPEngine) Band(level float64) float64 {
	return e.vwap + level*e.stdDev
}

// Bands returns the three sigma band pairs.
func (e *VWAPEngine) Bands() models.Bands {
	return models.Bands{
		Upper1: e.Band(1), Lower1: e.Band(-1),
		Upper2: e.Band(2), Lower2: e.Band(-2),
		Upper3: e.Band(3), Lower3: e.Band(-3),
	}
}

// VWAPDistance returns the signed sigma distance of price from vwap, 0 when
// the engine is not ready.
func (e *VWAPEngine) VWAPDistance(price float64) float64 {
	if !e.Ready() {
		return 0
	}
	return (price - e.vwap) / e.stdDev
}

// BandPositionAt reports whether price sits above, below or within the
// +-level sigma bands.
func (e *VWAPEngine) BandPositionAt(price, level float64) BandPosition {
	switch {
	case price > e.Band(level):
		return AboveBand
	case price < e.Band(-level):
		return BelowBand
	default:
		return WithinBand
	}
}

// PriorDay returns the archived previous-session levels, nil before the
// first qualifying reset.
func (e *VWAPEngine) PriorDay() *models.PriorDayLevels { return e.prior }

// NearbyPriorLevels returns prior-day levels within tolerance of price,
// ascending by distance.
func (e *VWAPEngine) NearbyPriorLevels(price, tolerance float64) []PriorLevel {
	if e.prior == nil {
		return nil
	}
	candidates := []PriorLevel{
		{Name: "prior_high", Price: e.prior.High},
		{Name: "prior_low", Price: e.prior.Low},
		{Name: "prior_close", Price: e.prior.Close},
		{Name: "prior_vwap", Price: e.prior.VWAP},
		{Name: "prior_vah", Price: e.prior.VAH},
		{Name: "prior_val", Price: e.prior.VAL},
		{Name: "prior_poc", Price: e.prior.POC},
	}
	var near []PriorLevel
	for _, c := range candidates {
		c.Distance = math.Abs(price - c.Price)
		if c.Distance <= tolerance {
			near = append(near, c)
		}
	}
	sort.Slice(near, func(i, j int) bool { return near[i].Distance < near[j].Distance })
	return near
}

// Snapshot captures the current session state for signal diagnostics.
func (e *VWAPEngine) Snapshot() models.SessionSnapshot {
	return models.SessionSnapshot{
		VWAP:     e.vwap,
		StdDev:   e.stdDev,
		Bands:    e.Bands(),
		PriorDay: e.prior,
	}
}

// ResetDay archives the session as prior-day levels (only when the session
// saw at least minBars bars) and zeroes every accumulator. The profile map is
// rebuilt from scratch each session.
func (e *VWAPEngine) ResetDay() {
	if e.bars >= e.minBars {
		vah, val, poc := e.valueArea()
		e.prior = &models.PriorDayLevels{
			High:  e.sessionHigh,
			Low:   e.sessionLow,
			Close: e.sessionClose,
			VWAP:  e.vwap,
			VAH:   vah,
			VAL:   val,
			POC:   poc,
		}
	}
	e.bars = 0
	e.sumPV, e.sumV, e.sumPV2 = 0, 0, 0
	e.vwap, e.stdDev = 0, 0
	e.sessionOpen, e.sessionHigh, e.sessionLow, e.sessionClose = 0, 0, 0, 0
	e.profile = make(map[int]float64)
}

// valueArea derives VAH/VAL/POC from the profile: POC is the max-volume bin;
// the window expands outward over price-sorted bins, taking whichever
// neighbor holds more volume (ties favor the upper), until it holds 70% of
// total volume. VAH is the upper edge of the top bin, VAL the lower edge of
// the bottom bin.
func (e *VWAPEngine) valueArea() (vah, val, poc float64) {
	if len(e.profile) == 0 {
		return 0, 0, 0
	}
	bins := make([]int, 0, len(e.profile))
	total := 0.0
	for bin, v := range e.profile {
		bins = append(bins, bin)
		total += v
	}
	sort.Ints(bins)

	pocIdx := 0
	for i, bin := range bins {
		if e.profile[bin] > e.profile[bins[pocIdx]] {
			pocIdx = i
		}
	}
	poc = float64(bins[pocIdx])

	lo, hi := pocIdx, pocIdx
	acc := e.profile[bins[pocIdx]]
	for acc < valueAreaShare*total {
		upVol, downVol := -1.0, -1.0
		if hi+1 < len(bins) {
			upVol = e.profile[bins[hi+1]]
		}
		if lo-1 >= 0 {
			downVol = e.profile[bins[lo-1]]
		}
		if upVol < 0 && downVol < 0 {
			break
		}
		if upVol >= downVol { // tie favors the upper neighbor
			hi++
			acc += upVol
		} else {
			lo--
			acc += downVol
		}
	}
	return float64(bins[hi]) + 1, float64(bins[lo]), poc
}
