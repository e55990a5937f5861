package engine

import (
	"sort"

	"SignalForge/internal/domain/models"
)

// SealFunc receives a completed higher-timeframe bar.
type SealFunc func(bar models.Bar)

type bucket struct {
	id  int64
	bar models.Bar
}

// Aggregator fans the native one-minute stream out into clock-aligned
// higher-timeframe buckets. Bucket boundaries are fixed on the clock
// (floor(minute/N)), never session-relative, so a dropped input bar can not
// shift later boundaries. At most one bucket per timeframe is open at a
// time, and a bucket is only sealed once a later bar proves the clock moved
// past it; the final partial bucket of a run is never flushed implicitly.
type Aggregator struct {
	timeframes []int
	open       map[int]*bucket
	subs       map[int][]SealFunc
}

// NewAggregator tracks the given timeframes in minutes. Each must divide 60
// so clock alignment is well defined; that is enforced by config validation.
func NewAggregator(timeframes ...int) *Aggregator {
	tfs := append([]int(nil), timeframes...)
	sort.Ints(tfs)
	return &Aggregator{
		timeframes: tfs,
		open:       make(map[int]*bucket),
		subs:       make(map[int][]SealFunc),
	}
}

// Subscribe registers fn for sealed bars of the given timeframe. Callbacks
// run synchronously inside Ingest, in registration order, smaller timeframes
// first.
func (a *Aggregator) Subscribe(timeframe int, fn SealFunc) {
	a.subs[timeframe] = append(a.subs[timeframe], fn)
}

// Ingest consumes one native bar in non-decreasing timestamp order.
// Out-of-order or duplicate timestamps are a caller error and are not
// validated here.
func (a *Aggregator) Ingest(b models.Bar) {
	epochMin := b.OpenTime.Unix() / 60
	for _, tf := range a.timeframes {
		// epoch-minute bucketing lands on the same boundaries as
		// minute-of-hour for any timeframe dividing 60, without aliasing
		// across hours
		id := epochMin / int64(tf)
		cur := a.open[tf]
		if cur == nil {
			a.open[tf] = &bucket{id: id, bar: b}
			continue
		}
		if cur.id == id {
			cur.bar.High = maxf(cur.bar.High, b.High)
			cur.bar.Low = minf(cur.bar.Low, b.Low)
			cur.bar.Close = b.Close
			cur.bar.Volume += b.Volume
			continue
		}
		sealed := cur.bar
		a.open[tf] = &bucket{id: id, bar: b}
		for _, fn := range a.subs[tf] {
			fn(sealed)
		}
	}
}

// Open returns the currently accumulating bar for a timeframe, if any.
func (a *Aggregator) Open(timeframe int) (models.Bar, bool) {
	cur := a.open[timeframe]
	if cur == nil {
		return models.Bar{}, false
	}
	return cur.bar, true
}

// Reset discards every open bucket without sealing.
func (a *Aggregator) Reset() {
	a.open = make(map[int]*bucket)
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
