package engine

import (
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/engine/indicator"
)

// PullbackDetector trades impulse-then-retracement continuations off sealed
// five-minute bars: a strong directional bar followed by a partial pullback
// that closes back in the impulse direction.
type PullbackDetector struct {
	cfg    PullbackConfig
	conf   ConfluenceConfig
	rsiLen int
	loc    *time.Location
	vw     *VWAPEngine
	scorer *ConfluenceScorer

	bars []models.Bar
}

// NewPullbackDetector wires the detector against the shared VWAP engine and
// scorer.
func NewPullbackDetector(cfg PullbackConfig, conf ConfluenceConfig, rsiPeriod int, loc *time.Location, vw *VWAPEngine, scorer *ConfluenceScorer) *PullbackDetector {
	return &PullbackDetector{cfg: cfg, conf: conf, rsiLen: rsiPeriod, loc: loc, vw: vw, scorer: scorer}
}

// Timeframe returns the sealed-bar timeframe this detector drives off.
func (d *PullbackDetector) Timeframe() int { return d.cfg.Timeframe }

// Reset clears bar history for the day boundary.
func (d *PullbackDetector) Reset() { d.bars = d.bars[:0] }

// Detect consumes one sealed bar and examines the last two as an
// (impulse, pullback) pair. Retracement bounds are inclusive on both ends.
func (d *PullbackDetector) Detect(bar models.Bar) *models.Signal {
	d.bars = trimBars(append(d.bars, bar))
	if !d.cfg.Enabled || len(d.bars) < 2 {
		return nil
	}
	if !d.cfg.Window.Contains(minuteOfDay(bar.OpenTime, d.loc)) {
		return nil
	}

	impulse := d.bars[len(d.bars)-2]
	pullback := d.bars[len(d.bars)-1]
	impRange := impulse.Range()
	if impRange < d.cfg.MinImpulseRange || impulse.BodyRatio() < d.cfg.MinImpulseBody {
		return nil
	}

	var dir models.Direction
	var retrace float64
	switch {
	case impulse.Bullish():
		dir = models.Buy
		retrace = (impulse.High - pullback.Low) / impRange
		// pullback must close back upward and not drift too far against
		// the impulse
		if !pullback.Bullish() || pullback.Close < impulse.Close-d.cfg.MaxCloseDrift*impRange {
			return nil
		}
	case impulse.Bearish():
		dir = models.Sell
		retrace = (pullback.High - impulse.Low) / impRange
		if !pullback.Bearish() || pullback.Close > impulse.Close+d.cfg.MaxCloseDrift*impRange {
			return nil
		}
	default:
		return nil
	}
	if retrace < d.cfg.MinRetrace || retrace > d.cfg.MaxRetrace {
		return nil
	}

	entry := pullback.Close
	extreme := pullback.Low
	if dir == models.Sell {
		extreme = pullback.High
	}
	stop, target, stopDist, targetDist, ok := sizeStops(dir, entry, extreme, d.cfg.Sizing)
	if !ok {
		return nil
	}

	closes := closesOf(d.bars)
	rsi, rsiOK := indicator.RSI(closes, d.rsiLen)
	res := d.scorer.Score(d.vw, ScoreInput{
		Direction:  dir,
		Price:      entry,
		Tag:        models.TagPullback,
		RSI:        rsi,
		RSIOK:      rsiOK,
		RecentBars: d.bars,
	})
	if !res.Passed {
		return nil
	}

	return &models.Signal{
		Direction:       dir,
		EntryPrice:      entry,
		StopLoss:        stop,
		TargetPrice:     target,
		StopDistance:    stopDist,
		TargetDistance:  targetDist,
		Strategy:        models.TagPullback,
		ConfluenceScore: res.Score,
		ConfluenceMax:   res.MaxScore,
		Factors:         res.Factors,
		Session:         d.vw.Snapshot(),
		Timestamp:       bar.OpenTime,
	}
}
