package engine

import (
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/engine/indicator"
)

// CrossoverDetector is the momentum-crossover strategy. It is stateless
// beyond its bar history: every sealed bar of its timeframe gets a fresh
// pattern check of the fast average crossing the slow one with a confirming
// candle.
type CrossoverDetector struct {
	cfg    CrossoverConfig
	conf   ConfluenceConfig
	rsiLen int
	loc    *time.Location
	vw     *VWAPEngine
	scorer *ConfluenceScorer

	bars []models.Bar
}

// NewCrossoverDetector wires the detector against the shared VWAP engine and
// scorer. The engine is read-only from here.
func NewCrossoverDetector(cfg CrossoverConfig, conf ConfluenceConfig, rsiPeriod int, loc *time.Location, vw *VWAPEngine, scorer *ConfluenceScorer) *CrossoverDetector {
	return &CrossoverDetector{cfg: cfg, conf: conf, rsiLen: rsiPeriod, loc: loc, vw: vw, scorer: scorer}
}

// Timeframe returns the sealed-bar timeframe this detector drives off.
func (d *CrossoverDetector) Timeframe() int { return d.cfg.Timeframe }

// Reset clears bar history for the day boundary.
func (d *CrossoverDetector) Reset() { d.bars = d.bars[:0] }

// Detect consumes one sealed bar. Gating happens in the session controller;
// a bar that reaches here is always folded into history first.
func (d *CrossoverDetector) Detect(bar models.Bar) *models.Signal {
	d.bars = trimBars(append(d.bars, bar))
	if !d.cfg.Enabled {
		return nil
	}
	if len(d.bars) < d.cfg.SlowPeriod+d.cfg.HistoryExtra {
		return nil
	}
	if !d.cfg.Window.Contains(minuteOfDay(bar.OpenTime, d.loc)) {
		return nil
	}

	closes := closesOf(d.bars)
	fastNow, okF := indicator.ZLEMA(closes, d.cfg.FastPeriod)
	slowNow, okS := indicator.EMA(closes, d.cfg.SlowPeriod)
	prev := closes[:len(closes)-1]
	fastPrev, okFP := indicator.ZLEMA(prev, d.cfg.FastPeriod)
	slowPrev, okSP := indicator.EMA(prev, d.cfg.SlowPeriod)
	if !okF || !okS || !okFP || !okSP {
		return nil
	}

	var dir models.Direction
	switch {
	case fastPrev <= slowPrev && fastNow > slowNow && bar.Bullish():
		dir = models.Buy
	case fastPrev >= slowPrev && fastNow < slowNow && bar.Bearish():
		dir = models.Sell
	default:
		return nil
	}
	if bar.Range() < d.cfg.MinRange || bar.BodyRatio() < d.cfg.MinBodyRatio {
		return nil
	}

	entry := bar.Close
	extreme := bar.Low
	if dir == models.Sell {
		extreme = bar.High
	}
	stop, target, stopDist, targetDist, ok := sizeStops(dir, entry, extreme, d.cfg.Sizing)
	if !ok {
		return nil
	}

	rsi, rsiOK := indicator.RSI(closes, d.rsiLen)
	res := d.scorer.Score(d.vw, ScoreInput{
		Direction:  dir,
		Price:      entry,
		Tag:        models.TagCrossover,
		EMAFast:    fastNow,
		EMASlow:    slowNow,
		EMAOK:      true,
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
		Strategy:        models.TagCrossover,
		ConfluenceScore: res.Score,
		ConfluenceMax:   res.MaxScore,
		Factors:         res.Factors,
		Session:         d.vw.Snapshot(),
		Timestamp:       bar.OpenTime,
	}
}
