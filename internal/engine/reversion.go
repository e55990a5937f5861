package engine

import (
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/engine/indicator"
)

// watchSide marks which band the price stretched past.
type watchSide int

const (
	watchNone watchSide = iota
	watchLong            // stretched below, waiting to buy the reversion
	watchShort           // stretched above, waiting to sell the reversion
)

// ReversionDetector fades VWAP overextensions on the native one-minute
// stream. Two-phase state machine: Idle until |sigma distance| reaches the
// trigger, then Watching until either a confirmation bar produces a signal
// or price reverts through the mean on its own and the watch is cancelled.
type ReversionDetector struct {
	cfg    ReversionConfig
	conf   ConfluenceConfig
	rsiLen int
	loc    *time.Location
	vw     *VWAPEngine
	scorer *ConfluenceScorer

	side     watchSide
	refPrice float64
	cooldown int

	bars []models.Bar
}

// NewReversionDetector wires the detector against the shared VWAP engine and
// scorer.
func NewReversionDetector(cfg ReversionConfig, conf ConfluenceConfig, rsiPeriod int, loc *time.Location, vw *VWAPEngine, scorer *ConfluenceScorer) *ReversionDetector {
	return &ReversionDetector{cfg: cfg, conf: conf, rsiLen: rsiPeriod, loc: loc, vw: vw, scorer: scorer}
}

// Watching reports the current watch side, for diagnostics and tests.
func (d *ReversionDetector) Watching() (bool, models.Direction) {
	switch d.side {
	case watchLong:
		return true, models.Buy
	case watchShort:
		return true, models.Sell
	default:
		return false, ""
	}
}

// ClearWatch drops the watch without touching cooldown. Called when the
// external collaborator reports the position closed.
func (d *ReversionDetector) ClearWatch() {
	d.side = watchNone
	d.refPrice = 0
}

// Reset clears watch, cooldown and history as part of the atomic day reset.
func (d *ReversionDetector) Reset() {
	d.ClearWatch()
	d.cooldown = 0
	d.bars = d.bars[:0]
}

// Detect consumes one native bar.
func (d *ReversionDetector) Detect(bar models.Bar) *models.Signal {
	d.bars = trimBars(append(d.bars, bar))
	if d.cooldown > 0 {
		d.cooldown--
	}
	if !d.cfg.Enabled || !d.vw.Ready() {
		return nil
	}
	if !d.cfg.Window.Contains(minuteOfDay(bar.OpenTime, d.loc)) {
		return nil
	}

	if d.side == watchNone {
		if d.cooldown > 0 {
			return nil
		}
		dist := d.vw.VWAPDistance(bar.Close)
		if dist >= d.cfg.SigmaTrigger {
			d.side = watchShort
			d.refPrice = bar.Close
		} else if dist <= -d.cfg.SigmaTrigger {
			d.side = watchLong
			d.refPrice = bar.Close
		}
		return nil
	}

	if sig := d.tryConfirm(bar); sig != nil {
		d.ClearWatch()
		d.cooldown = d.cfg.CooldownBars
		return sig
	}

	// reversion completed without a tradeable entry bar: cancel the watch
	// once price crosses back through the mean
	vwap := d.vw.VWAP()
	if (d.side == watchShort && bar.Close <= vwap) || (d.side == watchLong && bar.Close >= vwap) {
		d.ClearWatch()
	}
	return nil
}

// tryConfirm checks the confirmation pattern: the bar opens at or beyond the
// 1-sigma band on the watched side, closes strictly between that band and
// the mean, and its body confirms the reversion direction. A low-volume
// confirmation bar is rejected but does not reset the watch.
func (d *ReversionDetector) tryConfirm(bar models.Bar) *models.Signal {
	vwap := d.vw.VWAP()
	var dir models.Direction
	switch d.side {
	case watchShort:
		upper1 := d.vw.Band(1)
		if !(bar.Open >= upper1 && bar.Close < upper1 && bar.Close > vwap && bar.Bearish()) {
			return nil
		}
		dir = models.Sell
	case watchLong:
		lower1 := d.vw.Band(-1)
		if !(bar.Open <= lower1 && bar.Close > lower1 && bar.Close < vwap && bar.Bullish()) {
			return nil
		}
		dir = models.Buy
	default:
		return nil
	}

	// untrustworthy low-volume reversion bar: keep watching
	if n := len(d.bars); n >= d.conf.VolumeLookback+1 {
		trailing := d.bars[n-1-d.conf.VolumeLookback : n-1]
		sum := 0.0
		for _, b := range trailing {
			sum += b.Volume
		}
		avg := sum / float64(len(trailing))
		if avg > 0 && bar.Volume < d.cfg.MinVolumeRatio*avg {
			return nil
		}
	}

	entry := bar.Close
	var stop, stopDist float64
	if dir == models.Sell {
		stop = d.vw.Band(2) + d.cfg.Sizing.StopBuffer
		stopDist = stop - entry
	} else {
		stop = d.vw.Band(-2) - d.cfg.Sizing.StopBuffer
		stopDist = entry - stop
	}
	if stopDist < d.cfg.Sizing.MinStop || stopDist > d.cfg.Sizing.MaxStop {
		return nil
	}

	var target, targetDist float64
	if d.cfg.TargetMode == TargetVWAP {
		target = vwap
		if dir == models.Sell {
			targetDist = entry - target
		} else {
			targetDist = target - entry
		}
	} else {
		targetDist = stopDist * d.cfg.Sizing.RMultiple
		if dir == models.Sell {
			target = entry - targetDist
		} else {
			target = entry + targetDist
		}
	}
	if targetDist < d.cfg.Sizing.MinTarget {
		return nil
	}

	closes := closesOf(d.bars)
	rsi, rsiOK := indicator.RSI(closes, d.rsiLen)
	res := d.scorer.Score(d.vw, ScoreInput{
		Direction:  dir,
		Price:      entry,
		Tag:        models.TagReversion,
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
		TargetDistance:  targetDist,
		StopDistance:    stopDist,
		Strategy:        models.TagReversion,
		ConfluenceScore: res.Score,
		ConfluenceMax:   res.MaxScore,
		Factors:         res.Factors,
		Session:         d.vw.Snapshot(),
		Timestamp:       bar.OpenTime,
	}
}
