package engine

import (
	"fmt"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/pkg/logger"
)

// TradingDay is the aggregate root of one session: it owns the aggregator,
// the VWAP engine and the three detectors, arbitrates emission priority, and
// coordinates the atomic day reset. Exactly one bar is in flight at a time;
// nothing here is safe for concurrent use.
type TradingDay struct {
	cfg Config
	loc *time.Location
	log *logger.Logger

	agg    *Aggregator
	vw     *VWAPEngine
	scorer *ConfluenceScorer

	crossover *CrossoverDetector
	pullback  *PullbackDetector
	reversion *ReversionDetector

	// signalFired is the single-active-signal gate: the only cross-detector
	// shared mutable state. Test-and-set relative to each detection attempt.
	signalFired bool
	pending     *models.Signal
}

// NewTradingDay validates cfg and builds the full detection pipeline.
func NewTradingDay(cfg Config, log *logger.Logger) (*TradingDay, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("engine timezone: %w", err)
	}

	d := &TradingDay{cfg: cfg, loc: loc, log: log}
	d.vw = NewVWAPEngine(cfg.VWAPMinBars)
	d.scorer = NewConfluenceScorer(cfg.Confluence)
	d.crossover = NewCrossoverDetector(cfg.Crossover, cfg.Confluence, cfg.RSIPeriod, loc, d.vw, d.scorer)
	d.pullback = NewPullbackDetector(cfg.Pullback, cfg.Confluence, cfg.RSIPeriod, loc, d.vw, d.scorer)
	d.reversion = NewReversionDetector(cfg.Reversion, cfg.Confluence, cfg.RSIPeriod, loc, d.vw, d.scorer)

	tfs := []int{cfg.Crossover.Timeframe}
	if cfg.Pullback.Timeframe != cfg.Crossover.Timeframe {
		tfs = append(tfs, cfg.Pullback.Timeframe)
	}
	d.agg = NewAggregator(tfs...)
	// registration order fixes arbitration priority on a shared timeframe:
	// crossover before pullback
	d.agg.Subscribe(cfg.Crossover.Timeframe, func(bar models.Bar) {
		d.attempt(d.crossover, bar)
	})
	d.agg.Subscribe(cfg.Pullback.Timeframe, func(bar models.Bar) {
		d.attempt(d.pullback, bar)
	})
	return d, nil
}

// attempt feeds one sealed bar to a detector. The gate is checked
// immediately before the attempt, never batched: an emission earlier in the
// same pass blocks every later detector, and a gated detector discards the
// bar entirely.
func (d *TradingDay) attempt(det Detector, bar models.Bar) {
	if d.signalFired {
		return
	}
	if sig := det.Detect(bar); sig != nil {
		d.emit(sig)
	}
}

func (d *TradingDay) emit(sig *models.Signal) {
	d.signalFired = true
	d.pending = sig
	if d.log != nil {
		d.log.Info("signal emitted",
			logger.String("strategy", string(sig.Strategy)),
			logger.String("direction", string(sig.Direction)),
			logger.Float64("entry", sig.EntryPrice),
			logger.Float64("stop", sig.StopLoss),
			logger.Float64("target", sig.TargetPrice),
			logger.Int("confluence", sig.ConfluenceScore),
		)
	}
}

// OnBar processes one native one-minute bar through the whole pipeline and
// returns the at-most-one signal it produced. Bars must arrive in
// non-decreasing timestamp order. Malformed bars fail loudly before any
// session state is touched.
func (d *TradingDay) OnBar(b models.Bar) (*models.Signal, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	d.pending = nil

	d.vw.OnBar(b)
	// sealed-bar detectors fire synchronously inside Ingest, crossover
	// before pullback
	d.agg.Ingest(b)
	d.attempt(d.reversion, b)

	return d.pending, nil
}

// PositionClosed re-opens the signal gate and clears the reversion watch.
// Called by the external execution collaborator when the position resolves.
func (d *TradingDay) PositionClosed() {
	d.signalFired = false
	d.reversion.ClearWatch()
	if d.log != nil {
		d.log.Debug("position closed, gate reopened")
	}
}

// ResetDay atomically clears aggregator buckets, VWAP session state and all
// detector state as one logical unit. The signal gate is left untouched: an
// outstanding position does not end with the session.
func (d *TradingDay) ResetDay() {
	d.agg.Reset()
	d.vw.ResetDay()
	d.crossover.Reset()
	d.pullback.Reset()
	d.reversion.Reset()
	if d.log != nil {
		d.log.Info("day reset", logger.Bool("signal_outstanding", d.signalFired))
	}
}

// Snapshot exposes the current VWAP session state.
func (d *TradingDay) Snapshot() models.SessionSnapshot { return d.vw.Snapshot() }

// SignalOutstanding reports whether the gate is closed.
func (d *TradingDay) SignalOutstanding() bool { return d.signalFired }

// VWAP exposes the shared engine read-only, for diagnostics handlers.
func (d *TradingDay) VWAP() *VWAPEngine { return d.vw }
