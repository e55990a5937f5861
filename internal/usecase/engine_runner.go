package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	"SignalForge/internal/engine"
	"SignalForge/pkg/logger"
	"SignalForge/pkg/util"
)

// EngineRunner owns one TradingDay per symbol and routes bars into it. It
// rolls the session when a bar lands on a new local calendar day and hands
// every emitted signal to the processor. Bars arrive from a single consume
// loop; the mutex only guards against concurrent position-close events.
type EngineRunner struct {
	cfg     engine.Config
	loc     *time.Location
	proc    *SignalProcessor
	history *RecentSignals
	metrics drepo.Metrics
	log     *logger.Logger

	mu      sync.Mutex
	days    map[string]*engine.TradingDay
	lastDay map[string]string // symbol -> local calendar day of last bar
}

// NewEngineRunner creates a runner; the timezone must already be validated
// by the engine config.
func NewEngineRunner(cfg engine.Config, proc *SignalProcessor, history *RecentSignals, metrics drepo.Metrics, log *logger.Logger) (*EngineRunner, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("engine runner timezone: %w", err)
	}
	return &EngineRunner{
		cfg:     cfg,
		loc:     loc,
		proc:    proc,
		history: history,
		metrics: metrics,
		log:     log,
		days:    make(map[string]*engine.TradingDay),
		lastDay: make(map[string]string),
	}, nil
}

// Process feeds one sealed one-minute bar into the symbol's session.
func (r *EngineRunner) Process(ctx context.Context, b *models.Bar) error {
	if b == nil {
		return fmt.Errorf("bar is nil")
	}

	r.mu.Lock()
	day, err := r.dayFor(b.Symbol)
	if err != nil {
		r.mu.Unlock()
		return err
	}

	localDay := util.TradingDay(b.OpenTime, r.loc)
	if prev, ok := r.lastDay[b.Symbol]; ok && prev != localDay {
		day.ResetDay()
		r.log.Info("session rolled",
			logger.String("symbol", b.Symbol),
			logger.String("day", localDay))
	}
	r.lastDay[b.Symbol] = localDay

	sig, err := day.OnBar(*b)
	r.mu.Unlock()
	if err != nil {
		r.metrics.RecordError("engine_bar")
		return fmt.Errorf("engine: %w", err)
	}

	r.metrics.RecordBarIngested(b.Symbol)
	r.metrics.RecordLastPrice(b.Symbol, b.Close)

	if sig == nil {
		return nil
	}
	sig.Symbol = b.Symbol
	r.metrics.RecordSignalEmitted(string(sig.Strategy), string(sig.Direction))
	if r.history != nil {
		r.history.Add(sig)
	}
	// The bar is committed to session state at this point. A delivery
	// failure must not bubble up as a bar error: the caller would buffer
	// and replay the bar, double-counting the minute in the cumulative
	// VWAP sums. The processor retries the signal instead.
	if err := r.proc.Process(ctx, sig); err != nil {
		r.log.Warn("signal delivery failed, queued for retry",
			logger.String("symbol", b.Symbol),
			logger.Error(err))
	}
	return nil
}

// PositionClosed reopens the symbol's single-signal gate.
func (r *EngineRunner) PositionClosed(symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	day, ok := r.days[symbol]
	if !ok {
		return fmt.Errorf("position closed for unknown symbol %s", symbol)
	}
	day.PositionClosed()
	return nil
}

// SessionSnapshot returns the current VWAP state for a symbol.
func (r *EngineRunner) SessionSnapshot(symbol string) (models.SessionSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day, ok := r.days[symbol]
	if !ok {
		return models.SessionSnapshot{}, false
	}
	return day.Snapshot(), true
}

// SignalOutstanding reports whether the symbol's gate is closed.
func (r *EngineRunner) SignalOutstanding(symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	day, ok := r.days[symbol]
	return ok && day.SignalOutstanding()
}

// dayFor lazily constructs the TradingDay for a symbol. Callers hold the lock.
func (r *EngineRunner) dayFor(symbol string) (*engine.TradingDay, error) {
	if day, ok := r.days[symbol]; ok {
		return day, nil
	}
	day, err := engine.NewTradingDay(r.cfg, r.log)
	if err != nil {
		return nil, fmt.Errorf("trading day for %s: %w", symbol, err)
	}
	r.days[symbol] = day
	return day, nil
}
