package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	"SignalForge/pkg/logger"
)

// SignalProcessor routes emitted signals to the configured delivery backend.
// A failed delivery is buffered and retried by the background flush loop:
// the signal is the unit of retry, never the bar that produced it, since the
// bar is already folded into cumulative session state by the time a signal
// exists.
type SignalProcessor struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	log     *logger.Logger
	backend string
	batchSz int
	batchTO time.Duration

	retryCh chan *models.Signal
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
}

// NewSignalProcessor creates a new SignalProcessor instance.
func NewSignalProcessor(
	pub drepo.Publisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	log *logger.Logger,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *SignalProcessor {
	retryCap := batchSz
	if retryCap <= 0 {
		retryCap = 64
	}
	return &SignalProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		log:     log,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
		retryCh: make(chan *models.Signal, retryCap),
		stopCh:  make(chan struct{}),
	}
}

// Process delivers a single signal to the configured backend. On failure the
// signal is queued for the retry loop and the error is returned.
func (p *SignalProcessor) Process(ctx context.Context, s *models.Signal) error {
	if s == nil {
		return fmt.Errorf("signal is nil")
	}

	start := time.Now()
	if err := p.deliver(ctx, s); err != nil {
		p.metrics.RecordError("deliver")
		select {
		case p.retryCh <- s:
		default:
			p.metrics.RecordError("deliver_buffer_full")
		}
		return fmt.Errorf("deliver signal: %w", err)
	}

	p.metrics.RecordSignalSent(p.backend, s.Symbol)
	p.metrics.RecordLatency("deliver", time.Since(start).Seconds())

	return nil
}

// deliver runs the backend switch once, with no buffering or metrics.
func (p *SignalProcessor) deliver(ctx context.Context, s *models.Signal) error {
	switch p.backend {
	case "kafka", "redis", "webhook":
		return p.pub.Publish(ctx, s)
	case "clickhouse":
		return p.store.Store(ctx, s)
	case "log":
		p.log.Info("signal",
			logger.String("symbol", s.Symbol),
			logger.String("strategy", string(s.Strategy)),
			logger.String("direction", string(s.Direction)),
			logger.Float64("entry", s.EntryPrice),
			logger.Float64("stop", s.StopLoss),
			logger.Float64("target", s.TargetPrice))
		return nil
	default:
		return fmt.Errorf("unknown backend: %s", p.backend)
	}
}

// Start launches the background retry loop for buffered signals.
func (p *SignalProcessor) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case s := <-p.retryCh:
				if s == nil {
					continue
				}
				if err := p.deliver(ctx, s); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("deliver_retry")
					time.Sleep(backoff)
					select {
					case p.retryCh <- s:
					default:
						p.metrics.RecordError("deliver_buffer_full")
					}
				} else {
					backoff = 50 * time.Millisecond
					p.metrics.RecordSignalSent(p.backend, s.Symbol)
				}
			}
		}
	}()
}

// ProcessBatch delivers multiple signals in a batch.
func (p *SignalProcessor) ProcessBatch(ctx context.Context, signals []*models.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka", "redis", "webhook":
		err = p.pub.PublishBatch(ctx, signals)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, signals)
	case "log":
		for _, s := range signals {
			p.log.Info("signal",
				logger.String("symbol", s.Symbol),
				logger.String("strategy", string(s.Strategy)),
				logger.String("direction", string(s.Direction)))
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("deliver_batch")
		return fmt.Errorf("deliver batch: %w", err)
	}

	for _, s := range signals {
		p.metrics.RecordSignalSent(p.backend, s.Symbol)
	}
	p.metrics.RecordLatency("deliver_batch", time.Since(start).Seconds())

	return nil
}

// Close stops the retry loop and closes underlying resources.
func (p *SignalProcessor) Close() {
	p.mu.Lock()
	if p.started {
		p.started = false
		close(p.stopCh)
	}
	p.mu.Unlock()

	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
