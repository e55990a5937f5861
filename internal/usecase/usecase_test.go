package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/engine"
)

type stubMetrics struct {
	mu       sync.Mutex
	counters map[string]int
}

func newStubMetrics() *stubMetrics { return &stubMetrics{counters: make(map[string]int)} }

func (m *stubMetrics) bump(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
}

func (m *stubMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

func (m *stubMetrics) RecordSignalEmitted(strategy, direction string) {
	m.bump("emitted:" + strategy + ":" + direction)
}
func (m *stubMetrics) RecordBarIngested(symbol string)         { m.bump("bars:" + symbol) }
func (m *stubMetrics) RecordSignalSent(backend, symbol string) { m.bump("sent:" + backend) }
func (m *stubMetrics) RecordError(kind string)                 { m.bump("err:" + kind) }
func (m *stubMetrics) RecordLastPrice(symbol string, price float64) {}
func (m *stubMetrics) RecordLatency(op string, seconds float64)     {}

type stubPublisher struct {
	mu      sync.Mutex
	signals []*models.Signal
	fail    bool
	closed  bool
}

func (p *stubPublisher) Publish(_ context.Context, s *models.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("broker down")
	}
	p.signals = append(p.signals, s)
	return nil
}

func (p *stubPublisher) PublishBatch(ctx context.Context, signals []*models.Signal) error {
	for _, s := range signals {
		if err := p.Publish(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *stubPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.signals)
}

func (p *stubPublisher) setFail(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = v
}

type stubStorage struct {
	mu      sync.Mutex
	signals []*models.Signal
}

func (s *stubStorage) Init(context.Context) error { return nil }

func (s *stubStorage) Store(_ context.Context, sig *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, sig)
	return nil
}

func (s *stubStorage) StoreBatch(ctx context.Context, sigs []*models.Signal) error {
	for _, sig := range sigs {
		if err := s.Store(ctx, sig); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubStorage) Query(context.Context, string, time.Time, time.Time, int) ([]*models.Signal, error) {
	return nil, nil
}

func (s *stubStorage) Health(context.Context) error { return nil }
func (s *stubStorage) Close() error                 { return nil }

// runnerConfig keeps every detector armed with permissive sizing so the
// runner tests can drive real emissions through the crossover path.
func runnerConfig() engine.Config {
	sizing := engine.StopTargetConfig{StopBuffer: 1, MinStop: 1, MaxStop: 50, RMultiple: 1.5, MinTarget: 0}
	return engine.Config{
		Timezone:    "UTC",
		VWAPMinBars: 2,
		RSIPeriod:   14,
		Crossover: engine.CrossoverConfig{
			Enabled:      true,
			Timeframe:    2,
			FastPeriod:   3,
			SlowPeriod:   5,
			HistoryExtra: 2,
			Sizing:       sizing,
		},
		Pullback: engine.PullbackConfig{
			Enabled:         true,
			Timeframe:       5,
			MinImpulseRange: 4,
			MinImpulseBody:  0.6,
			MinRetrace:      0.25,
			MaxRetrace:      0.75,
			MaxCloseDrift:   0.30,
			Sizing:          sizing,
		},
		Reversion: engine.ReversionConfig{
			Enabled:        true,
			SigmaTrigger:   2,
			TargetMode:     engine.TargetVWAP,
			MinVolumeRatio: 0.8,
			CooldownBars:   10,
			Sizing:         sizing,
		},
		Confluence: engine.ConfluenceConfig{
			MinScore:         0,
			VolumeLookback:   3,
			MinVolumeRatio:   0.8,
			MomentumLookback: 2,
			LevelTolerance:   5,
			RSIOverbought:    70,
			RSIOversold:      30,
			MaxExtension:     2,
		},
	}
}

func barFor(symbol string, ts time.Time, price, volume float64) *models.Bar {
	return &models.Bar{
		Symbol:   symbol,
		OpenTime: ts,
		Open:     price, High: price, Low: price, Close: price,
		Volume: volume,
	}
}
