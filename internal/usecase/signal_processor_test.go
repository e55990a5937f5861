package usecase

import (
	"context"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/pkg/logger"
)

func testSignal(symbol string) *models.Signal {
	return &models.Signal{
		Symbol:    symbol,
		Direction: models.Buy,
		Strategy:  models.TagCrossover,
		Timestamp: time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC),
	}
}

func TestProcessorRoutesToPublisher(t *testing.T) {
	pub := &stubPublisher{}
	m := newStubMetrics()
	p := NewSignalProcessor(pub, nil, m, logger.Nop(), "kafka", 100, time.Second)

	if err := p.Process(context.Background(), testSignal("MES.FUT")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.count() != 1 {
		t.Fatalf("expected signal published, got %d", pub.count())
	}
	if m.count("sent:kafka") != 1 {
		t.Fatalf("sent metric not recorded")
	}
}

func TestProcessorRoutesToStorage(t *testing.T) {
	store := &stubStorage{}
	p := NewSignalProcessor(nil, store, newStubMetrics(), logger.Nop(), "clickhouse", 100, time.Second)

	if err := p.Process(context.Background(), testSignal("MES.FUT")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.signals) != 1 {
		t.Fatalf("expected signal stored, got %d", len(store.signals))
	}
}

func TestProcessorLogBackendNeedsNoSink(t *testing.T) {
	p := NewSignalProcessor(nil, nil, newStubMetrics(), logger.Nop(), "log", 100, time.Second)
	if err := p.Process(context.Background(), testSignal("MES.FUT")); err != nil {
		t.Fatalf("log backend must not error: %v", err)
	}
}

func TestProcessorRejectsUnknownBackend(t *testing.T) {
	m := newStubMetrics()
	p := NewSignalProcessor(nil, nil, m, logger.Nop(), "carrier-pigeon", 100, time.Second)
	if err := p.Process(context.Background(), testSignal("MES.FUT")); err == nil {
		t.Fatalf("unknown backend must error")
	}
	if m.count("err:deliver") != 1 {
		t.Fatalf("delivery error not recorded")
	}
}

func TestProcessorNilSignal(t *testing.T) {
	p := NewSignalProcessor(&stubPublisher{}, nil, newStubMetrics(), logger.Nop(), "kafka", 100, time.Second)
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("nil signal must error")
	}
}

func TestProcessorBatch(t *testing.T) {
	pub := &stubPublisher{}
	p := NewSignalProcessor(pub, nil, newStubMetrics(), logger.Nop(), "kafka", 100, time.Second)

	batch := []*models.Signal{testSignal("MES.FUT"), testSignal("ES.FUT")}
	if err := p.ProcessBatch(context.Background(), batch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.count() != 2 {
		t.Fatalf("expected 2 published, got %d", pub.count())
	}
	if err := p.ProcessBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch is a no-op: %v", err)
	}
}

func TestProcessorBuffersFailedDeliveryForRetry(t *testing.T) {
	pub := &stubPublisher{fail: true}
	m := newStubMetrics()
	p := NewSignalProcessor(pub, nil, m, logger.Nop(), "kafka", 100, time.Second)

	if err := p.Process(context.Background(), testSignal("MES.FUT")); err == nil {
		t.Fatalf("failed delivery must error")
	}
	if m.count("err:deliver") != 1 {
		t.Fatalf("delivery error not recorded")
	}

	pub.setFail(false)
	p.Start(context.Background())
	defer p.Close()

	deadline := time.Now().Add(2 * time.Second)
	for pub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if pub.count() != 1 {
		t.Fatalf("buffered signal not redelivered, got %d", pub.count())
	}
	if m.count("sent:kafka") != 1 {
		t.Fatalf("retry delivery not counted as sent")
	}
}

func TestProcessorCloseReleasesSinks(t *testing.T) {
	pub := &stubPublisher{}
	p := NewSignalProcessor(pub, nil, newStubMetrics(), logger.Nop(), "kafka", 100, time.Second)
	p.Close()
	if !pub.closed {
		t.Fatalf("publisher not closed")
	}
}
