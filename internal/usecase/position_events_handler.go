package usecase

import (
	"context"
	"encoding/json"
	"time"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	pkgkafka "SignalForge/pkg/kafka"
)

// PositionEventsHandler consumes position-close notifications from the
// order-execution collaborator and reopens the single-signal gate.
type PositionEventsHandler struct {
	topic   string
	runner  *EngineRunner
	metrics drepo.Metrics
}

func NewPositionEventsHandler(topic string, runner *EngineRunner, metrics drepo.Metrics) *PositionEventsHandler {
	return &PositionEventsHandler{topic: topic, runner: runner, metrics: metrics}
}

func (h *PositionEventsHandler) Topic() string { return h.topic }

func (h *PositionEventsHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.PositionEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if err := ev.Validate(); err != nil {
		h.metrics.RecordError("consumer_invalid_event")
		return err
	}
	// E2E latency from close time to now (approx)
	h.metrics.RecordLatency("position_event_e2e_seconds", time.Since(ev.ClosedAt).Seconds())

	if err := h.runner.PositionClosed(ev.Symbol); err != nil {
		h.metrics.RecordError("consumer_position")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*PositionEventsHandler)(nil)
