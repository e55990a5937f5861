package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
)

func TestPositionEventsHandlerReopensGate(t *testing.T) {
	r, _, _, m := newRunnerForTest(t)
	ctx := context.Background()

	// establish a session so the close event has somewhere to land
	if err := r.Process(ctx, barFor("MES.FUT", dayStart, 100, 1000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := NewPositionEventsHandler("signalforge.positions", r, m)
	if h.Topic() != "signalforge.positions" {
		t.Fatalf("topic = %q", h.Topic())
	}

	ev := models.PositionEvent{
		Symbol:    "MES.FUT",
		Direction: models.Buy,
		ExitPrice: 101.25,
		Reason:    "target",
		ClosedAt:  time.Now().Add(-time.Second),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := h.Handle(ctx, body); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

func TestPositionEventsHandlerRejectsBadJSON(t *testing.T) {
	r, _, _, m := newRunnerForTest(t)
	h := NewPositionEventsHandler("signalforge.positions", r, m)

	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatalf("malformed payload must error")
	}
	if m.count("err:consumer_unmarshal") != 1 {
		t.Fatalf("unmarshal error not recorded")
	}
}

func TestPositionEventsHandlerRejectsInvalidEvent(t *testing.T) {
	r, _, _, m := newRunnerForTest(t)
	h := NewPositionEventsHandler("signalforge.positions", r, m)

	body, _ := json.Marshal(models.PositionEvent{ClosedAt: time.Now()})
	if err := h.Handle(context.Background(), body); err == nil {
		t.Fatalf("event without symbol must error")
	}
	if m.count("err:consumer_invalid_event") != 1 {
		t.Fatalf("validation error not recorded")
	}
}

func TestPositionEventsHandlerUnknownSymbol(t *testing.T) {
	r, _, _, m := newRunnerForTest(t)
	h := NewPositionEventsHandler("signalforge.positions", r, m)

	body, _ := json.Marshal(models.PositionEvent{Symbol: "NOPE.FUT", ClosedAt: time.Now()})
	if err := h.Handle(context.Background(), body); err == nil {
		t.Fatalf("unknown symbol must error")
	}
	if m.count("err:consumer_position") != 1 {
		t.Fatalf("position error not recorded")
	}
}
