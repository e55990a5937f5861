package models

import (
	"fmt"
	"time"
)

// PositionEvent is a notification from the order-execution collaborator that
// an outstanding position reached a terminal state. Receiving one reopens the
// single-signal gate.
type PositionEvent struct {
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	ExitPrice float64   `json:"exit_price"`
	Reason    string    `json:"reason"` // stop, target, manual, session_end
	ClosedAt  time.Time `json:"closed_at"`
}

// Validate checks the minimum fields needed to act on the event.
func (e PositionEvent) Validate() error {
	if e.Symbol == "" {
		return fmt.Errorf("position event: empty symbol")
	}
	if e.ClosedAt.IsZero() {
		return fmt.Errorf("position event: zero close time")
	}
	return nil
}
