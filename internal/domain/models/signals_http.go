package models

// Requests for the signal HTTP endpoints. Defined in domain for consistency and reuse.

type RecentSignalsRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	N      int    `query:"n" json:"n" default:"50" validate:"gte=1,lte=1000"`
}

type SessionRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type PositionClosedRequest struct {
	Symbol    string  `json:"symbol" validate:"required"`
	Direction string  `json:"direction" validate:"omitempty,oneof=buy sell"`
	ExitPrice float64 `json:"exit_price"`
	Reason    string  `json:"reason" default:"manual" validate:"oneof=stop target manual session_end"`
}
