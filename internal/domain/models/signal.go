package models

import "time"

// Direction is the side of an emitted signal.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// StrategyTag identifies which detector produced a signal.
type StrategyTag string

const (
	TagCrossover StrategyTag = "EMAX"
	TagPullback  StrategyTag = "PB"
	TagReversion StrategyTag = "VR"
)

// Factor is one confluence check, kept verbatim on the signal for
// diagnostics. Never aggregated or summarized.
type Factor struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// Bands holds the session sigma bands around VWAP.
type Bands struct {
	Upper1 float64 `json:"upper1"`
	Lower1 float64 `json:"lower1"`
	Upper2 float64 `json:"upper2"`
	Lower2 float64 `json:"lower2"`
	Upper3 float64 `json:"upper3"`
	Lower3 float64 `json:"lower3"`
}

// PriorDayLevels are the archived aggregates of the previous session.
type PriorDayLevels struct {
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
	VWAP  float64 `json:"vwap"`
	VAH   float64 `json:"vah"`
	VAL   float64 `json:"val"`
	POC   float64 `json:"poc"`
}

// SessionSnapshot captures the VWAP engine state at signal time.
type SessionSnapshot struct {
	VWAP     float64         `json:"vwap"`
	StdDev   float64         `json:"std_dev"`
	Bands    Bands           `json:"bands"`
	PriorDay *PriorDayLevels `json:"prior_day,omitempty"`
}

// Signal is a one-shot trade intent handed to the external order-execution
// collaborator. The engine keeps no position state beyond the outstanding
// gate; ownership transfers on emission.
type Signal struct {
	Symbol          string          `json:"symbol,omitempty"`
	Direction       Direction       `json:"direction"`
	EntryPrice      float64         `json:"entry_price"`
	StopLoss        float64         `json:"stop_loss"`
	TargetPrice     float64         `json:"target_price"`
	StopDistance    float64         `json:"stop_distance"`
	TargetDistance  float64         `json:"target_distance"`
	Strategy        StrategyTag     `json:"strategy"`
	ConfluenceScore int             `json:"confluence_score"`
	ConfluenceMax   int             `json:"confluence_max"`
	Factors         []Factor        `json:"factors"`
	Session         SessionSnapshot `json:"session"`
	Timestamp       time.Time       `json:"timestamp"`
}
