package databento

import (
	"testing"
	"time"
)

func TestParseFrameOHLCV(t *testing.T) {
	b := []byte(`{"type":"ohlcv","ts":"2026-01-01T12:00:00Z","open":6000,"high":6001,"low":5999,"close":6000.5,"volume":100,"symbol":"MES.FUT"}`)
	bar, err := parseFrame(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bar == nil {
		t.Fatalf("expected a bar")
	}
	want := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if !bar.OpenTime.Equal(want) {
		t.Fatalf("unexpected open time %v", bar.OpenTime)
	}
	if bar.Symbol != "MES.FUT" {
		t.Fatalf("unexpected symbol %s", bar.Symbol)
	}
	if bar.Open != 6000 || bar.High != 6001 || bar.Low != 5999 || bar.Close != 6000.5 || bar.Volume != 100 {
		t.Fatalf("unexpected fields: %+v", bar)
	}
	if err := bar.Validate(); err != nil {
		t.Fatalf("parsed bar should validate: %v", err)
	}
}

func TestParseFrameEpochSeconds(t *testing.T) {
	b := []byte(`{"type":"ohlcv","ts":"1767268800","open":6000,"high":6001,"low":5999,"close":6000.5,"volume":100,"symbol":"MES.FUT"}`)
	bar, err := parseFrame(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := bar.OpenTime.Unix(); got != 1767268800 {
		t.Fatalf("unexpected epoch %d", got)
	}
}

func TestParseFrameStatusIsSkipped(t *testing.T) {
	bar, err := parseFrame([]byte(`{"type":"status","message":"authenticated"}`))
	if err != nil {
		t.Fatalf("status frames are not errors: %v", err)
	}
	if bar != nil {
		t.Fatalf("status frames carry no bar")
	}
}

func TestParseFrameErrorMessage(t *testing.T) {
	bar, err := parseFrame([]byte(`{"type":"error","message":"bad subscription"}`))
	if err == nil {
		t.Fatalf("expected gateway error")
	}
	if bar != nil {
		t.Fatalf("error frames carry no bar")
	}
}

func TestParseFrameBadTimestamp(t *testing.T) {
	if _, err := parseFrame([]byte(`{"type":"ohlcv","ts":"not-a-time","symbol":"MES.FUT"}`)); err == nil {
		t.Fatalf("expected timestamp error")
	}
}

func TestParseFrameMalformedJSON(t *testing.T) {
	if _, err := parseFrame([]byte(`{"type":`)); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}
