package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseIntDefault(t *testing.T) {
    if got := ParseIntDefault("42", 7); got != 42 {
        t.Fatalf("expected 42, got %d", got)
    }
    if got := ParseIntDefault("", 7); got != 7 {
        t.Fatalf("empty must fall back, got %d", got)
    }
    if got := ParseIntDefault("x", 7); got != 7 {
        t.Fatalf("garbage must fall back, got %d", got)
    }
}
func TestMinuteOfDay(t *testing.T) {
    loc, err := time.LoadLocation("America/New_York")
    if err != nil {
        t.Fatalf("load location: %v", err)
    }
    // 14:30 UTC is 09:30 in New York during summer
    ts := time.Date(2024, 7, 10, 14, 30, 0, 0, time.UTC)
    if got := MinuteOfDay(ts, loc); got != 570 {
        t.Fatalf("expected 570, got %d", got)
    }
}

func TestTradingDayRollsWithTimezone(t *testing.T) {
    loc, err := time.LoadLocation("America/New_York")
    if err != nil {
        t.Fatalf("load location: %v", err)
    }
    // 01:00 UTC is still the previous evening in New York
    ts := time.Date(2024, 7, 11, 1, 0, 0, 0, time.UTC)
    if got := TradingDay(ts, loc); got != "2024-07-10" {
        t.Fatalf("unexpected trading day %s", got)
    }
}
