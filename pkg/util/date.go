package util

import (
    "strconv"
    "time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// MinuteOfDay returns the minute since local midnight in loc.
func MinuteOfDay(t time.Time, loc *time.Location) int {
    lt := t.In(loc)
    return lt.Hour()*60 + lt.Minute()
}

// TradingDay returns the local calendar day of t in loc, as YYYY-MM-DD.
func TradingDay(t time.Time, loc *time.Location) string {
    return t.In(loc).Format("2006-01-02")
}
