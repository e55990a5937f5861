package engine

import (
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/pkg/util"
)

// Detector is the closed set of sub-strategy variants. Detection is a
// deterministic computation whose only side effects are the detector's own
// state; emission returns a signal-or-nil so replays are byte-for-byte
// reproducible.
type Detector interface {
	// Detect inspects one bar of the detector's own timeframe and returns a
	// signal candidate or nil.
	Detect(bar models.Bar) *models.Signal
	// Reset clears all internal state as part of the atomic day reset.
	Reset()
}

// maxDetectorHistory caps per-detector bar retention. Large enough for any
// sane period configuration, small enough to bound memory over long runs.
const maxDetectorHistory = 256

func trimBars(bars []models.Bar) []models.Bar {
	if len(bars) > maxDetectorHistory {
		copy(bars, bars[len(bars)-maxDetectorHistory:])
		bars = bars[:maxDetectorHistory]
	}
	return bars
}

func minuteOfDay(t time.Time, loc *time.Location) int {
	return util.MinuteOfDay(t, loc)
}

func closesOf(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// sizeStops derives stop and target from a protective extreme. The stop sits
// beyond the extreme by the configured buffer; the target is the stop
// distance times the R multiple. Returns ok=false when either distance falls
// outside its configured bounds.
func sizeStops(dir models.Direction, entry, extreme float64, cfg StopTargetConfig) (stop, target, stopDist, targetDist float64, ok bool) {
	if dir == models.Buy {
		stop = extreme - cfg.StopBuffer
		stopDist = entry - stop
	} else {
		stop = extreme + cfg.StopBuffer
		stopDist = stop - entry
	}
	if stopDist < cfg.MinStop || stopDist > cfg.MaxStop {
		return 0, 0, 0, 0, false
	}
	targetDist = stopDist * cfg.RMultiple
	if targetDist < cfg.MinTarget {
		return 0, 0, 0, 0, false
	}
	if dir == models.Buy {
		target = entry + targetDist
	} else {
		target = entry - targetDist
	}
	return stop, target, stopDist, targetDist, true
}
