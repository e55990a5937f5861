package engine

import (
	"testing"
	"time"

	"SignalForge/internal/domain/models"
)

func newCrossoverForTest(cfg Config) (*CrossoverDetector, *VWAPEngine) {
	vw := NewVWAPEngine(cfg.VWAPMinBars)
	scorer := NewConfluenceScorer(cfg.Confluence)
	return NewCrossoverDetector(cfg.Crossover, cfg.Confluence, cfg.RSIPeriod, time.UTC, vw, scorer), vw
}

// feeds a decline into the detector so the fast average sits below the slow
// one, then returns the minute index of the next bar slot.
func feedDecline(d *CrossoverDetector, t *testing.T) int {
	t.Helper()
	for i, c := range []float64{100, 99, 98, 97, 96, 95} {
		if sig := d.Detect(barAt(2*i, c+0.3, c+0.5, c-0.5, c, 1000)); sig != nil {
			t.Fatalf("bar %d: unexpected signal during warmup: %+v", i, sig)
		}
	}
	return 12
}

func TestCrossoverEmitsBuyOnConfirmedCross(t *testing.T) {
	d, _ := newCrossoverForTest(testConfig())
	m := feedDecline(d, t)

	// a strong bullish bar snaps the fast average over the slow one
	sig := d.Detect(barAt(m, 99, 102.5, 98.5, 102, 1500))
	if sig == nil {
		t.Fatalf("expected a buy signal on the confirming cross")
	}
	if sig.Direction != models.Buy || sig.Strategy != models.TagCrossover {
		t.Fatalf("signal = %+v", sig)
	}
	if sig.EntryPrice != 102 {
		t.Fatalf("entry = %v, want the confirming close", sig.EntryPrice)
	}
	// stop one point under the bar low, target at 1.5R
	if sig.StopLoss != 97.5 {
		t.Fatalf("stop = %v, want 97.5", sig.StopLoss)
	}
	if sig.StopDistance != 4.5 || sig.TargetDistance != 6.75 {
		t.Fatalf("distances = %v/%v, want 4.5/6.75", sig.StopDistance, sig.TargetDistance)
	}
	if sig.TargetPrice != 108.75 {
		t.Fatalf("target = %v, want 108.75", sig.TargetPrice)
	}
}

func TestCrossoverRequiresConfirmingCandle(t *testing.T) {
	d, _ := newCrossoverForTest(testConfig())
	m := feedDecline(d, t)

	// same closes, but the bar itself is bearish: cross without confirmation
	if sig := d.Detect(barAt(m, 103, 103.5, 98.5, 102, 1500)); sig != nil {
		t.Fatalf("bearish bar must not confirm a bullish cross: %+v", sig)
	}
}

func TestCrossoverBodyRatioFilter(t *testing.T) {
	cfg := testConfig()
	cfg.Crossover.MinBodyRatio = 0.8
	d, _ := newCrossoverForTest(cfg)
	m := feedDecline(d, t)

	// body 3 over range 4 is 0.75, under the configured floor
	if sig := d.Detect(barAt(m, 99, 102.5, 98.5, 102, 1500)); sig != nil {
		t.Fatalf("thin-bodied bar must be filtered: %+v", sig)
	}
}

func TestCrossoverInsufficientHistory(t *testing.T) {
	d, _ := newCrossoverForTest(testConfig())
	// slow 5 plus extra 2 means nothing before the seventh bar
	for i := 0; i < 6; i++ {
		if sig := d.Detect(barAt(2*i, 95, 103, 94, 102, 1500)); sig != nil {
			t.Fatalf("bar %d: signal before minimum history", i)
		}
	}
}

func TestCrossoverOutsideWindow(t *testing.T) {
	cfg := testConfig()
	cfg.Crossover.Window = TimeWindow{Start: 570, End: 690} // sessionStart is 15:00 (900)
	d, _ := newCrossoverForTest(cfg)
	m := feedDecline(d, t)

	if sig := d.Detect(barAt(m, 99, 102.5, 98.5, 102, 1500)); sig != nil {
		t.Fatalf("signal outside the strategy window: %+v", sig)
	}
}

func TestCrossoverResetClearsHistory(t *testing.T) {
	d, _ := newCrossoverForTest(testConfig())
	m := feedDecline(d, t)
	d.Reset()

	// post-reset, the same confirming bar has no history behind it
	if sig := d.Detect(barAt(m, 99, 102.5, 98.5, 102, 1500)); sig != nil {
		t.Fatalf("reset must empty history: %+v", sig)
	}
}
