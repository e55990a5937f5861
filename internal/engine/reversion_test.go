package engine

import (
	"testing"
	"time"

	"SignalForge/internal/domain/models"
)

// newReversionForTest returns a detector over a pre-seeded engine pinned at
// vwap 100, stdDev 2. The engine is not fed further, so bands stay exact.
func newReversionForTest(cfg Config) (*ReversionDetector, *VWAPEngine) {
	vw := NewVWAPEngine(cfg.VWAPMinBars)
	seedVWAP(vw, 0)
	scorer := NewConfluenceScorer(cfg.Confluence)
	return NewReversionDetector(cfg.Reversion, cfg.Confluence, cfg.RSIPeriod, time.UTC, vw, scorer), vw
}

// warmReversion gives the detector volume history below the trigger band.
func warmReversion(d *ReversionDetector, t *testing.T) {
	t.Helper()
	for m := 2; m <= 4; m++ {
		if sig := d.Detect(flatBar(m, 100.5, 1000)); sig != nil {
			t.Fatalf("calm bar produced a signal: %+v", sig)
		}
		if on, _ := d.Watching(); on {
			t.Fatalf("calm bar armed a watch")
		}
	}
}

var shortTrigger = barAt(5, 104.5, 106.5, 104, 106, 1200) // close 3 sigma above

func TestReversionShortWatchThenConfirm(t *testing.T) {
	d, _ := newReversionForTest(testConfig())
	warmReversion(d, t)

	if sig := d.Detect(shortTrigger); sig != nil {
		t.Fatalf("trigger bar itself must not signal: %+v", sig)
	}
	on, dir := d.Watching()
	if !on || dir != models.Sell {
		t.Fatalf("expected a short watch, got on=%v dir=%v", on, dir)
	}

	// opens beyond the 1-sigma band (102), closes between band and mean
	sig := d.Detect(barAt(6, 104, 104.2, 100.8, 101, 1400))
	if sig == nil {
		t.Fatalf("expected the confirmation bar to signal")
	}
	if sig.Direction != models.Sell || sig.Strategy != models.TagReversion {
		t.Fatalf("signal = %+v", sig)
	}
	if sig.EntryPrice != 101 || sig.StopLoss != 105 || sig.TargetPrice != 100 {
		t.Fatalf("entry/stop/target = %v/%v/%v, want 101/105/100", sig.EntryPrice, sig.StopLoss, sig.TargetPrice)
	}
	if sig.StopDistance != 4 || sig.TargetDistance != 1 {
		t.Fatalf("distances = %v/%v, want 4/1", sig.StopDistance, sig.TargetDistance)
	}
	if on, _ := d.Watching(); on {
		t.Fatalf("watch must clear after emission")
	}
}

func TestReversionCooldownSuppressesRearm(t *testing.T) {
	d, _ := newReversionForTest(testConfig())
	warmReversion(d, t)
	d.Detect(shortTrigger)
	if sig := d.Detect(barAt(6, 104, 104.2, 100.8, 101, 1400)); sig == nil {
		t.Fatalf("setup emission failed")
	}

	// a fresh overextension inside the cooldown is ignored
	if sig := d.Detect(barAt(7, 104.5, 106.5, 104, 106, 1200)); sig != nil {
		t.Fatalf("signal inside cooldown: %+v", sig)
	}
	if on, _ := d.Watching(); on {
		t.Fatalf("cooldown must block arming")
	}

	// burn the rest of the cooldown with calm bars
	for m := 8; m <= 16; m++ {
		d.Detect(flatBar(m, 100.5, 1000))
	}
	d.Detect(barAt(17, 104.5, 106.5, 104, 106, 1200))
	if on, dir := d.Watching(); !on || dir != models.Sell {
		t.Fatalf("expired cooldown must allow re-arming, on=%v dir=%v", on, dir)
	}
}

func TestReversionLowVolumeConfirmKeepsWatch(t *testing.T) {
	d, _ := newReversionForTest(testConfig())
	warmReversion(d, t)
	d.Detect(shortTrigger)

	// perfect shape, thin volume: rejected, watch survives
	if sig := d.Detect(barAt(6, 104, 104.2, 100.8, 101, 500)); sig != nil {
		t.Fatalf("thin confirmation must not signal: %+v", sig)
	}
	if on, _ := d.Watching(); !on {
		t.Fatalf("rejected confirmation must not clear the watch")
	}

	if sig := d.Detect(barAt(7, 104, 104.2, 100.8, 101, 1400)); sig == nil {
		t.Fatalf("next proper confirmation should still signal")
	}
}

func TestReversionWatchCancelledWhenPriceCrossesMean(t *testing.T) {
	d, _ := newReversionForTest(testConfig())
	warmReversion(d, t)
	d.Detect(shortTrigger)

	// price snaps straight through the mean with no tradeable entry
	if sig := d.Detect(barAt(6, 100.8, 100.9, 99.2, 99.5, 1400)); sig != nil {
		t.Fatalf("cross through the mean is not a confirmation: %+v", sig)
	}
	if on, _ := d.Watching(); on {
		t.Fatalf("completed reversion must cancel the watch")
	}
}

func TestReversionLongMirror(t *testing.T) {
	d, _ := newReversionForTest(testConfig())
	warmReversion(d, t)

	d.Detect(barAt(5, 95.5, 96, 93.5, 94, 1200)) // 3 sigma below
	if on, dir := d.Watching(); !on || dir != models.Buy {
		t.Fatalf("expected a long watch, on=%v dir=%v", on, dir)
	}

	sig := d.Detect(barAt(6, 97.5, 99.4, 97.4, 99.2, 1400))
	if sig == nil {
		t.Fatalf("expected a buy confirmation")
	}
	if sig.Direction != models.Buy {
		t.Fatalf("direction = %v, want buy", sig.Direction)
	}
	if sig.StopLoss != 95 || sig.TargetPrice != 100 {
		t.Fatalf("stop/target = %v/%v, want 95/100", sig.StopLoss, sig.TargetPrice)
	}
}

func TestReversionRMultipleTarget(t *testing.T) {
	cfg := testConfig()
	cfg.Reversion.TargetMode = TargetRMultiple
	d, _ := newReversionForTest(cfg)
	warmReversion(d, t)
	d.Detect(shortTrigger)

	sig := d.Detect(barAt(6, 104, 104.2, 100.8, 101, 1400))
	if sig == nil {
		t.Fatalf("expected a signal")
	}
	// stop distance 4 at 1.5R
	if sig.TargetDistance != 6 || sig.TargetPrice != 95 {
		t.Fatalf("target = %v at distance %v, want 95 at 6", sig.TargetPrice, sig.TargetDistance)
	}
}

func TestReversionIdleUntilEngineReady(t *testing.T) {
	cfg := testConfig()
	vw := NewVWAPEngine(cfg.VWAPMinBars) // empty: not ready
	d := NewReversionDetector(cfg.Reversion, cfg.Confluence, cfg.RSIPeriod, time.UTC, vw, NewConfluenceScorer(cfg.Confluence))

	if sig := d.Detect(barAt(0, 104.5, 106.5, 104, 106, 1200)); sig != nil {
		t.Fatalf("no engine statistics, no signal")
	}
	if on, _ := d.Watching(); on {
		t.Fatalf("must not arm before the engine is ready")
	}
}

func TestReversionResetClearsWatchAndCooldown(t *testing.T) {
	d, _ := newReversionForTest(testConfig())
	warmReversion(d, t)
	d.Detect(shortTrigger)
	d.Reset()

	if on, _ := d.Watching(); on {
		t.Fatalf("reset must clear the watch")
	}
	// no cooldown either: arming works on the very next overextension
	warmReversion(d, t)
	d.Detect(barAt(5, 104.5, 106.5, 104, 106, 1200))
	if on, _ := d.Watching(); !on {
		t.Fatalf("reset must clear cooldown")
	}
}
