package engine

import (
	"math"
	"testing"
)

func TestVWAPMatchesIndependentRecompute(t *testing.T) {
	vw := NewVWAPEngine(5)
	bars := []struct{ o, h, l, c, v float64 }{
		{100, 102, 99, 101, 1200},
		{101, 103, 100.5, 102.5, 900},
		{102.5, 102.75, 100, 100.25, 1500},
		{100.25, 101, 99.5, 100.75, 700},
		{100.75, 104, 100.5, 103.5, 2100},
	}
	var sumPV, sumV, sumPV2 float64
	for i, b := range bars {
		bar := barAt(i, b.o, b.h, b.l, b.c, b.v)
		vw.OnBar(bar)

		tp := (b.h + b.l + b.c) / 3
		sumPV += tp * b.v
		sumV += b.v
		sumPV2 += tp * tp * b.v
		want := sumPV / sumV
		if math.Abs(vw.VWAP()-want) > 1e-9 {
			t.Fatalf("bar %d: vwap %v, want %v", i, vw.VWAP(), want)
		}
		wantVar := sumPV2/sumV - want*want
		if wantVar < 0 {
			wantVar = 0
		}
		if math.Abs(vw.StdDev()-math.Sqrt(wantVar)) > 1e-9 {
			t.Fatalf("bar %d: stdDev %v, want %v", i, vw.StdDev(), math.Sqrt(wantVar))
		}
	}
}

func TestVWAPStdDevNeverNegativeAndNotReadyWhenFlat(t *testing.T) {
	vw := NewVWAPEngine(2)
	for i := 0; i < 10; i++ {
		vw.OnBar(flatBar(i, 100, 1000))
	}
	if vw.StdDev() != 0 {
		t.Fatalf("flat series stdDev = %v, want 0", vw.StdDev())
	}
	if vw.Ready() {
		t.Fatalf("engine must not be ready with zero stdDev")
	}
	if vw.VWAPDistance(105) != 0 {
		t.Fatalf("distance must be 0 when not ready")
	}
}

func TestVWAPRisingCloses(t *testing.T) {
	// 20 bars, closes 100..119, constant 2-point range, flat volume
	vw := NewVWAPEngine(10)
	prev := 0.0
	for i := 0; i < 20; i++ {
		c := 100 + float64(i)
		vw.OnBar(barAt(i, c-0.5, c+1, c-1, c, 1000))
		if vw.VWAP() <= prev {
			t.Fatalf("bar %d: vwap %v not strictly increasing past %v", i, vw.VWAP(), prev)
		}
		prev = vw.VWAP()
	}
	if !vw.Ready() {
		t.Fatalf("expected ready after 20 bars")
	}
	sd := vw.StdDev()
	if sd <= 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
		t.Fatalf("stdDev = %v, want finite positive", sd)
	}
}

func TestVWAPZeroVolumeBarStaysVisible(t *testing.T) {
	vw := NewVWAPEngine(1)
	vw.OnBar(barAt(0, 100, 100, 100, 100, 0))
	if vw.VWAP() != 100 {
		t.Fatalf("zero-volume bar must weigh as one unit, vwap = %v", vw.VWAP())
	}
}

func TestVWAPBandPositions(t *testing.T) {
	vw := NewVWAPEngine(2)
	seedVWAP(vw, 0) // vwap 100, stdDev 2
	if !vw.Ready() {
		t.Fatalf("expected ready")
	}
	if got := vw.BandPositionAt(105, 2); got != AboveBand {
		t.Fatalf("105 vs 2-sigma = %v, want above", got)
	}
	if got := vw.BandPositionAt(95, 2); got != BelowBand {
		t.Fatalf("95 vs 2-sigma = %v, want below", got)
	}
	if got := vw.BandPositionAt(101, 2); got != WithinBand {
		t.Fatalf("101 vs 2-sigma = %v, want within", got)
	}
}

func TestVWAPResetDayArchivesAndZeroes(t *testing.T) {
	vw := NewVWAPEngine(3)
	closes := []float64{100, 102, 104, 103}
	for i, c := range closes {
		vw.OnBar(barAt(i, c-0.5, c+1, c-1, c, 1000))
	}
	finalVWAP := vw.VWAP()
	vw.ResetDay()

	prior := vw.PriorDay()
	if prior == nil {
		t.Fatalf("expected prior day after qualifying session")
	}
	if prior.High != 105 || prior.Low != 99 || prior.Close != 103 {
		t.Fatalf("prior OHLC wrong: %+v", prior)
	}
	if math.Abs(prior.VWAP-finalVWAP) > 1e-9 {
		t.Fatalf("prior vwap %v, want %v", prior.VWAP, finalVWAP)
	}
	if vw.VWAP() != 0 || vw.StdDev() != 0 || vw.BarCount() != 0 {
		t.Fatalf("accumulators not zeroed after reset")
	}
	if vw.Ready() {
		t.Fatalf("engine must not be ready right after reset")
	}
}

func TestVWAPResetDayBelowMinimumKeepsNoPrior(t *testing.T) {
	vw := NewVWAPEngine(10)
	vw.OnBar(barAt(0, 100, 101, 99, 100, 1000))
	vw.ResetDay()
	if vw.PriorDay() != nil {
		t.Fatalf("short session must not archive prior-day levels")
	}
}

func TestVWAPValueArea(t *testing.T) {
	vw := NewVWAPEngine(1)
	// one-point bars so each lands in exactly one bin:
	// bin 100: 500, bin 101: 300, bin 99: 200
	vw.OnBar(barAt(0, 100.2, 100.9, 100.0, 100.5, 500))
	vw.OnBar(barAt(1, 101.2, 101.9, 101.0, 101.5, 300))
	vw.OnBar(barAt(2, 99.2, 99.9, 99.0, 99.5, 200))
	vw.ResetDay()

	prior := vw.PriorDay()
	if prior == nil {
		t.Fatalf("expected prior day")
	}
	if prior.POC != 100 {
		t.Fatalf("poc = %v, want 100", prior.POC)
	}
	// POC holds 500 of 1000; expansion adds the upper neighbor (300 > 200)
	// and reaches 800 >= 70%
	if prior.VAL != 100 {
		t.Fatalf("val = %v, want 100", prior.VAL)
	}
	if prior.VAH != 102 {
		t.Fatalf("vah = %v, want 102", prior.VAH)
	}
}

func TestNearbyPriorLevelsSortedAscending(t *testing.T) {
	vw := NewVWAPEngine(1)
	vw.OnBar(barAt(0, 100, 110, 90, 105, 1000))
	vw.ResetDay() // prior: high 110, low 90, close 105

	levels := vw.NearbyPriorLevels(106, 4)
	if len(levels) == 0 {
		t.Fatalf("expected levels within tolerance")
	}
	for i := 1; i < len(levels); i++ {
		if levels[i].Distance < levels[i-1].Distance {
			t.Fatalf("levels not ascending by distance: %+v", levels)
		}
	}
	if levels[0].Name != "prior_close" {
		t.Fatalf("nearest level = %s, want prior_close", levels[0].Name)
	}
	for _, l := range levels {
		if l.Distance > 4 {
			t.Fatalf("level %s outside tolerance: %v", l.Name, l.Distance)
		}
	}
}
