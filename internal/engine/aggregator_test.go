package engine

import (
	"testing"

	"SignalForge/internal/domain/models"
)

func TestAggregatorMergesAndSealsOnClockBoundary(t *testing.T) {
	agg := NewAggregator(2)
	var sealed []models.Bar
	agg.Subscribe(2, func(b models.Bar) { sealed = append(sealed, b) })

	agg.Ingest(barAt(0, 100, 102, 99, 101, 500))
	agg.Ingest(barAt(1, 101, 104, 100, 103, 700))
	if len(sealed) != 0 {
		t.Fatalf("nothing should seal while the bucket is open")
	}

	agg.Ingest(barAt(2, 103, 105, 102, 104, 300))
	if len(sealed) != 1 {
		t.Fatalf("sealed %d buckets, want 1", len(sealed))
	}
	got := sealed[0]
	if got.Open != 100 || got.High != 104 || got.Low != 99 || got.Close != 103 || got.Volume != 1200 {
		t.Fatalf("merged bar wrong: %+v", got)
	}
	if !got.OpenTime.Equal(sessionStart) {
		t.Fatalf("sealed bar keeps the bucket open time, got %v", got.OpenTime)
	}
}

func TestAggregatorGapSealsByClockNotByCount(t *testing.T) {
	agg := NewAggregator(2)
	var sealed []models.Bar
	agg.Subscribe(2, func(b models.Bar) { sealed = append(sealed, b) })

	// minute 2 is missing; minute 5 is missing
	for _, m := range []int{0, 1, 3, 4, 6} {
		agg.Ingest(flatBar(m, 100, 100))
	}

	// [0-1] sealed by 3, [3] alone sealed by 4, [4] alone sealed by 6
	if len(sealed) != 3 {
		t.Fatalf("sealed %d buckets, want 3", len(sealed))
	}
	if sealed[0].Volume != 200 {
		t.Fatalf("first bucket should merge two bars, volume %v", sealed[0].Volume)
	}
	if sealed[1].Volume != 100 || sealed[2].Volume != 100 {
		t.Fatalf("gap buckets must stay partial: %+v", sealed[1:])
	}
	if sealed[1].OpenTime.Equal(sealed[2].OpenTime) {
		t.Fatalf("distinct buckets share an open time")
	}
}

func TestAggregatorNoImplicitFinalFlush(t *testing.T) {
	agg := NewAggregator(5)
	var sealed int
	agg.Subscribe(5, func(models.Bar) { sealed++ })

	for m := 0; m < 5; m++ {
		agg.Ingest(flatBar(m, 100, 100))
	}
	if sealed != 0 {
		t.Fatalf("a complete-looking bucket must wait for proof the clock moved on")
	}
	open, ok := agg.Open(5)
	if !ok || open.Volume != 500 {
		t.Fatalf("open bucket missing or wrong: %+v ok=%v", open, ok)
	}
}

func TestAggregatorMultipleTimeframesIndependent(t *testing.T) {
	agg := NewAggregator(5, 2)
	counts := map[int]int{}
	agg.Subscribe(2, func(models.Bar) { counts[2]++ })
	agg.Subscribe(5, func(models.Bar) { counts[5]++ })

	for m := 0; m <= 10; m++ {
		agg.Ingest(flatBar(m, 100, 100))
	}
	// minute 10 seals the [8-9] 2m bucket and the [5-9] 5m bucket
	if counts[2] != 5 {
		t.Fatalf("2m seals = %d, want 5", counts[2])
	}
	if counts[5] != 2 {
		t.Fatalf("5m seals = %d, want 2", counts[5])
	}
}

func TestAggregatorResetDiscardsOpenBuckets(t *testing.T) {
	agg := NewAggregator(2)
	var sealed int
	agg.Subscribe(2, func(models.Bar) { sealed++ })

	agg.Ingest(flatBar(0, 100, 100))
	agg.Reset()
	if _, ok := agg.Open(2); ok {
		t.Fatalf("reset must drop the open bucket")
	}

	// the next bar starts a fresh bucket; nothing from before survives
	agg.Ingest(flatBar(1, 100, 100))
	agg.Ingest(flatBar(2, 100, 100))
	if sealed != 1 {
		t.Fatalf("sealed %d, want exactly the post-reset bucket", sealed)
	}
}
