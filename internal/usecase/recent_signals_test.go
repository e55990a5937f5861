package usecase

import (
	"context"
	"fmt"
	"testing"
)

func TestRecentSignalsNewestFirst(t *testing.T) {
	r := NewRecentSignals(8)
	for i := 0; i < 3; i++ {
		s := testSignal("MES.FUT")
		s.EntryPrice = float64(100 + i)
		r.Add(s)
	}

	got, err := r.Recent(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 signals, got %d", len(got))
	}
	if got[0].EntryPrice != 102 || got[2].EntryPrice != 100 {
		t.Fatalf("not newest first: %v, %v", got[0].EntryPrice, got[2].EntryPrice)
	}
}

func TestRecentSignalsEvictsOldest(t *testing.T) {
	r := NewRecentSignals(4)
	for i := 0; i < 6; i++ {
		s := testSignal("MES.FUT")
		s.EntryPrice = float64(i)
		r.Add(s)
	}

	got, _ := r.Recent(context.Background(), "", 0)
	if len(got) != 4 {
		t.Fatalf("ring must hold 4, got %d", len(got))
	}
	if got[0].EntryPrice != 5 || got[3].EntryPrice != 2 {
		t.Fatalf("eviction wrong: newest %v oldest %v", got[0].EntryPrice, got[3].EntryPrice)
	}
}

func TestRecentSignalsSymbolFilterAndLimit(t *testing.T) {
	r := NewRecentSignals(16)
	for i := 0; i < 4; i++ {
		r.Add(testSignal(fmt.Sprintf("SYM%d", i%2)))
	}

	got, _ := r.Recent(context.Background(), "SYM0", 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 for SYM0, got %d", len(got))
	}
	for _, s := range got {
		if s.Symbol != "SYM0" {
			t.Fatalf("filter leaked %s", s.Symbol)
		}
	}

	got, _ = r.Recent(context.Background(), "", 1)
	if len(got) != 1 {
		t.Fatalf("limit ignored, got %d", len(got))
	}
}

func TestRecentSignalsEmpty(t *testing.T) {
	r := NewRecentSignals(4)
	got, err := r.Recent(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result")
	}
}
