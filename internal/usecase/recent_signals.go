package usecase

import (
	"context"
	"sync"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
)

// RecentSignals is an in-memory ring of the most recently emitted signals,
// serving the read API without touching the delivery backend.
type RecentSignals struct {
	mu   sync.RWMutex
	buf  []*models.Signal
	next int
	size int
}

// NewRecentSignals creates a ring holding up to capacity signals.
func NewRecentSignals(capacity int) *RecentSignals {
	if capacity <= 0 {
		capacity = 256
	}
	return &RecentSignals{buf: make([]*models.Signal, capacity)}
}

// Add records a signal, evicting the oldest when full.
func (r *RecentSignals) Add(s *models.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = s
	r.next = (r.next + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

// Recent returns up to n signals for a symbol, newest first. An empty symbol
// matches everything.
func (r *RecentSignals) Recent(_ context.Context, symbol string, n int) ([]*models.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 || n > r.size {
		n = r.size
	}
	out := make([]*models.Signal, 0, n)
	for i := 1; i <= r.size && len(out) < n; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		s := r.buf[idx]
		if s == nil {
			break
		}
		if symbol != "" && s.Symbol != symbol {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

var _ drepo.SignalHistory = (*RecentSignals)(nil)
