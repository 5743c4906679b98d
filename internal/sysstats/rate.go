package sysstats

import (
	"sync"
	"time"
)

// Sample is one reading of the cumulative network byte counters.
type Sample struct {
	At      time.Time
	RxBytes uint64
	TxBytes uint64
}

// RateMeter turns successive counter samples into per-second rates. It keeps
// only the previous sample.
type RateMeter struct {
	mu   sync.Mutex
	last Sample
	has  bool
}

func NewRateMeter() *RateMeter { return &RateMeter{} }

// Observe records s and returns the rates since the previous sample.
// The first sample, a non-increasing clock, or a counter reset yields zero.
func (m *RateMeter) Observe(s Sample) (rxPerSec, txPerSec float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, had := m.last, m.has
	m.last, m.has = s, true

	if !had {
		return 0, 0
	}
	elapsed := s.At.Sub(prev.At).Seconds()
	if elapsed <= 0 {
		return 0, 0
	}
	if s.RxBytes >= prev.RxBytes {
		rxPerSec = float64(s.RxBytes-prev.RxBytes) / elapsed
	}
	if s.TxBytes >= prev.TxBytes {
		txPerSec = float64(s.TxBytes-prev.TxBytes) / elapsed
	}
	return rxPerSec, txPerSec
}

// Reset forgets the previous sample.
func (m *RateMeter) Reset() {
	m.mu.Lock()
	m.last, m.has = Sample{}, false
	m.mu.Unlock()
}
