package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MrSnakeDoc/homedash/internal/logger"
	"github.com/MrSnakeDoc/homedash/internal/metrics"
	"github.com/MrSnakeDoc/homedash/internal/sysstats"
)

type countingSource struct {
	calls atomic.Int32
	fail  bool
}

func (s *countingSource) CPUPercent(context.Context) (float64, error) {
	s.calls.Add(1)
	if s.fail {
		return 0, errors.New("no cpu")
	}
	return 42, nil
}

func (s *countingSource) Memory(context.Context) (sysstats.MemoryUsage, error) {
	return sysstats.MemoryUsage{Total: 4, Used: 1}, nil
}

func (s *countingSource) Filesystems(context.Context) ([]sysstats.FilesystemUsage, error) {
	return []sysstats.FilesystemUsage{{Mountpoint: "/", Total: 10, Used: 5}}, nil
}

func (s *countingSource) NetCounters(context.Context) (uint64, uint64, error) {
	return 0, 0, nil
}

func TestStatsSamplerPublishesGauges(t *testing.T) {
	src := &countingSource{}
	s := NewStatsSampler(sysstats.NewCollector(src, nil), logger.NewNop(), 10*time.Millisecond)

	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	s.Stop()

	if n := src.calls.Load(); n < 3 {
		t.Fatalf("sampled %d times, want at least 3", n)
	}
	if got := testutil.ToFloat64(metrics.HostUsagePercent.WithLabelValues("cpu")); got != 42 {
		t.Errorf("cpu gauge = %v, want 42", got)
	}
	if got := testutil.ToFloat64(metrics.HostUsagePercent.WithLabelValues("storage")); got != 50 {
		t.Errorf("storage gauge = %v, want 50", got)
	}

	after := src.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if src.calls.Load() != after {
		t.Error("sampler kept running after Stop")
	}
}

func TestStatsSamplerSampleError(t *testing.T) {
	s := NewStatsSampler(sysstats.NewCollector(&countingSource{fail: true}, nil), logger.NewNop(), time.Second)
	if err := s.Sample(context.Background()); err == nil {
		t.Fatal("Sample() error = nil, want failure")
	}
}

func TestStatsSamplerStopWithoutStart(t *testing.T) {
	s := NewStatsSampler(sysstats.NewCollector(&countingSource{}, nil), logger.NewNop(), 0)
	if s.interval != DefaultSampleInterval {
		t.Errorf("interval = %v, want %v", s.interval, DefaultSampleInterval)
	}
	s.Stop()
}
