package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/homedash/internal/logger"
	"github.com/MrSnakeDoc/homedash/internal/metrics"
	"github.com/MrSnakeDoc/homedash/internal/sysstats"
)

// DefaultSampleInterval is used when no positive interval is configured.
const DefaultSampleInterval = 15 * time.Second

// StatsSampler periodically reads host stats. Each sample advances the
// collector's network meter, so the rate served to the dashboard covers at
// most one interval, and publishes the gauges to Prometheus.
type StatsSampler struct {
	collector *sysstats.Collector
	logger    logger.Logger
	interval  time.Duration
	timeout   time.Duration

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewStatsSampler creates a sampler. It does nothing until Start.
func NewStatsSampler(collector *sysstats.Collector, log logger.Logger, interval time.Duration) *StatsSampler {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &StatsSampler{
		collector: collector,
		logger:    log,
		interval:  interval,
		timeout:   interval / 2,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start takes a first sample and then one per interval until Stop or ctx is
// cancelled. A failing first sample is logged, not returned.
func (s *StatsSampler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	if err := s.Sample(ctx); err != nil {
		s.logger.Warn("initial host stats sample failed", logger.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Sample(ctx); err != nil {
					s.logger.Debug("host stats sample failed", logger.Error(err))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for it. Safe to call more than once.
func (s *StatsSampler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.started.Load() {
		<-s.done
	}
}

// Sample takes one reading and publishes it.
func (s *StatsSampler) Sample(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stats, err := s.collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collect host stats: %w", err)
	}
	metrics.RecordHostUsage(stats.CPU, stats.RAM, stats.Storage, stats.Network)
	return nil
}
