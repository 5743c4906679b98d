package sysstats

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

// MemoryUsage is the host memory reading.
type MemoryUsage struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
}

// FilesystemUsage is one mounted filesystem.
type FilesystemUsage struct {
	Mountpoint string `json:"mountpoint"`
	Device     string `json:"device"`
	Total      uint64 `json:"total"`
	Used       uint64 `json:"used"`
}

// Source provides raw host readings.
type Source interface {
	CPUPercent(ctx context.Context) (float64, error)
	Memory(ctx context.Context) (MemoryUsage, error)
	Filesystems(ctx context.Context) ([]FilesystemUsage, error)
	NetCounters(ctx context.Context) (rx, tx uint64, err error)
}

// Stats is the gauge payload: percentages and Mbit/s, rounded.
type Stats struct {
	CPU     int    `json:"cpu"`
	RAM     int    `json:"ram"`
	Network int    `json:"network"`
	Storage int    `json:"storage"`
	Detail  Detail `json:"detail"`
}

// Detail carries the readings behind the gauges.
type Detail struct {
	Memory        MemoryUsage       `json:"memory"`
	Filesystems   []FilesystemUsage `json:"filesystems"`
	RxBytesPerSec float64           `json:"rxBytesPerSec"`
	TxBytesPerSec float64           `json:"txBytesPerSec"`
}

// Collector reads a Source and derives the dashboard gauges.
type Collector struct {
	src   Source
	meter *RateMeter
	now   func() time.Time
}

func NewCollector(src Source, meter *RateMeter) *Collector {
	if meter == nil {
		meter = NewRateMeter()
	}
	return &Collector{src: src, meter: meter, now: time.Now}
}

// Meter exposes the network rate state, mainly so tests can reset it.
func (c *Collector) Meter() *RateMeter { return c.meter }

// Collect takes every reading concurrently. Any failing reading fails the
// whole collection.
func (c *Collector) Collect(ctx context.Context) (Stats, error) {
	var (
		cpu    float64
		mem    MemoryUsage
		fs     []FilesystemUsage
		rx, tx uint64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cpu, err = c.src.CPUPercent(gctx)
		if err != nil {
			return fmt.Errorf("cpu: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		mem, err = c.src.Memory(gctx)
		if err != nil {
			return fmt.Errorf("memory: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		fs, err = c.src.Filesystems(gctx)
		if err != nil {
			return fmt.Errorf("filesystems: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		rx, tx, err = c.src.NetCounters(gctx)
		if err != nil {
			return fmt.Errorf("network: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	rxRate, txRate := c.meter.Observe(Sample{At: c.now(), RxBytes: rx, TxBytes: tx})

	var fsTotal, fsUsed uint64
	for _, f := range fs {
		fsTotal += f.Total
		fsUsed += f.Used
	}
	if fs == nil {
		fs = []FilesystemUsage{}
	}

	return Stats{
		CPU:     clampPercent(cpu),
		RAM:     ratioPercent(mem.Used, mem.Total),
		Network: int(math.Round((rxRate + txRate) / 125000)), // bytes/s -> Mbit/s
		Storage: ratioPercent(fsUsed, fsTotal),
		Detail: Detail{
			Memory:        mem,
			Filesystems:   fs,
			RxBytesPerSec: rxRate,
			TxBytesPerSec: txRate,
		},
	}, nil
}

func ratioPercent(used, total uint64) int {
	if total == 0 {
		return 0
	}
	return clampPercent(float64(used) / float64(total) * 100)
}

func clampPercent(p float64) int {
	if math.IsNaN(p) || p <= 0 {
		return 0
	}
	if p >= 100 {
		return 100
	}
	return int(math.Round(p))
}
