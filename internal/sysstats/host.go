package sysstats

import (
	"context"
	"errors"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// HostSource reads the local machine through gopsutil.
type HostSource struct{}

func (HostSource) CPUPercent(ctx context.Context) (float64, error) {
	// interval 0 compares against the previous call
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, errors.New("no cpu reading")
	}
	return percents[0], nil
}

func (HostSource) Memory(ctx context.Context) (MemoryUsage, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryUsage{}, err
	}
	return MemoryUsage{Total: vm.Total, Used: vm.Used}, nil
}

func (HostSource) Filesystems(ctx context.Context) ([]FilesystemUsage, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(parts))
	out := make([]FilesystemUsage, 0, len(parts))
	for _, p := range parts {
		if _, dup := seen[p.Device]; dup {
			continue
		}
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue
		}
		seen[p.Device] = struct{}{}
		out = append(out, FilesystemUsage{
			Mountpoint: p.Mountpoint,
			Device:     p.Device,
			Total:      usage.Total,
			Used:       usage.Used,
		})
	}
	return out, nil
}

func (HostSource) NetCounters(ctx context.Context) (uint64, uint64, error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return 0, 0, err
	}
	if len(counters) == 0 {
		return 0, 0, errors.New("no network counters")
	}
	return counters[0].BytesRecv, counters[0].BytesSent, nil
}
