// Package collector reads host metrics through gopsutil.
package collector

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/and161185/metrsd/model"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"go.uber.org/zap"
)

// pseudo filesystems never reported as disks
var skipFsTypes = map[string]bool{
	"proc": true, "sysfs": true, "devtmpfs": true, "devpts": true, "tmpfs": true,
	"cgroup": true, "cgroup2": true, "overlay": true, "squashfs": true, "autofs": true,
	"mqueue": true, "debugfs": true, "tracefs": true, "securityfs": true, "pstore": true,
	"bpf": true, "configfs": true, "fusectl": true, "hugetlbfs": true, "binfmt_misc": true,
	"nsfs": true, "ramfs": true, "efivarfs": true,
}

// Gopsutil implements sampler.Collector.
type Gopsutil struct {
	logger *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Gopsutil {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	g := &Gopsutil{logger: logger}
	// prime the per-cpu counters so the first sample has a baseline
	_, _ = cpu.Percent(0, true)
	return g
}

// Collect reads every category. Memory is mandatory; other categories are
// logged and left empty on failure.
func (g *Gopsutil) Collect(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot

	m, err := g.memory(ctx)
	if err != nil {
		return snap, err
	}
	snap.Memory = m

	if snap.Cpus, err = g.cpus(ctx); err != nil {
		g.logger.Warnf("collect cpu: %v", err)
	}
	if snap.Disks, err = g.disks(ctx); err != nil {
		g.logger.Warnf("collect disks: %v", err)
	}
	if snap.Networks, err = g.networks(ctx); err != nil {
		g.logger.Warnf("collect networks: %v", err)
	}
	return snap, nil
}

func (g *Gopsutil) memory(ctx context.Context) (model.MemoryInfo, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return model.MemoryInfo{}, fmt.Errorf("virtual memory: %w", err)
	}
	info := model.MemoryInfo{
		Total: vm.Total,
		Free:  vm.Available,
		Used:  vm.Used,
	}

	sw, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		g.logger.Warnf("collect swap: %v", err)
		return info, nil
	}
	info.SwapTotal = sw.Total
	info.SwapFree = sw.Free
	info.SwapUsed = sw.Used
	return info, nil
}

func (g *Gopsutil) cpus(ctx context.Context) (model.CpuList, error) {
	usage, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return nil, fmt.Errorf("cpu percent: %w", err)
	}
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cpu info: %w", err)
	}

	list := make(model.CpuList, 0, len(usage))
	for i, u := range usage {
		c := model.CpuInfo{
			Name:  fmt.Sprintf("cpu%d", i),
			Usage: u,
		}
		// some platforms report one info entry per package, not per logical cpu
		if len(infos) > 0 {
			in := infos[min(i, len(infos)-1)]
			c.VendorID = in.VendorID
			c.Brand = in.ModelName
			c.Frequency = uint64(math.Round(in.Mhz))
		}
		list = append(list, c)
	}
	return list, nil
}

func (g *Gopsutil) disks(ctx context.Context) (model.DiskList, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("partitions: %w", err)
	}

	list := make(model.DiskList, 0, len(parts))
	for _, p := range parts {
		if skipFsTypes[p.Fstype] {
			continue
		}
		u, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			g.logger.Debugf("usage of %s: %v", p.Mountpoint, err)
			continue
		}
		kind, removable := deviceProps(p.Device)
		list = append(list, model.DiskInfo{
			Kind:           kind,
			DeviceName:     p.Device,
			FileSystem:     p.Fstype,
			MountPoint:     p.Mountpoint,
			TotalSpace:     u.Total,
			AvailableSpace: u.Free,
			IsRemovable:    removable,
		})
	}
	return list, nil
}

func (g *Gopsutil) networks(ctx context.Context) (model.NetworkList, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("io counters: %w", err)
	}

	macs := map[string]string{}
	ifaces, err := net.InterfacesWithContext(ctx)
	if err != nil {
		g.logger.Debugf("interfaces: %v", err)
	}
	for _, i := range ifaces {
		macs[i.Name] = i.HardwareAddr
	}

	list := make(model.NetworkList, 0, len(counters))
	for _, c := range counters {
		list = append(list, model.NetworkInfo{
			Name:               c.Name,
			MacAddr:            macOrZero(macs[c.Name]),
			Received:           c.BytesRecv,
			Transmitted:        c.BytesSent,
			PacketsReceived:    c.PacketsRecv,
			PacketsTransmitted: c.PacketsSent,
			ErrorReceived:      c.Errin,
			ErrorTransmitted:   c.Errout,
		})
	}
	return list, nil
}

func macOrZero(mac string) string {
	if mac == "" {
		return "00:00:00:00:00:00"
	}
	return strings.ToLower(mac)
}
