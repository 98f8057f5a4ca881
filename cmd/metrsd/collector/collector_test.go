package collector

import (
	"context"
	"testing"

	"github.com/and161185/metrsd/model"
	"github.com/stretchr/testify/require"
)

func TestCollect_Smoke(t *testing.T) {
	t.Parallel()

	snap, err := New(nil).Collect(context.Background())
	require.NoError(t, err)

	require.NotZero(t, snap.Memory.Total)
	require.LessOrEqual(t, snap.Memory.Used, snap.Memory.Total)

	seen := map[string]struct{}{}
	for _, c := range snap.Cpus {
		if _, ok := seen[c.Name]; ok {
			t.Fatalf("duplicate cpu name: %s", c.Name)
		}
		seen[c.Name] = struct{}{}
		require.GreaterOrEqual(t, c.Usage, 0.0)
	}

	for _, d := range snap.Disks {
		require.NotEmpty(t, d.MountPoint)
		require.Contains(t, []model.DiskKind{model.HDD, model.SSD, model.UnknownDisk}, d.Kind)
		require.LessOrEqual(t, d.AvailableSpace, d.TotalSpace)
	}

	for _, n := range snap.Networks {
		require.NotEmpty(t, n.Name)
		require.NotEmpty(t, n.MacAddr)
	}
}

func TestCollect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// must not hang or panic; the error depends on the platform
	_, _ = New(nil).Collect(ctx)
}

func TestMacOrZero(t *testing.T) {
	require.Equal(t, "00:00:00:00:00:00", macOrZero(""))
	require.Equal(t, "aa:bb:cc:dd:ee:ff", macOrZero("AA:BB:CC:DD:EE:FF"))
}
