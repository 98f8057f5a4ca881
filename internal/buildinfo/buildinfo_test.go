package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLog_DefaultsAndSet(t *testing.T) {
	ov, od, oc := BuildVersion, BuildDate, BuildCommit
	t.Cleanup(func() { BuildVersion, BuildDate, BuildCommit = ov, od, oc })

	core, obs := observer.New(zap.InfoLevel)
	logger := zap.New(core).Sugar()

	BuildVersion, BuildDate, BuildCommit = "", "", ""
	Log(logger)

	BuildVersion, BuildDate, BuildCommit = "v1", "2025-09-06", "deadbeef"
	Log(logger)

	entries := obs.All()
	require.Len(t, entries, 2)
	require.Equal(t, map[string]any{"version": "N/A", "date": "N/A", "commit": "N/A"}, entries[0].ContextMap())
	require.Equal(t, map[string]any{"version": "v1", "date": "2025-09-06", "commit": "deadbeef"}, entries[1].ContextMap())
}
