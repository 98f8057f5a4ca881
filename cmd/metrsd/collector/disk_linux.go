//go:build linux

package collector

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/and161185/metrsd/model"
)

var sysBlock = "/sys/class/block"

// deviceProps resolves the medium and removability of a block device such
// as /dev/sda1 from sysfs. Partitions inherit the values of their disk.
func deviceProps(device string) (model.DiskKind, bool) {
	name := filepath.Base(device)
	dir, err := filepath.EvalSymlinks(filepath.Join(sysBlock, name))
	if err != nil {
		return model.UnknownDisk, false
	}
	if _, err := os.Stat(filepath.Join(dir, "partition")); err == nil {
		dir = filepath.Dir(dir)
	}

	kind := model.UnknownDisk
	switch readFlag(filepath.Join(dir, "queue", "rotational")) {
	case "1":
		kind = model.HDD
	case "0":
		kind = model.SSD
	}
	return kind, readFlag(filepath.Join(dir, "removable")) == "1"
}

func readFlag(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
