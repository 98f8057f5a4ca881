//go:build !linux

package collector

import "github.com/and161185/metrsd/model"

func deviceProps(string) (model.DiskKind, bool) {
	return model.UnknownDisk, false
}
