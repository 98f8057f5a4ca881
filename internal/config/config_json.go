package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/and161185/metrsd/internal/errs"
)

type serverJSON struct {
	Hosts         []string `json:"hosts"`
	TickInterval  *string  `json:"tick_interval"` // "10s"
	SweepInterval *string  `json:"sweep_interval"`
	QueueCapacity *int     `json:"queue_capacity"`
	LogLevel      *string  `json:"log_level"`
}

type clientJSON struct {
	Address  *string `json:"address"`
	Timeout  *string `json:"timeout"`
	Count    *int    `json:"count"`
	Retry    *bool   `json:"retry"`
	LogLevel *string `json:"log_level"`
}

func loadJSON(path string, dst any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrapf(err, errs.KindConfig, "read config %s", path)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return errs.Wrapf(err, errs.KindConfig, "parse config %s", path)
	}
	return nil
}

func parseDurationSeconds(s string) (int, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errs.Wrapf(err, errs.KindConfig, "duration %q", s)
	}
	return int(d / time.Second), nil
}
