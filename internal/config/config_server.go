package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/and161185/metrsd/internal/errs"
	"go.uber.org/zap"
)

// ServerConfig holds the configuration settings for the daemon.
type ServerConfig struct {
	Hosts         []string // Listen endpoints, tcp://host:port or unix://path
	TickInterval  int      // Sampling interval (in seconds)
	SweepInterval int      // Dead subscriber sweep interval (in seconds)
	QueueCapacity int      // Outbound queue size per subscriber (in frames)
	LogLevel      string
	Logger        *zap.SugaredLogger
}

// Tick returns the sampling interval.
func (c *ServerConfig) Tick() time.Duration { return time.Duration(c.TickInterval) * time.Second }

// Sweep returns the liveness sweep interval.
func (c *ServerConfig) Sweep() time.Duration { return time.Duration(c.SweepInterval) * time.Second }

// NewServerConfig parses the process command line and environment.
func NewServerConfig() (*ServerConfig, error) {
	return ParseServerConfig(flag.CommandLine, os.Args[1:])
}

// ParseServerConfig builds a validated ServerConfig from args registered on fs.
func ParseServerConfig(fs *flag.FlagSet, args []string) (*ServerConfig, error) {
	// 0) defaults
	cfg := &ServerConfig{
		TickInterval:  10,
		SweepInterval: 10,
		QueueCapacity: 100,
		LogLevel:      "info",
	}

	// 1) flags
	var fHosts hostsFlag
	fTick := intFlag{v: cfg.TickInterval}
	fSweep := intFlag{v: cfg.SweepInterval}
	fQueue := intFlag{v: cfg.QueueCapacity}
	fLevel := strFlag{v: cfg.LogLevel}
	var fConf strFlag // -c / -config

	fs.Var(&fHosts, "H", "listen endpoint tcp://host:port or unix://path (repeatable)")
	fs.Var(&fHosts, "hosts", "listen endpoints (alias)")
	fs.Var(&fTick, "t", "sampling interval (seconds)")
	fs.Var(&fTick, "tick-interval", "sampling interval (alias)")
	fs.Var(&fSweep, "s", "dead subscriber sweep interval (seconds)")
	fs.Var(&fSweep, "sweep-interval", "sweep interval (alias)")
	fs.Var(&fQueue, "q", "per-subscriber queue capacity")
	fs.Var(&fQueue, "queue-capacity", "queue capacity (alias)")
	fs.Var(&fLevel, "l", "log level")
	fs.Var(&fLevel, "log-level", "log level (alias)")
	fs.Var(&fConf, "c", "Path to JSON config file")
	fs.Var(&fConf, "config", "Path to JSON config file (alias)")
	if err := fs.Parse(args); err != nil {
		return nil, errs.Wrap(err, errs.KindConfig, "parse flags")
	}

	cfg.Hosts = fHosts.v
	cfg.TickInterval = fTick.v
	cfg.SweepInterval = fSweep.v
	cfg.QueueCapacity = fQueue.v
	cfg.LogLevel = fLevel.v

	// 2) JSON (below flags)
	if fConf.v == "" {
		fConf.v = os.Getenv("CONFIG")
	}
	if fConf.v != "" {
		var js serverJSON
		if err := loadJSON(fConf.v, &js); err != nil {
			return nil, err
		}
		if js.Hosts != nil && !fHosts.set {
			cfg.Hosts = js.Hosts
		}
		if js.TickInterval != nil && !fTick.set {
			sec, err := parseDurationSeconds(*js.TickInterval)
			if err != nil {
				return nil, err
			}
			cfg.TickInterval = sec
		}
		if js.SweepInterval != nil && !fSweep.set {
			sec, err := parseDurationSeconds(*js.SweepInterval)
			if err != nil {
				return nil, err
			}
			cfg.SweepInterval = sec
		}
		if js.QueueCapacity != nil && !fQueue.set {
			cfg.QueueCapacity = *js.QueueCapacity
		}
		if js.LogLevel != nil && !fLevel.set {
			cfg.LogLevel = *js.LogLevel
		}
	}

	// 3) environment (highest)
	if err := readServerEnvironment(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg.Logger = logger
	return cfg, nil
}

// Validate checks the host list and the numeric settings.
func (c *ServerConfig) Validate() error {
	if len(c.Hosts) == 0 {
		return errs.Wrap(errs.ErrNoHosts, errs.KindConfig, "at least one -H endpoint is required")
	}
	for _, h := range c.Hosts {
		if _, _, err := ParseHost(h); err != nil {
			return err
		}
	}
	if c.TickInterval <= 0 {
		return errs.Newf(errs.KindConfig, "tick interval must be positive, got %d", c.TickInterval)
	}
	if c.SweepInterval <= 0 {
		return errs.Newf(errs.KindConfig, "sweep interval must be positive, got %d", c.SweepInterval)
	}
	if c.QueueCapacity <= 0 {
		return errs.Newf(errs.KindConfig, "queue capacity must be positive, got %d", c.QueueCapacity)
	}
	return nil
}

func readServerEnvironment(cfg *ServerConfig) error {
	if hosts := os.Getenv("HOSTS"); hosts != "" {
		cfg.Hosts = splitList(hosts)
	}

	for _, e := range []struct {
		name string
		dst  *int
	}{
		{"TICK_INTERVAL", &cfg.TickInterval},
		{"SWEEP_INTERVAL", &cfg.SweepInterval},
		{"QUEUE_CAPACITY", &cfg.QueueCapacity},
	} {
		if err := envInt(e.name, e.dst); err != nil {
			return err
		}
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	return nil
}

func envInt(name string, dst *int) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return errs.Wrapf(err, errs.KindConfig, "invalid %s env var", name)
	}
	*dst = v
	return nil
}
