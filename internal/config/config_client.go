package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/metrsd/internal/errs"
	"go.uber.org/zap"
)

// ClientConfig holds the configuration settings for metrsctl.
type ClientConfig struct {
	ServerAddr    string // http(s)://host:port or unix://path
	Count         int    // Events to print before exiting, 0 for unlimited
	ClientTimeout int    // Connect and response header timeout (in seconds)
	Retry         bool   // Retry the initial subscribe on transport failures
	LogLevel      string
	Logger        *zap.SugaredLogger
}

// Timeout returns the client timeout.
func (c *ClientConfig) Timeout() time.Duration { return time.Duration(c.ClientTimeout) * time.Second }

// NewClientConfig parses the process command line and environment.
func NewClientConfig() (*ClientConfig, error) {
	return ParseClientConfig(flag.CommandLine, os.Args[1:])
}

// ParseClientConfig builds a ClientConfig from args registered on fs.
func ParseClientConfig(fs *flag.FlagSet, args []string) (*ClientConfig, error) {
	cfg := &ClientConfig{
		ServerAddr:    "http://localhost:8080",
		ClientTimeout: 20,
		LogLevel:      "warn",
	}

	var fAddr, fLevel, fConf strFlag
	var fCount, fTO intFlag
	var fRetry boolFlag
	fs.Var(&fAddr, "a", "server address (http://, https:// or unix://)")
	fs.Var(&fCount, "n", "number of events to print, 0 for unlimited")
	fs.Var(&fTO, "t", "client timeout (seconds)")
	fs.Var(&fRetry, "r", "retry subscribe on connection failures")
	fs.Var(&fLevel, "l", "log level")
	fs.Var(&fConf, "c", "Path to JSON config file")
	fs.Var(&fConf, "config", "Path to JSON config file (alias)")
	if err := fs.Parse(args); err != nil {
		return nil, errs.Wrap(err, errs.KindConfig, "parse flags")
	}

	if fAddr.set {
		cfg.ServerAddr = fAddr.v
	}
	if fCount.set {
		cfg.Count = fCount.v
	}
	if fTO.set {
		cfg.ClientTimeout = fTO.v
	}
	if fRetry.set {
		cfg.Retry = fRetry.v
	}
	if fLevel.set {
		cfg.LogLevel = fLevel.v
	}

	if fConf.v == "" {
		fConf.v = os.Getenv("CONFIG")
	}
	if fConf.v != "" {
		var js clientJSON
		if err := loadJSON(fConf.v, &js); err != nil {
			return nil, err
		}
		if js.Address != nil && !fAddr.set {
			cfg.ServerAddr = *js.Address
		}
		if js.Timeout != nil && !fTO.set {
			sec, err := parseDurationSeconds(*js.Timeout)
			if err != nil {
				return nil, err
			}
			cfg.ClientTimeout = sec
		}
		if js.Count != nil && !fCount.set {
			cfg.Count = *js.Count
		}
		if js.Retry != nil && !fRetry.set {
			cfg.Retry = *js.Retry
		}
		if js.LogLevel != nil && !fLevel.set {
			cfg.LogLevel = *js.LogLevel
		}
	}

	if err := readClientEnvironment(cfg); err != nil {
		return nil, err
	}

	// normalize address
	if !strings.Contains(cfg.ServerAddr, "://") {
		cfg.ServerAddr = "http://" + cfg.ServerAddr
	}
	if cfg.Count < 0 {
		return nil, errs.Newf(errs.KindConfig, "count must not be negative, got %d", cfg.Count)
	}

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg.Logger = logger
	return cfg, nil
}

func readClientEnvironment(cfg *ClientConfig) error {
	if addr := os.Getenv("ADDRESS"); addr != "" {
		cfg.ServerAddr = addr
	}
	if err := envInt("CLIENT_TIMEOUT", &cfg.ClientTimeout); err != nil {
		return err
	}
	if retry := os.Getenv("RETRY"); retry != "" {
		v, err := strconv.ParseBool(retry)
		if err != nil {
			return errs.Wrap(err, errs.KindConfig, "invalid RETRY env var")
		}
		cfg.Retry = v
	}
	return nil
}
