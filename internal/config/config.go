// Package config provides application configuration structures and helpers.
//
// Values are layered as defaults, then the JSON file (-c / CONFIG), then
// command line flags, then environment variables.
package config

import (
	"net/url"
	"strings"

	"github.com/and161185/metrsd/internal/errs"
	"go.uber.org/zap"
)

// Listen endpoint schemes.
const (
	SchemeTCP  = "tcp"
	SchemeUnix = "unix"
)

// NewLogger builds the production zap logger writing JSON to stdout.
func NewLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errs.Wrapf(err, errs.KindConfig, "log level %q", level)
	}
	logCfg := zap.NewProductionConfig()
	logCfg.Level = lvl
	logCfg.OutputPaths = []string{"stdout"}
	logger, err := logCfg.Build()
	if err != nil {
		return nil, errs.Wrap(err, errs.KindConfig, "build logger")
	}
	return logger.Sugar(), nil
}

// ParseHost splits a listen endpoint into a net.Listen network and address.
// Accepted forms are tcp://host:port and unix:///path/to/socket.
func ParseHost(host string) (network, address string, err error) {
	u, err := url.Parse(host)
	if err != nil {
		return "", "", errs.Wrapf(err, errs.KindConfig, "host %q", host)
	}
	switch u.Scheme {
	case SchemeTCP:
		if u.Host == "" {
			return "", "", errs.Newf(errs.KindConfig, "host %q: missing address", host)
		}
		return "tcp", u.Host, nil
	case SchemeUnix:
		path := u.Host + u.Path
		if path == "" {
			return "", "", errs.Newf(errs.KindConfig, "host %q: missing socket path", host)
		}
		return "unix", path, nil
	default:
		return "", "", errs.Wrapf(errs.ErrUnsupportedScheme, errs.KindConfig, "host %q", host)
	}
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}

func joinList(v []string) string {
	return strings.Join(v, " ")
}
