// Package buildinfo carries the values injected with -ldflags at build time.
package buildinfo

import "go.uber.org/zap"

var (
	BuildVersion string
	BuildDate    string
	BuildCommit  string
)

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Log writes the build version, date and commit at info level.
func Log(logger *zap.SugaredLogger) {
	logger.Infow("build info",
		"version", orNA(BuildVersion),
		"date", orNA(BuildDate),
		"commit", orNA(BuildCommit),
	)
}
