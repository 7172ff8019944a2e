package setup

import "log/slog"

var packageLogger = slog.Default()

// SetLogger configures the package logger used while loading settings and
// preparing directories.
func SetLogger(logger *slog.Logger) {
	if logger == nil {
		packageLogger = slog.Default()
		return
	}
	packageLogger = logger.With("component", "setup")
}

func getLogger() *slog.Logger {
	if packageLogger != nil {
		return packageLogger
	}
	return slog.Default()
}
