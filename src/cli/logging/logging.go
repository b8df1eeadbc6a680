// Package logging contains the singleton logger used globally. It
// deliberately has little else since it's a dependency everywhere.
package logging

import (
	"gopkg.in/op/go-logging.v1"
)

// Log is the singleton logger instance. We never alter individual
// levels per-package and don't log the module name, so there is no need
// for more than one logger, which also avoids backend-configuration
// race conditions.
var Log = logging.MustGetLogger("pyjam")

// Level re-exports the library type so callers don't need to import
// go-logging directly.
type Level = logging.Level

// Re-exports of the log levels used by the -d/--debug channels.
const (
	CRITICAL = logging.CRITICAL
	ERROR    = logging.ERROR
	WARNING  = logging.WARNING
	NOTICE   = logging.NOTICE
	INFO     = logging.INFO
	DEBUG    = logging.DEBUG
)

// InitFromVerbosity sets up a single stderr backend at the given level.
// Called once from cmd/pyjam's main before anything else logs. -Q/
// --quiet only mutes the `default` output (cmd/pyjam skips the build
// summary); it is not a logger verbosity level, so it has no effect here.
func InitFromVerbosity(level Level) {
	backend := logging.NewLogBackend(stderrWriter{}, "", 0)
	formatter := logging.MustStringFormatter(
		`%{color}%{time:15:04:05.000} %{level:.4s}%{color:reset} %{message}`,
	)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
}
