package logging

import "os"

// stderrWriter is the single write path the logging backend uses;
// channel-level silencing (the -Q/--quiet flag only mutes the `default`
// channel, not the logger as a whole) is handled by the caller, not here:
// cmd/pyjam checks its -Q flag before logging the build summary.
type stderrWriter struct{}

func (stderrWriter) Write(p []byte) (int, error) {
	return os.Stderr.Write(p)
}
