// Package cli defines the flag types the pyjam command line accepts,
// in the style of the teacher's cli.ByteSize/cli.Duration/cli.URL:
// small value types implementing flags.Unmarshaler so go-flags can
// parse and validate them directly, rather than post-validating plain
// strings after parsing (spec.md §6).
package cli

import "fmt"

// Channel is one of the closed set of debug channels spec.md §6 names.
// -d/--debug is repeatable; each occurrence parses into one Channel.
type Channel string

// The closed set of debug channels pyjam understands.
const (
	ChannelBinding  Channel = "binding"
	ChannelInclude  Channel = "include"
	ChannelTargets  Channel = "targets"
	ChannelDepends  Channel = "depends"
	ChannelExports  Channel = "exports"
	ChannelEnv      Channel = "env"
	ChannelThreads  Channel = "threads"
	ChannelVerbose  Channel = "verbose"
	ChannelNeeded   Channel = "needed"
	ChannelContext  Channel = "context"
	ChannelLocate   Channel = "locate"
	ChannelCause    Channel = "cause"
	ChannelCommands Channel = "commands"
	ChannelPhases   Channel = "phases"
	ChannelWarning  Channel = "warning"
	ChannelError    Channel = "error"
	ChannelDebug    Channel = "debug"
	ChannelTimes    Channel = "times"
)

var validChannels = map[Channel]bool{
	ChannelBinding: true, ChannelInclude: true, ChannelTargets: true,
	ChannelDepends: true, ChannelExports: true, ChannelEnv: true,
	ChannelThreads: true, ChannelVerbose: true, ChannelNeeded: true,
	ChannelContext: true, ChannelLocate: true, ChannelCause: true,
	ChannelCommands: true, ChannelPhases: true, ChannelWarning: true,
	ChannelError: true, ChannelDebug: true, ChannelTimes: true,
}

// UnmarshalFlag implements flags.Unmarshaler, rejecting any channel
// name outside the closed set up front instead of silently ignoring
// it later.
func (c *Channel) UnmarshalFlag(in string) error {
	ch := Channel(in)
	if !validChannels[ch] {
		return fmt.Errorf("unknown debug channel %q", in)
	}
	*c = ch
	return nil
}

// Channels is a set of enabled debug channels, populated from the
// repeated -d flags.
type Channels map[Channel]bool

// Enabled reports whether c has been turned on.
func (cs Channels) Enabled(c Channel) bool {
	return cs[c]
}

// NewChannels builds a Channels set from parsed -d occurrences.
func NewChannels(enabled []Channel) Channels {
	cs := Channels{}
	for _, c := range enabled {
		cs[c] = true
	}
	return cs
}
