package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnmarshalFlagAcceptsKnownChannel(t *testing.T) {
	var c Channel
	assert.NoError(t, c.UnmarshalFlag("commands"))
	assert.Equal(t, ChannelCommands, c)
}

func TestUnmarshalFlagRejectsUnknownChannel(t *testing.T) {
	var c Channel
	assert.Error(t, c.UnmarshalFlag("bogus"))
}

func TestNewChannelsEnabled(t *testing.T) {
	cs := NewChannels([]Channel{ChannelCommands, ChannelTimes})
	assert.True(t, cs.Enabled(ChannelCommands))
	assert.False(t, cs.Enabled(ChannelEnv))
}
