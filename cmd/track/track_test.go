package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackCmd_Flags(t *testing.T) {
	flags := TrackCmd.PersistentFlags()

	iface := flags.Lookup("interface")
	require.NotNil(t, iface)
	assert.Equal(t, "any", iface.DefValue)
	assert.Equal(t, "i", iface.Shorthand)

	filter := flags.Lookup("filter")
	require.NotNil(t, filter)
	assert.Equal(t, "", filter.DefValue)
	assert.Equal(t, "f", filter.Shorthand)

	readFile := flags.Lookup("read-file")
	require.NotNil(t, readFile)
	assert.Equal(t, "r", readFile.Shorthand)

	jsonFlag := flags.Lookup("json")
	require.NotNil(t, jsonFlag)
	assert.Equal(t, "false", jsonFlag.DefValue)
}

func TestTrackCmd_Use(t *testing.T) {
	assert.Equal(t, "track", TrackCmd.Use)
	assert.NotNil(t, TrackCmd.Run)
}
