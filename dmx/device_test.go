package dmx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniverseSetChannel(t *testing.T) {
	var u Universe

	require.NoError(t, u.SetChannel(1, 10))
	require.NoError(t, u.SetChannel(Channels, 20))

	assert.Equal(t, byte(0), u[0], "start code")
	assert.Equal(t, byte(10), u[1])
	assert.Equal(t, byte(20), u[Channels])

	assert.ErrorIs(t, u.SetChannel(0, 1), ErrChannelRange)
	assert.ErrorIs(t, u.SetChannel(Channels+1, 1), ErrChannelRange)
}

func TestUniverseSetRGB(t *testing.T) {
	var u Universe

	require.NoError(t, u.SetRGB(4, 1, 2, 3))
	assert.Equal(t, []byte{1, 2, 3}, u[4:7])

	require.NoError(t, u.SetRGB(Channels-2, 7, 8, 9))
	assert.ErrorIs(t, u.SetRGB(Channels-1, 7, 8, 9), ErrChannelRange)
	assert.ErrorIs(t, u.SetRGB(0, 7, 8, 9), ErrChannelRange)
}
