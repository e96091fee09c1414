package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionNetUnits(t *testing.T) {
	tests := []struct {
		name     string
		position Position
		net      int64
		flat     bool
	}{
		{
			name:     "flat",
			position: Position{Symbol: "USD_JPY"},
			net:      0,
			flat:     true,
		},
		{
			name:     "long only",
			position: Position{Symbol: "USD_JPY", LongUnits: 20000},
			net:      20000,
			flat:     false,
		},
		{
			name:     "short only",
			position: Position{Symbol: "USD_JPY", ShortUnits: -20000},
			net:      -20000,
			flat:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.net, tt.position.NetUnits())
			assert.Equal(t, tt.flat, tt.position.IsFlat())
		})
	}
}

func TestPositionDirection(t *testing.T) {
	long := Position{Symbol: "USD_JPY", LongUnits: 20000}
	short := Position{Symbol: "USD_JPY", ShortUnits: -20000}

	assert.True(t, long.HasLong())
	assert.False(t, long.HasShort())
	assert.Equal(t, SideLong, long.Direction())

	assert.True(t, short.HasShort())
	assert.False(t, short.HasLong())
	assert.Equal(t, SideShort, short.Direction())
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, SideShort, SideLong.Opposite())
	assert.Equal(t, SideLong, SideShort.Opposite())
}

func TestSignalSide(t *testing.T) {
	long := Signal{Kind: SignalKindLongEntry}
	short := Signal{Kind: SignalKindShortEntry}
	exit := Signal{Kind: SignalKindExit}

	assert.Equal(t, SideLong, long.Side())
	assert.Equal(t, SideShort, short.Side())
	assert.True(t, long.IsEntry())
	assert.True(t, short.IsEntry())
	assert.False(t, exit.IsEntry())
}
