package levels

import (
	"testing"

	"cryptoPulseBot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearest(t *testing.T) {
	zones := []domain.Zone{
		{Kind: domain.ZoneSupport, Price: 90, Touches: 3},
		{Kind: domain.ZoneSupport, Price: 95, Touches: 4},
		{Kind: domain.ZoneSupport, Price: 105, Touches: 3},
		{Kind: domain.ZoneResistance, Price: 120, Touches: 3},
		{Kind: domain.ZoneResistance, Price: 110, Touches: 5},
		{Kind: domain.ZoneResistance, Price: 98, Touches: 3},
	}

	got := Nearest(zones, 100)
	require.NotNil(t, got.Support)
	require.NotNil(t, got.Resistance)
	assert.Equal(t, 95.0, got.Support.Price)
	assert.Equal(t, 110.0, got.Resistance.Price)
	assert.InDelta(t, 5.0, got.DistToSupportPct, 1e-9)
	assert.InDelta(t, 10.0, got.DistToResistPct, 1e-9)
}

func TestNearest_NoZonesOnOneSide(t *testing.T) {
	zones := []domain.Zone{{Kind: domain.ZoneSupport, Price: 100, Touches: 3}}

	got := Nearest(zones, 100)
	assert.Nil(t, got.Support, "a zone at the price is not below it")
	assert.Nil(t, got.Resistance)

	got = Nearest(nil, 100)
	assert.Nil(t, got.Support)
	assert.Zero(t, got.DistToSupportPct)
}
