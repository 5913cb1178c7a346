package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/levels"
)

func TestPrintZones(t *testing.T) {
	zones := []domain.Zone{
		{Kind: domain.ZoneSupport, Price: 95, Touches: 4},
		{Kind: domain.ZoneResistance, Price: 105, Touches: 3},
	}
	var buf bytes.Buffer
	require.NoError(t, printZones(&buf, zones, 100, 50, levels.DefaultOptions()))

	out := buf.String()
	assert.Contains(t, out, "50 candles, last close 100, mode seed")
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "support     95     4        -5.00%")
	assert.Contains(t, out, "resistance  105    3        +5.00%")
	assert.Contains(t, out, "nearest support    95 (-5.00%)")
	assert.Contains(t, out, "nearest resistance 105 (+5.00%)")
}
