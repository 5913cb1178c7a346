package risk

import (
	"context"
	"math"
	"testing"

	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zone(kind domain.ZoneKind, price float64) *domain.Zone {
	return &domain.Zone{Kind: kind, Price: price, Touches: 3}
}

func TestTargetCalculator_Calculate(t *testing.T) {
	calc, err := NewTargetCalculator(DefaultTargetConfig())
	require.NoError(t, err)

	tests := []struct {
		name      string
		price     float64
		atr       float64
		direction domain.TrendDirection
		nearest   domain.NearestZones
		want      domain.Targets
	}{
		{
			name:      "bullish without zones uses ATR",
			price:     100,
			atr:       2,
			direction: domain.Bullish,
			want:      domain.Targets{Direction: domain.Bullish, TP1: 103, TP2: 106, SL: 98},
		},
		{
			name:      "bearish without zones uses ATR",
			price:     100,
			atr:       2,
			direction: domain.Bearish,
			want:      domain.Targets{Direction: domain.Bearish, TP1: 97, TP2: 94, SL: 102},
		},
		{
			name:      "bullish snaps to nearby zones",
			price:     100,
			atr:       2,
			direction: domain.Bullish,
			nearest: domain.NearestZones{
				Support: zone(domain.ZoneSupport, 97), DistToSupportPct: 3,
				Resistance: zone(domain.ZoneResistance, 104), DistToResistPct: 4,
			},
			want: domain.Targets{Direction: domain.Bullish, TP1: 104, TP2: 106, SL: 97},
		},
		{
			name:      "TP2 never closer than TP1",
			price:     100,
			atr:       1,
			direction: domain.Bullish,
			nearest: domain.NearestZones{
				Resistance: zone(domain.ZoneResistance, 104.5), DistToResistPct: 4.5,
			},
			want: domain.Targets{Direction: domain.Bullish, TP1: 104.5, TP2: 104.5, SL: 99},
		},
		{
			name:      "bearish snaps to nearby zones",
			price:     100,
			atr:       2,
			direction: domain.Bearish,
			nearest: domain.NearestZones{
				Support: zone(domain.ZoneSupport, 96), DistToSupportPct: 4,
				Resistance: zone(domain.ZoneResistance, 101), DistToResistPct: 1,
			},
			want: domain.Targets{Direction: domain.Bearish, TP1: 96, TP2: 94, SL: 101},
		},
		{
			name:      "distant zones are ignored",
			price:     100,
			atr:       2,
			direction: domain.Bullish,
			nearest: domain.NearestZones{
				Support: zone(domain.ZoneSupport, 80), DistToSupportPct: 20,
				Resistance: zone(domain.ZoneResistance, 130), DistToResistPct: 30,
			},
			want: domain.Targets{Direction: domain.Bullish, TP1: 103, TP2: 106, SL: 98},
		},
		{
			name:      "zero ATR falls back to percentages",
			price:     100,
			atr:       0,
			direction: domain.Bullish,
			want:      domain.Targets{Direction: domain.Bullish, TP1: 103, TP2: 106, SL: 98},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Calculate(context.Background(), tt.price, tt.atr, tt.direction, tt.nearest)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Direction, got.Direction)
			assert.InDelta(t, tt.want.TP1, got.TP1, 1e-9)
			assert.InDelta(t, tt.want.TP2, got.TP2, 1e-9)
			assert.InDelta(t, tt.want.SL, got.SL, 1e-9)
		})
	}
}

func TestTargetCalculator_InvalidInput(t *testing.T) {
	calc, err := NewTargetCalculator(DefaultTargetConfig())
	require.NoError(t, err)

	for _, price := range []float64{0, -1, math.NaN()} {
		_, err := calc.Calculate(context.Background(), price, 1, domain.Bullish, domain.NearestZones{})
		assert.ErrorIs(t, err, ports.ErrInvalidInput)
	}
	_, err = calc.Calculate(context.Background(), 100, -1, domain.Bullish, domain.NearestZones{})
	assert.ErrorIs(t, err, ports.ErrInvalidInput)
}

func TestTargetConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TargetConfig)
		wantErr bool
	}{
		{"defaults", func(c *TargetConfig) {}, false},
		{"zero stop multiplier", func(c *TargetConfig) { c.SLATRMult = 0 }, true},
		{"TP2 below TP1", func(c *TargetConfig) { c.TP2ATRMult = 1 }, true},
		{"negative zone distance", func(c *TargetConfig) { c.MaxZoneDistancePct = -1 }, true},
		{"fallback percent above one", func(c *TargetConfig) { c.StopLossPercent = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTargetConfig()
			tt.mutate(&cfg)
			_, err := NewTargetCalculator(cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ports.ErrConfigurationError)
				return
			}
			assert.NoError(t, err)
		})
	}
}
