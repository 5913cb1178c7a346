package levels

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// klinesFrom builds klines pairing lows[i] with highs[i].
func klinesFrom(lows, highs []float64) []*domain.Kline {
	out := make([]*domain.Kline, len(lows))
	for i := range lows {
		out[i] = &domain.Kline{Symbol: "BTCUSDT", Interval: "1h", Low: lows[i], High: highs[i], Open: lows[i], Close: highs[i]}
	}
	return out
}

func randomKlines(seed int64, n int) []*domain.Kline {
	r := rand.New(rand.NewSource(seed))
	lows := make([]float64, n)
	highs := make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price *= 1 + (r.Float64()-0.5)*0.01
		lows[i] = price * (1 - r.Float64()*0.004)
		highs[i] = price * (1 + r.Float64()*0.004)
	}
	return klinesFrom(lows, highs)
}

func zonesOf(zones []domain.Zone, kind domain.ZoneKind) []domain.Zone {
	var out []domain.Zone
	for _, z := range zones {
		if z.Kind == kind {
			out = append(out, z)
		}
	}
	return out
}

func TestDetectZones_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		lows           []float64
		highs          []float64
		opts           Options
		wantSupport    []domain.Zone
		wantResistance []domain.Zone
	}{
		{
			name:  "cluster of four lows around 100",
			lows:  []float64{100.0, 100.3, 100.4, 150.0, 100.2, 200.0},
			highs: []float64{110, 130, 170, 190, 230, 250},
			opts:  DefaultOptions(),
			wantSupport: []domain.Zone{
				{Kind: domain.ZoneSupport, Price: 100.225, Touches: 4},
			},
		},
		{
			name:  "identical extrema form one zone per kind",
			lows:  []float64{50, 50, 50, 50, 50},
			highs: []float64{55, 55, 55, 55, 55},
			opts:  DefaultOptions(),
			wantSupport: []domain.Zone{
				{Kind: domain.ZoneSupport, Price: 50, Touches: 5},
			},
			wantResistance: []domain.Zone{
				{Kind: domain.ZoneResistance, Price: 55, Touches: 5},
			},
		},
		{
			name:  "near-identical highs keep the first scanned zone",
			lows:  []float64{90, 80, 70, 60},
			highs: []float64{100.0, 100.0009, 100.0, 100.0009},
			opts:  DefaultOptions(),
			wantResistance: []domain.Zone{
				{Kind: domain.ZoneResistance, Price: 100.00045, Touches: 4},
			},
		},
		{
			name:  "zero tolerance clusters exact duplicates only",
			lows:  []float64{100, 100, 100.1, 100, 101},
			highs: []float64{110, 120, 130, 140, 150},
			opts:  Options{ClusterTolerance: 0, MinTouches: 3, DedupeTolerance: 0.001},
			wantSupport: []domain.Zone{
				{Kind: domain.ZoneSupport, Price: 100, Touches: 3},
			},
		},
		{
			name:  "fewer candles than min touches",
			lows:  []float64{100, 100},
			highs: []float64{110, 110},
			opts:  DefaultOptions(),
		},
		{
			name: "empty input",
			opts: DefaultOptions(),
		},
		{
			name:  "seed scan does not chain neighbours",
			lows:  []float64{100, 100.4, 100.8, 101.2, 200, 300},
			highs: []float64{110, 130, 170, 190, 230, 350},
			opts:  DefaultOptions(),
		},
		{
			name:  "union find chains neighbours into one component",
			lows:  []float64{100, 100.4, 100.8, 101.2, 200, 300},
			highs: []float64{110, 130, 170, 190, 230, 350},
			opts:  Options{ClusterTolerance: 0.005, MinTouches: 3, DedupeTolerance: 0.001, Mode: UnionFind},
			wantSupport: []domain.Zone{
				{Kind: domain.ZoneSupport, Price: 100.6, Touches: 4},
			},
		},
		{
			name:  "full series includes the edge low",
			lows:  []float64{100.05, 100, 106, 100.2, 107, 100.1, 108},
			highs: []float64{110, 120, 130, 140, 150, 160, 170},
			opts:  DefaultOptions(),
			wantSupport: []domain.Zone{
				{Kind: domain.ZoneSupport, Price: 100.0875, Touches: 4},
			},
		},
		{
			name:  "swing lookback keeps only swing lows",
			lows:  []float64{100.05, 100, 106, 100.2, 107, 100.1, 108},
			highs: []float64{110, 120, 130, 140, 150, 160, 170},
			opts:  Options{ClusterTolerance: 0.005, MinTouches: 3, DedupeTolerance: 0.001, SwingLookback: 1},
			wantSupport: []domain.Zone{
				{Kind: domain.ZoneSupport, Price: 100.1, Touches: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zones, err := DetectZones(klinesFrom(tt.lows, tt.highs), tt.opts)
			require.NoError(t, err)
			require.NotNil(t, zones)

			assertZones(t, tt.wantSupport, zonesOf(zones, domain.ZoneSupport))
			assertZones(t, tt.wantResistance, zonesOf(zones, domain.ZoneResistance))
		})
	}
}

func assertZones(t *testing.T, want, got []domain.Zone) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Kind, got[i].Kind)
		assert.Equal(t, want[i].Touches, got[i].Touches)
		assert.InDelta(t, want[i].Price, got[i].Price, 1e-9)
	}
}

func TestDetectZones_SupportBeforeResistance(t *testing.T) {
	zones, err := DetectZones(klinesFrom(
		[]float64{50, 50, 50, 70, 70, 70},
		[]float64{55, 55, 55, 75, 75, 75},
	), DefaultOptions())
	require.NoError(t, err)

	kinds := make([]domain.ZoneKind, len(zones))
	for i, z := range zones {
		kinds[i] = z.Kind
	}
	assert.Equal(t, []domain.ZoneKind{
		domain.ZoneSupport, domain.ZoneSupport, domain.ZoneResistance, domain.ZoneResistance,
	}, kinds)
	assert.InDelta(t, 50.0, zones[0].Price, 1e-9)
	assert.InDelta(t, 70.0, zones[1].Price, 1e-9)
}

func TestDetectZones_InvalidInput(t *testing.T) {
	valid := func() []*domain.Kline {
		return klinesFrom([]float64{100, 101, 102}, []float64{105, 106, 107})
	}

	tests := []struct {
		name   string
		mutate func([]*domain.Kline) []*domain.Kline
	}{
		{"NaN low", func(k []*domain.Kline) []*domain.Kline { k[1].Low = math.NaN(); return k }},
		{"infinite high", func(k []*domain.Kline) []*domain.Kline { k[2].High = math.Inf(1); return k }},
		{"zero low", func(k []*domain.Kline) []*domain.Kline { k[0].Low = 0; return k }},
		{"negative high", func(k []*domain.Kline) []*domain.Kline { k[0].High = -1; return k }},
		{"nil kline", func(k []*domain.Kline) []*domain.Kline { k[1] = nil; return k }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zones, err := DetectZones(tt.mutate(valid()), DefaultOptions())
			assert.ErrorIs(t, err, ports.ErrInvalidInput)
			assert.Nil(t, zones)
		})
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"defaults", func(o *Options) {}, false},
		{"zero tolerances", func(o *Options) { o.ClusterTolerance = 0; o.DedupeTolerance = 0 }, false},
		{"negative cluster tolerance", func(o *Options) { o.ClusterTolerance = -0.1 }, true},
		{"NaN dedupe tolerance", func(o *Options) { o.DedupeTolerance = math.NaN() }, true},
		{"zero min touches", func(o *Options) { o.MinTouches = 0 }, true},
		{"negative lookback", func(o *Options) { o.SwingLookback = -1 }, true},
		{"unknown mode", func(o *Options) { o.Mode = ClusterMode(7) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ports.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseClusterMode(t *testing.T) {
	m, err := ParseClusterMode("union")
	require.NoError(t, err)
	assert.Equal(t, UnionFind, m)

	m, err = ParseClusterMode("")
	require.NoError(t, err)
	assert.Equal(t, SeedScan, m)
	assert.Equal(t, "seed", m.String())

	_, err = ParseClusterMode("sweep")
	assert.ErrorIs(t, err, ports.ErrInvalidInput)
}

func TestDetectZones_Properties(t *testing.T) {
	for _, mode := range []ClusterMode{SeedScan, UnionFind} {
		for seed := int64(1); seed <= 20; seed++ {
			klines := randomKlines(seed, 200)
			opts := DefaultOptions()
			opts.Mode = mode

			zones, err := DetectZones(klines, opts)
			require.NoError(t, err)

			for _, z := range zones {
				assert.GreaterOrEqual(t, z.Touches, opts.MinTouches)
			}
			for _, kind := range []domain.ZoneKind{domain.ZoneSupport, domain.ZoneResistance} {
				same := zonesOf(zones, kind)
				for i := range same {
					for j := i + 1; j < len(same); j++ {
						dist := math.Abs(same[i].Price-same[j].Price) / same[i].Price
						assert.GreaterOrEqual(t, dist, opts.DedupeTolerance, "mode %s seed %d", mode, seed)
					}
				}
			}

			again, err := DetectZones(klines, opts)
			require.NoError(t, err)
			assert.Equal(t, zones, again)
		}
	}
}

func TestSeedCluster_MonotonicInTolerance(t *testing.T) {
	klines := randomKlines(7, 150)
	lows, _, err := extrema(klines)
	require.NoError(t, err)

	tolerances := []float64{0, 0.001, 0.002, 0.005, 0.01, 0.05}
	for i := range lows {
		prev := 0
		for _, tol := range tolerances {
			_, touches := seedCluster(lows, i, tol)
			assert.GreaterOrEqual(t, touches, prev, "seed %d tol %v", i, tol)
			prev = touches
		}
	}
}

func TestDetectZones_ConcurrentCallsMatchSequential(t *testing.T) {
	inputs := make([][]*domain.Kline, 8)
	want := make([][]domain.Zone, len(inputs))
	for i := range inputs {
		inputs[i] = randomKlines(int64(100+i), 300)
		zones, err := DetectZones(inputs[i], DefaultOptions())
		require.NoError(t, err)
		want[i] = zones
	}

	got := make([][]domain.Zone, len(inputs))
	var wg sync.WaitGroup
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = DetectZones(inputs[i], DefaultOptions())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, want, got)
}
