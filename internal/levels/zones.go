// Package levels detects support and resistance zones by clustering candle
// extrema that lie within a relative tolerance of each other.
package levels

import (
	"fmt"
	"math"

	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"
)

// ClusterMode selects how extrema are grouped into clusters.
type ClusterMode int

const (
	// SeedScan treats every value as a fixed seed and collects the later values
	// within tolerance of it. A value may belong to several seeds' clusters.
	SeedScan ClusterMode = iota
	// UnionFind joins values into connected components using the same
	// pairwise tolerance test. Every value belongs to exactly one cluster.
	UnionFind
)

// String returns the configuration name of the mode.
func (m ClusterMode) String() string {
	switch m {
	case SeedScan:
		return "seed"
	case UnionFind:
		return "union"
	default:
		return fmt.Sprintf("ClusterMode(%d)", int(m))
	}
}

// ParseClusterMode converts a configuration name into a ClusterMode.
func ParseClusterMode(s string) (ClusterMode, error) {
	switch s {
	case "", "seed", "seedscan":
		return SeedScan, nil
	case "union", "unionfind":
		return UnionFind, nil
	default:
		return SeedScan, fmt.Errorf("%w: unknown cluster mode %q", ports.ErrInvalidInput, s)
	}
}

// Options configures zone detection. Fields are used as given; start from
// DefaultOptions to get the usual values.
type Options struct {
	// ClusterTolerance is the relative distance |a-b|/a below which two
	// extrema belong to the same cluster.
	ClusterTolerance float64
	// MinTouches is the minimum cluster size for a zone to be emitted.
	MinTouches int
	// DedupeTolerance is the relative distance below which two zones of the
	// same kind are considered the same zone.
	DedupeTolerance float64
	// Mode selects the clustering algorithm.
	Mode ClusterMode
	// SwingLookback restricts the series to swing points when > 0: a low (high)
	// enters only if it is strictly below (above) SwingLookback neighbours on
	// each side. Zero uses every candle.
	SwingLookback int
}

// DefaultOptions returns the default detection options.
func DefaultOptions() Options {
	return Options{
		ClusterTolerance: 0.005,
		MinTouches:       3,
		DedupeTolerance:  0.001,
		Mode:             SeedScan,
	}
}

// Validate checks the options for values the engine cannot work with.
func (o Options) Validate() error {
	if math.IsNaN(o.ClusterTolerance) || math.IsInf(o.ClusterTolerance, 0) || o.ClusterTolerance < 0 {
		return fmt.Errorf("%w: cluster tolerance must be a finite non-negative number, got %v", ports.ErrInvalidInput, o.ClusterTolerance)
	}
	if math.IsNaN(o.DedupeTolerance) || math.IsInf(o.DedupeTolerance, 0) || o.DedupeTolerance < 0 {
		return fmt.Errorf("%w: dedupe tolerance must be a finite non-negative number, got %v", ports.ErrInvalidInput, o.DedupeTolerance)
	}
	if o.MinTouches < 1 {
		return fmt.Errorf("%w: min touches must be at least 1, got %d", ports.ErrInvalidInput, o.MinTouches)
	}
	if o.SwingLookback < 0 {
		return fmt.Errorf("%w: swing lookback must not be negative, got %d", ports.ErrInvalidInput, o.SwingLookback)
	}
	if o.Mode != SeedScan && o.Mode != UnionFind {
		return fmt.Errorf("%w: unknown cluster mode %d", ports.ErrInvalidInput, int(o.Mode))
	}
	return nil
}

// DetectZones clusters the lows of klines into support zones and the highs
// into resistance zones. The result lists support zones first, then
// resistance zones, each in scan order. Fewer qualifying extrema than
// opts.MinTouches yields an empty result.
//
// DetectZones keeps no state and is safe for concurrent use.
func DetectZones(klines []*domain.Kline, opts Options) ([]domain.Zone, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	lows, highs, err := extrema(klines)
	if err != nil {
		return nil, err
	}
	if opts.SwingLookback > 0 {
		lows = swingPoints(lows, opts.SwingLookback, func(a, b float64) bool { return a < b })
		highs = swingPoints(highs, opts.SwingLookback, func(a, b float64) bool { return a > b })
	}

	zones := make([]domain.Zone, 0)
	zones = append(zones, detect(domain.ZoneSupport, lows, opts)...)
	zones = append(zones, detect(domain.ZoneResistance, highs, opts)...)
	return zones, nil
}

// candidate is a cluster that met the minimum size.
type candidate struct {
	price   float64
	touches int
}

func detect(kind domain.ZoneKind, values []float64, opts Options) []domain.Zone {
	if len(values) < opts.MinTouches {
		return nil
	}
	var candidates []candidate
	switch opts.Mode {
	case UnionFind:
		candidates = unionFindClusters(values, opts.ClusterTolerance, opts.MinTouches)
	default:
		candidates = seedScanClusters(values, opts.ClusterTolerance, opts.MinTouches)
	}

	kept := dedupe(candidates, opts.DedupeTolerance)
	zones := make([]domain.Zone, len(kept))
	for i, c := range kept {
		zones[i] = domain.Zone{Kind: kind, Price: c.price, Touches: c.touches}
	}
	return zones
}

// seedScanClusters emits one candidate per seed index whose cluster is large enough.
func seedScanClusters(values []float64, tol float64, minTouches int) []candidate {
	var out []candidate
	for i := range values {
		price, touches := seedCluster(values, i, tol)
		if touches >= minTouches {
			out = append(out, candidate{price: price, touches: touches})
		}
	}
	return out
}

// seedCluster returns the mean and size of the cluster formed by seed values[i]
// and every later value within tol of it.
func seedCluster(values []float64, i int, tol float64) (float64, int) {
	seed := values[i]
	sum, count := seed, 1
	for _, v := range values[i+1:] {
		if within(seed, v, tol) {
			sum += v
			count++
		}
	}
	return sum / float64(count), count
}

// dedupe keeps a candidate only if no earlier kept candidate lies within tol.
func dedupe(candidates []candidate, tol float64) []candidate {
	kept := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		duplicate := false
		for _, k := range kept {
			if within(k.price, c.price, tol) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, c)
		}
	}
	return kept
}

// within reports whether b lies within relative distance tol of a.
// Equal values always match, so a zero tolerance still groups exact duplicates.
func within(a, b, tol float64) bool {
	return a == b || math.Abs(a-b)/a < tol
}

func extrema(klines []*domain.Kline) (lows, highs []float64, err error) {
	lows = make([]float64, len(klines))
	highs = make([]float64, len(klines))
	for i, k := range klines {
		if k == nil {
			return nil, nil, fmt.Errorf("%w: kline %d is nil", ports.ErrInvalidInput, i)
		}
		if !validPrice(k.Low) {
			return nil, nil, fmt.Errorf("%w: kline %d has invalid low %v", ports.ErrInvalidInput, i, k.Low)
		}
		if !validPrice(k.High) {
			return nil, nil, fmt.Errorf("%w: kline %d has invalid high %v", ports.ErrInvalidInput, i, k.High)
		}
		lows[i] = k.Low
		highs[i] = k.High
	}
	return lows, highs, nil
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p > 0
}

// swingPoints keeps values[i] when beats(values[i], neighbour) holds for the
// lookback neighbours on both sides. Edges without a full window are skipped.
func swingPoints(values []float64, lookback int, beats func(a, b float64) bool) []float64 {
	var out []float64
	for i := lookback; i < len(values)-lookback; i++ {
		swing := true
		for k := 1; k <= lookback; k++ {
			if !beats(values[i], values[i-k]) || !beats(values[i], values[i+k]) {
				swing = false
				break
			}
		}
		if swing {
			out = append(out, values[i])
		}
	}
	return out
}
