// Package classify assigns access tiers to region metrics relative to the
// state-wide mean population-per-facility ratio.
package classify

import (
	"sort"

	"github.com/arogyamap/access-cli/internal/model"
)

// Thresholds are the multiplicative bands around the mean ratio. A region at
// or below Good*mean is Good; at or below Poor*mean is Average; above is Poor.
type Thresholds struct {
	Good float64
	Poor float64
}

// DefaultThresholds returns the standard 0.8 / 1.2 bands.
func DefaultThresholds() Thresholds {
	return Thresholds{Good: 0.8, Poor: 1.2}
}

// MeanRatio computes the arithmetic mean of population_per_facility over
// regions where it is defined. Zero-facility regions contribute nothing to
// the mean but still receive a tier in Classify.
func MeanRatio(metrics []model.RegionMetrics) model.Metric {
	var sum float64
	var n int
	for i := range metrics {
		if v, ok := metrics[i].PopulationPerFacility.Value(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return model.UndefinedMetric()
	}
	return model.DefinedMetric(sum / float64(n))
}

// Tier classifies a single ratio against the mean. Both band boundaries are
// inclusive on the upper side: ratio == Good*mean is Good, ratio == Poor*mean
// is Average.
func Tier(ratio model.Metric, mean model.Metric, th Thresholds) model.AccessTier {
	r, ok := ratio.Value()
	if !ok {
		// No facilities at all: maximal underservice by policy.
		return model.TierPoor
	}
	m, ok := mean.Value()
	if !ok {
		return model.TierPoor
	}
	switch {
	case r <= th.Good*m:
		return model.TierGood
	case r <= th.Poor*m:
		return model.TierAverage
	default:
		return model.TierPoor
	}
}

// Classify attaches a tier to every region and orders the result by
// population_per_facility descending. Regions with an undefined ratio sort
// first (worst served at the top); ties break by region name ascending so the
// order is total and reproducible.
func Classify(metrics []model.RegionMetrics, th Thresholds) []model.ClassifiedRegion {
	mean := MeanRatio(metrics)

	out := make([]model.ClassifiedRegion, 0, len(metrics))
	for i := range metrics {
		out = append(out, model.ClassifiedRegion{
			RegionMetrics: metrics[i],
			Tier:          Tier(metrics[i].PopulationPerFacility, mean, th),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := out[i].PopulationPerFacility.Value()
		rj, jok := out[j].PopulationPerFacility.Value()
		switch {
		case !iok && !jok:
			return out[i].Region < out[j].Region
		case !iok:
			return true
		case !jok:
			return false
		case ri != rj:
			return ri > rj
		default:
			return out[i].Region < out[j].Region
		}
	})

	return out
}
