// Package metrics computes per-region accessibility aggregates. Each region
// is a pure function of (region, assigned facilities, population record), so
// regions are computed independently and merged in input order.
package metrics

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arogyamap/access-cli/internal/model"
	"github.com/arogyamap/access-cli/internal/spatial"
)

// Options configures the aggregation pass.
type Options struct {
	RoadCategories []string // categories to compute proximity stats for
	RoadSearchM    float64  // nearest-road search radius in meters
	Concurrency    int      // parallel regions; <=0 means 4
}

// Aggregate computes metrics for one region. popRecord may be nil: count
// fields are still computed and population-derived fields come out
// unavailable.
func Aggregate(region model.Region, facilities []model.Facility, popRecord *model.PopulationRecord, roads []model.RoadSegment, opts Options) model.RegionMetrics {
	m := model.RegionMetrics{
		Region:              region.Name,
		FacilityCount:       len(facilities),
		FacilityCountByType: map[string]int{},
		AvgRoadDistanceM:    map[string]model.Metric{},
	}

	for i := range facilities {
		m.FacilityCountByType[facilities[i].Type]++
	}

	// Density: undefined area never becomes zero or infinity.
	if area, ok := region.AreaKM2.Value(); ok && area > 0 {
		m.DensityPerKM2 = model.DefinedMetric(float64(m.FacilityCount) / area)
	}

	if popRecord != nil {
		pop := popRecord.Population
		m.Population = model.DefinedMetric(float64(pop))
		if m.FacilityCount > 0 {
			m.PopulationPerFacility = model.DefinedMetric(float64(pop) / float64(m.FacilityCount))
		}
		if pop > 0 {
			m.FacilitiesPer100K = model.DefinedMetric(float64(m.FacilityCount) / float64(pop) * 100000)
		}
	} else {
		zap.L().Warn("metrics: no population record for region",
			zap.String("region", region.Name))
	}

	// Emergency coverage: affirmative yes in the numerator only; unknown and
	// no stay in the denominator.
	if m.FacilityCount > 0 {
		var yes int
		for i := range facilities {
			if facilities[i].Emergency == model.EmergencyYes {
				yes++
			}
		}
		m.EmergencyCoveragePct = model.DefinedMetric(float64(yes) / float64(m.FacilityCount) * 100)
	}

	// Road proximity per category: mean of per-facility nearest distances,
	// facilities with nothing in range excluded from the mean.
	for _, cat := range opts.RoadCategories {
		var sum float64
		var n int
		for i := range facilities {
			if hit := spatial.NearestRoad(facilities[i], roads, cat, opts.RoadSearchM); hit != nil {
				sum += hit.DistanceM
				n++
			}
		}
		if n > 0 {
			m.AvgRoadDistanceM[cat] = model.DefinedMetric(sum / float64(n))
		} else {
			m.AvgRoadDistanceM[cat] = model.UndefinedMetric()
		}
	}

	// Closest facility to the district centre, for reporting.
	if len(region.Centroid) >= 2 {
		if hit := spatial.NearestFacility(region.Centroid, facilities); hit != nil {
			m.NearestFacilityID = hit.FacilityID
			m.NearestFacilityDistM = model.DefinedMetric(hit.DistanceM)
		}
	}

	return m
}

// AggregateAll computes metrics for every region with a bounded worker
// fan-out. assigned maps region index to its facilities; population maps the
// canonical district key to its record. Output order follows the region
// input order regardless of scheduling.
func AggregateAll(ctx context.Context, regions []model.Region, assigned map[int][]model.Facility, population map[string]*model.PopulationRecord, popKey func(string) string, roads []model.RoadSegment, opts Options) ([]model.RegionMetrics, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	out := make([]model.RegionMetrics, len(regions))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range regions {
		g.Go(func() error {
			out[i] = Aggregate(regions[i], assigned[i], population[popKey(regions[i].Name)], roads, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
