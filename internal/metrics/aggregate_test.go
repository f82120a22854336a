package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/arogyamap/access-cli/internal/model"
)

func facility(id, typ string, emergency model.Emergency, x, y float64) model.Facility {
	return model.Facility{
		ID:        id,
		Type:      typ,
		Emergency: emergency,
		Location:  geom.NewPointFlat(geom.XY, []float64{x, y}),
	}
}

func testRegion(name string, areaKM2 float64) model.Region {
	r := model.Region{Name: name, Centroid: geom.Coord{500, 500}}
	if areaKM2 > 0 {
		r.AreaKM2 = model.DefinedMetric(areaKM2)
	}
	return r
}

func TestAggregateCountsAndRatios(t *testing.T) {
	facilities := []model.Facility{
		facility("h1", "hospital", model.EmergencyYes, 100, 100),
		facility("h2", "hospital", model.EmergencyNo, 200, 200),
		facility("c1", "clinic", model.EmergencyUnknown, 300, 300),
		facility("c2", "clinic", model.Emergency(""), 400, 400),
	}
	pop := &model.PopulationRecord{District: "Test", Population: 200000}

	m := Aggregate(testRegion("Test", 50), facilities, pop, nil, Options{})

	assert.Equal(t, 4, m.FacilityCount)
	assert.Equal(t, map[string]int{"hospital": 2, "clinic": 2}, m.FacilityCountByType)

	density, ok := m.DensityPerKM2.Value()
	require.True(t, ok)
	assert.InDelta(t, 0.08, density, 1e-9)

	ratio, ok := m.PopulationPerFacility.Value()
	require.True(t, ok)
	assert.InDelta(t, 50000, ratio, 1e-9)

	per100k, ok := m.FacilitiesPer100K.Value()
	require.True(t, ok)
	assert.InDelta(t, 2, per100k, 1e-9)

	// Only the affirmative yes counts: 1 of 4.
	cov, ok := m.EmergencyCoveragePct.Value()
	require.True(t, ok)
	assert.InDelta(t, 25, cov, 1e-9)
}

func TestAggregateZeroFacilities(t *testing.T) {
	pop := &model.PopulationRecord{District: "Empty", Population: 100000}
	m := Aggregate(testRegion("Empty", 50), nil, pop, nil, Options{})

	assert.Equal(t, 0, m.FacilityCount)
	assert.False(t, m.PopulationPerFacility.Defined())
	assert.False(t, m.EmergencyCoveragePct.Defined())
	assert.Equal(t, model.Unavailable, m.PopulationPerFacility.String())

	// Population-derived count metric still defined: 0 facilities per 100k.
	per100k, ok := m.FacilitiesPer100K.Value()
	require.True(t, ok)
	assert.InDelta(t, 0, per100k, 1e-9)
}

func TestAggregateMissingPopulation(t *testing.T) {
	facilities := []model.Facility{
		facility("h1", "hospital", model.EmergencyYes, 100, 100),
	}
	m := Aggregate(testRegion("NoPop", 50), facilities, nil, nil, Options{})

	assert.Equal(t, 1, m.FacilityCount)
	assert.False(t, m.Population.Defined())
	assert.False(t, m.PopulationPerFacility.Defined())
	assert.False(t, m.FacilitiesPer100K.Defined())

	// Count-derived fields remain computed.
	assert.True(t, m.DensityPerKM2.Defined())
}

func TestAggregateUndefinedArea(t *testing.T) {
	facilities := []model.Facility{
		facility("h1", "hospital", model.EmergencyYes, 100, 100),
	}
	m := Aggregate(testRegion("Flat", 0), facilities, nil, nil, Options{})
	assert.False(t, m.DensityPerKM2.Defined())
}

func TestAggregateRoadDistances(t *testing.T) {
	facilities := []model.Facility{
		facility("h1", "hospital", model.EmergencyYes, 5000, 0),
		facility("h2", "hospital", model.EmergencyYes, 5000, 2000),
	}
	roads := []model.RoadSegment{
		{
			ID:       "nh-1",
			Category: "primary",
			Geometry: geom.NewMultiLineStringFlat(geom.XY, []float64{0, 1000, 10000, 1000}, []int{4}),
		},
	}
	opts := Options{RoadCategories: []string{"primary", "secondary"}, RoadSearchM: 5000}

	m := Aggregate(testRegion("Roads", 50), facilities, nil, roads, opts)

	avg, ok := m.AvgRoadDistanceM["primary"].Value()
	require.True(t, ok)
	assert.InDelta(t, 1000, avg, 1e-9)

	// No secondary road anywhere: unavailable, not zero.
	assert.False(t, m.AvgRoadDistanceM["secondary"].Defined())
}

func TestAggregateNearestFacilityFromCentroid(t *testing.T) {
	facilities := []model.Facility{
		facility("near", "hospital", model.EmergencyYes, 600, 500),
		facility("far", "hospital", model.EmergencyYes, 5000, 5000),
	}
	m := Aggregate(testRegion("Centroid", 50), facilities, nil, nil, Options{})

	assert.Equal(t, "near", m.NearestFacilityID)
	d, ok := m.NearestFacilityDistM.Value()
	require.True(t, ok)
	assert.InDelta(t, 100, d, 1e-9)
}

func TestAggregateAllOrderAndFanout(t *testing.T) {
	regions := []model.Region{
		testRegion("a", 10),
		testRegion("b", 20),
		testRegion("c", 30),
	}
	assigned := map[int][]model.Facility{
		0: {facility("h1", "hospital", model.EmergencyYes, 1, 1)},
		2: {
			facility("h2", "hospital", model.EmergencyYes, 1, 1),
			facility("h3", "hospital", model.EmergencyNo, 2, 2),
		},
	}
	population := map[string]*model.PopulationRecord{
		"a": {District: "a", Population: 100000},
		"c": {District: "c", Population: 50000},
	}
	identity := func(s string) string { return s }

	out, err := AggregateAll(context.Background(), regions, assigned, population, identity, nil, Options{Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, out, 3)

	// Merge preserves region input order.
	assert.Equal(t, "a", out[0].Region)
	assert.Equal(t, "b", out[1].Region)
	assert.Equal(t, "c", out[2].Region)

	assert.Equal(t, 1, out[0].FacilityCount)
	assert.Equal(t, 0, out[1].FacilityCount)
	assert.Equal(t, 2, out[2].FacilityCount)

	// Sum of assigned facilities never exceeds the input count.
	total := 0
	for _, m := range out {
		total += m.FacilityCount
	}
	assert.LessOrEqual(t, total, 3)
}
