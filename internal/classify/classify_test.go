package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arogyamap/access-cli/internal/model"
)

func metricsFor(name string, ratio model.Metric) model.RegionMetrics {
	return model.RegionMetrics{Region: name, PopulationPerFacility: ratio}
}

func TestMeanRatioSkipsUndefined(t *testing.T) {
	ms := []model.RegionMetrics{
		metricsFor("a", model.DefinedMetric(50000)),
		metricsFor("b", model.UndefinedMetric()),
		metricsFor("c", model.DefinedMetric(10000)),
	}
	mean, ok := MeanRatio(ms).Value()
	require.True(t, ok)
	assert.InDelta(t, 30000, mean, 1e-9)
}

func TestMeanRatioAllUndefined(t *testing.T) {
	ms := []model.RegionMetrics{
		metricsFor("a", model.UndefinedMetric()),
	}
	assert.False(t, MeanRatio(ms).Defined())
}

func TestTierBoundaries(t *testing.T) {
	mean := model.DefinedMetric(30000)
	th := DefaultThresholds()

	tests := []struct {
		name  string
		ratio model.Metric
		want  model.AccessTier
	}{
		{"well below good band", model.DefinedMetric(10000), model.TierGood},
		{"exactly at 0.8x mean", model.DefinedMetric(24000), model.TierGood},
		{"just above 0.8x mean", model.DefinedMetric(24000.01), model.TierAverage},
		{"exactly at 1.2x mean", model.DefinedMetric(36000), model.TierAverage},
		{"just above 1.2x mean", model.DefinedMetric(36000.01), model.TierPoor},
		{"undefined ratio is poor by policy", model.UndefinedMetric(), model.TierPoor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tier(tt.ratio, mean, th))
		})
	}
}

func TestClassifyScenario(t *testing.T) {
	// Populations [100000, 200000, 50000], facility counts [2, 0, 5]:
	// ratios [50000, undefined, 10000], mean over defined = 30000.
	ms := []model.RegionMetrics{
		metricsFor("one", model.DefinedMetric(50000)),
		metricsFor("two", model.UndefinedMetric()),
		metricsFor("three", model.DefinedMetric(10000)),
	}

	out := Classify(ms, DefaultThresholds())
	require.Len(t, out, 3)

	byName := map[string]model.AccessTier{}
	for _, c := range out {
		byName[c.Region] = c.Tier
	}
	assert.Equal(t, model.TierPoor, byName["one"])    // 50000 > 36000
	assert.Equal(t, model.TierPoor, byName["two"])    // zero facilities
	assert.Equal(t, model.TierGood, byName["three"])  // 10000 <= 24000

	// Order: undefined first, then descending ratio.
	assert.Equal(t, "two", out[0].Region)
	assert.Equal(t, "one", out[1].Region)
	assert.Equal(t, "three", out[2].Region)
}

func TestClassifyDeterministic(t *testing.T) {
	ms := []model.RegionMetrics{
		metricsFor("b", model.DefinedMetric(20000)),
		metricsFor("a", model.DefinedMetric(20000)),
		metricsFor("z", model.UndefinedMetric()),
		metricsFor("y", model.UndefinedMetric()),
	}

	first := Classify(ms, DefaultThresholds())
	second := Classify(ms, DefaultThresholds())
	require.Equal(t, first, second)

	// Ties and undefined groups break by name ascending.
	assert.Equal(t, "y", first[0].Region)
	assert.Equal(t, "z", first[1].Region)
	assert.Equal(t, "a", first[2].Region)
	assert.Equal(t, "b", first[3].Region)
}
