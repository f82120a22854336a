package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arogyamap/access-cli/internal/config"
	"github.com/arogyamap/access-cli/internal/model"
)

func TestDatasetPaths_ApplyDefaults(t *testing.T) {
	p := datasetPaths{Facilities: "custom.shp"}
	p.applyDefaults("data")

	assert.Equal(t, "custom.shp", p.Facilities)
	assert.Equal(t, filepath.Join("data", "districts.shp"), p.Regions)
	assert.Equal(t, filepath.Join("data", "roads.shp"), p.Roads)
	assert.Equal(t, filepath.Join("data", "population.csv"), p.Population)
	assert.Empty(t, p.Boundary)
}

func TestConfiguredSources(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })
	cfg = &config.Config{}
	cfg.Dataset.FacilitiesURL = "https://example.com/facilities.zip"
	cfg.Dataset.PopulationURL = "ftp://ftp.example.com/pub/population.xlsx"

	sources := configuredSources()
	assert.Len(t, sources, 2)
	assert.Equal(t, "facilities", sources[0].Name)
	assert.Equal(t, "population", sources[1].Name)
}

func TestFormatRunsList(t *testing.T) {
	runs := []model.Run{
		{
			ID:          "run-1",
			Status:      model.RunCompleted,
			RegionCount: 30,
			MeanRatio:   model.DefinedMetric(42000),
			StartedAt:   time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:     "run-2",
			Status: model.RunFailed,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "42000")
	assert.Contains(t, out, "unavailable")
}

func TestLoadPopulation_UnsupportedFormat(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })
	cfg = &config.Config{}

	_, err := loadPopulation("population.pdf")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported population file format")
}
