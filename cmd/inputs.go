package main

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/arogyamap/access-cli/internal/ingest"
	"github.com/arogyamap/access-cli/internal/model"
	"github.com/arogyamap/access-cli/internal/pipeline"
)

// datasetPaths points at the local files one run consumes.
type datasetPaths struct {
	Facilities string
	Regions    string
	Roads      string
	Boundary   string
	Population string
}

// defaultPaths fills unset paths from the configured data directory.
func (p *datasetPaths) applyDefaults(dataDir string) {
	if p.Facilities == "" {
		p.Facilities = filepath.Join(dataDir, "facilities.shp")
	}
	if p.Regions == "" {
		p.Regions = filepath.Join(dataDir, "districts.shp")
	}
	if p.Roads == "" {
		p.Roads = filepath.Join(dataDir, "roads.shp")
	}
	if p.Population == "" {
		p.Population = filepath.Join(dataDir, "population.csv")
	}
}

// loadInputs parses the local datasets into pipeline inputs. Roads, boundary,
// and population are optional; regions and facilities are not, but that is
// enforced by the pipeline itself.
func loadInputs(paths datasetPaths) (pipeline.Inputs, error) {
	var in pipeline.Inputs

	facilities, err := ingest.ReadFacilities(paths.Facilities, ingest.FacilityFields{})
	if err != nil {
		return in, err
	}
	in.Facilities = facilities

	regions, err := ingest.ReadRegions(paths.Regions, "")
	if err != nil {
		return in, err
	}
	in.Regions = regions

	if paths.Roads != "" {
		roads, err := ingest.ReadRoads(paths.Roads, "", cfg.Pipeline.RoadCategories)
		if err != nil {
			return in, err
		}
		in.Roads = roads
	}

	if paths.Boundary != "" {
		boundary, err := ingest.ReadBoundary(paths.Boundary)
		if err != nil {
			return in, err
		}
		in.Boundary = boundary
	}

	if paths.Population != "" {
		records, err := loadPopulation(paths.Population)
		if err != nil {
			return in, err
		}
		in.Population = records
	}

	zap.L().Info("datasets loaded",
		zap.Int("facilities", len(in.Facilities)),
		zap.Int("regions", len(in.Regions)),
		zap.Int("roads", len(in.Roads)),
		zap.Int("population_records", len(in.Population)),
	)
	return in, nil
}

func loadPopulation(path string) ([]model.PopulationRecord, error) {
	opts := ingest.PopulationOptions{
		DistrictCol:   cfg.Dataset.PopulationCSV.DistrictCol,
		PopulationCol: cfg.Dataset.PopulationCSV.PopulationCol,
		SkipRows:      cfg.Dataset.PopulationCSV.SkipRows,
		SheetName:     cfg.Dataset.PopulationCSV.SheetName,
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ingest.ReadPopulationCSV(path, opts)
	case ".xlsx":
		return ingest.ReadPopulationXLSX(path, opts)
	default:
		return nil, eris.Errorf("unsupported population file format: %s", path)
	}
}
