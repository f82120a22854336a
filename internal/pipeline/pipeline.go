// Package pipeline orchestrates a full accessibility scoring run: normalize,
// join, aggregate, classify.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/arogyamap/access-cli/internal/classify"
	"github.com/arogyamap/access-cli/internal/ingest"
	"github.com/arogyamap/access-cli/internal/metrics"
	"github.com/arogyamap/access-cli/internal/model"
	"github.com/arogyamap/access-cli/internal/projection"
	"github.com/arogyamap/access-cli/internal/spatial"
)

// Inputs holds the raw WGS84 collections a run consumes. The pipeline never
// mutates them.
type Inputs struct {
	Facilities []model.Facility
	Regions    []model.Region
	Roads      []model.RoadSegment
	Population []model.PopulationRecord
	Boundary   *geom.MultiPolygon // optional outer clip, e.g. the state border
}

// Config tunes one run.
type Config struct {
	Projection     projection.Params
	Thresholds     classify.Thresholds
	RoadCategories []string
	RoadSearchM    float64
	Concurrency    int
	Canonicalizer  *ingest.Canonicalizer
}

// Warning categories reported in Report.Warnings.
const (
	WarnSkippedFacilities    = "skipped_facilities"
	WarnSkippedRegions       = "skipped_regions"
	WarnSkippedRoads         = "skipped_roads"
	WarnOutsideBoundary      = "outside_boundary"
	WarnUnassignedFacilities = "unassigned_facilities"
	WarnDuplicateFacilities  = "duplicate_facilities"
	WarnMissingPopulation    = "missing_population"
)

// Report is the ordered outcome of one run. Centroids carries each region's
// projected centroid so exporters can unproject it for mapping.
type Report struct {
	RunID     string                   `json:"run_id"`
	Results   []model.ClassifiedRegion `json:"results"`
	MeanRatio model.Metric             `json:"mean_ratio"`
	Warnings  map[string]int           `json:"warnings,omitempty"`
	Centroids map[string]geom.Coord    `json:"-"`
	StartedAt time.Time                `json:"started_at"`
	Elapsed   time.Duration            `json:"elapsed"`
}

// Run executes the scoring pipeline. Missing regions or facilities are fatal;
// malformed individual records are skipped and counted.
func Run(ctx context.Context, in Inputs, cfg Config) (*Report, error) {
	if len(in.Regions) == 0 || len(in.Facilities) == 0 {
		return nil, eris.New("pipeline: missing required input collections")
	}

	started := time.Now()
	runID := uuid.New().String()
	warnings := make(map[string]int)
	log := zap.L().With(zap.String("run_id", runID))

	canon := cfg.Canonicalizer
	if canon == nil {
		canon = ingest.NewCanonicalizer(nil)
	}
	if cfg.Thresholds == (classify.Thresholds{}) {
		cfg.Thresholds = classify.DefaultThresholds()
	}

	norm, err := projection.NewNormalizer(cfg.Projection)
	if err != nil {
		return nil, err
	}

	facilities, skipped, err := norm.NormalizeFacilities(in.Facilities)
	if err != nil {
		return nil, err
	}
	addWarning(warnings, WarnSkippedFacilities, skipped)

	regions, skipped, err := norm.NormalizeRegions(in.Regions)
	if err != nil {
		return nil, err
	}
	addWarning(warnings, WarnSkippedRegions, skipped)
	if len(regions) == 0 {
		return nil, eris.New("pipeline: no usable regions after normalization")
	}

	roads, skipped, err := norm.NormalizeRoads(in.Roads)
	if err != nil {
		return nil, err
	}
	addWarning(warnings, WarnSkippedRoads, skipped)

	if in.Boundary != nil {
		boundary, err := norm.NormalizeBoundary(in.Boundary)
		if err != nil {
			return nil, err
		}
		facilities, skipped = clipToBoundary(facilities, boundary)
		addWarning(warnings, WarnOutsideBoundary, skipped)
	}

	facilities, removed := ingest.DedupFacilities(facilities, canon)
	addWarning(warnings, WarnDuplicateFacilities, removed)

	assigned := make(map[int][]model.Facility, len(regions))
	var unassigned int
	for _, f := range facilities {
		idx, ok := spatial.AssignRegion(f, regions)
		if !ok {
			unassigned++
			continue
		}
		assigned[idx] = append(assigned[idx], f)
	}
	addWarning(warnings, WarnUnassignedFacilities, unassigned)

	population := ingest.PopulationIndex(in.Population, canon)
	for _, r := range regions {
		if population[canon.Key(r.Name)] == nil {
			warnings[WarnMissingPopulation]++
		}
	}

	regionMetrics, err := metrics.AggregateAll(ctx, regions, assigned, population, canon.Key, roads, metrics.Options{
		RoadCategories: cfg.RoadCategories,
		RoadSearchM:    cfg.RoadSearchM,
		Concurrency:    cfg.Concurrency,
	})
	if err != nil {
		return nil, err
	}

	results := classify.Classify(regionMetrics, cfg.Thresholds)
	mean := classify.MeanRatio(regionMetrics)

	centroids := make(map[string]geom.Coord, len(regions))
	for _, r := range regions {
		centroids[r.Name] = r.Centroid
	}

	log.Info("pipeline: run complete",
		zap.Int("regions", len(results)),
		zap.Int("facilities", len(facilities)),
		zap.Duration("elapsed", time.Since(started)),
	)
	for category, n := range warnings {
		if n > 0 {
			log.Warn("pipeline: diagnostics", zap.String("category", category), zap.Int("count", n))
		}
	}

	return &Report{
		RunID:     runID,
		Results:   results,
		MeanRatio: mean,
		Warnings:  warnings,
		Centroids: centroids,
		StartedAt: started,
		Elapsed:   time.Since(started),
	}, nil
}

// ToRun converts a report into its persisted form.
func (r *Report) ToRun() *model.Run {
	return &model.Run{
		ID:          r.RunID,
		Status:      model.RunCompleted,
		MeanRatio:   r.MeanRatio,
		RegionCount: len(r.Results),
		Warnings:    r.Warnings,
		Results:     r.Results,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.StartedAt.Add(r.Elapsed),
	}
}

func addWarning(warnings map[string]int, category string, n int) {
	if n > 0 {
		warnings[category] += n
	}
}

// clipToBoundary drops facilities outside the outer boundary polygon.
func clipToBoundary(facilities []model.Facility, boundary *geom.MultiPolygon) ([]model.Facility, int) {
	kept := make([]model.Facility, 0, len(facilities))
	var dropped int
	for _, f := range facilities {
		if f.Location == nil || !spatial.Contains(boundary, f.Location.Coords()) {
			dropped++
			continue
		}
		kept = append(kept, f)
	}
	return kept, dropped
}
