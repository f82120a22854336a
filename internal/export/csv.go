// Package export renders run reports for downstream consumers.
package export

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/arogyamap/access-cli/internal/model"
	"github.com/arogyamap/access-cli/internal/pipeline"
	"github.com/arogyamap/access-cli/internal/projection"
)

// WriteCSV writes one row per classified region in report order. Undefined
// metrics render as "unavailable". Region centroids are unprojected back to
// lon/lat for mapping collaborators.
func WriteCSV(w io.Writer, report *pipeline.Report, params projection.Params) error {
	categories := roadCategories(report.Results)

	header := []string{
		"region", "tier", "population", "facility_count",
		"density_per_km2", "population_per_facility", "facilities_per_100k",
		"emergency_coverage_pct", "nearest_facility_id", "nearest_facility_dist_m",
	}
	for _, c := range categories {
		header = append(header, "avg_dist_"+c+"_m")
	}
	header = append(header, "centroid_lon", "centroid_lat")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	for _, cr := range report.Results {
		row := []string{
			cr.Region,
			string(cr.Tier),
			cr.Population.String(),
			strconv.Itoa(cr.FacilityCount),
			cr.DensityPerKM2.String(),
			cr.PopulationPerFacility.String(),
			cr.FacilitiesPer100K.String(),
			cr.EmergencyCoveragePct.String(),
			cr.NearestFacilityID,
			cr.NearestFacilityDistM.String(),
		}
		for _, c := range categories {
			m, ok := cr.AvgRoadDistanceM[c]
			if !ok {
				m = model.UndefinedMetric()
			}
			row = append(row, m.String())
		}
		row = append(row, centroidLonLat(cr.RegionMetrics, report, params)...)

		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "export: write row for %s", cr.Region)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

// roadCategories returns the sorted union of per-category distance keys so
// every row carries the same columns.
func roadCategories(results []model.ClassifiedRegion) []string {
	set := make(map[string]bool)
	for _, cr := range results {
		for c := range cr.AvgRoadDistanceM {
			set[c] = true
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func centroidLonLat(rm model.RegionMetrics, report *pipeline.Report, params projection.Params) []string {
	c, ok := report.Centroids[rm.Region]
	if !ok {
		return []string{model.Unavailable, model.Unavailable}
	}
	lon, lat := params.Inverse(c[0], c[1])
	return []string{
		strconv.FormatFloat(lon, 'f', 6, 64),
		strconv.FormatFloat(lat, 'f', 6, 64),
	}
}
