package ingest

import (
	"go.uber.org/zap"

	"github.com/arogyamap/access-cli/internal/model"
)

// DedupFacilities removes facilities that share a canonical (name, district)
// pair, keeping the first occurrence. Facilities with an empty name are never
// treated as duplicates of each other: a missing name carries no identity.
func DedupFacilities(facilities []model.Facility, canon *Canonicalizer) ([]model.Facility, int) {
	type key struct{ name, district string }
	seen := make(map[key]bool, len(facilities))

	out := make([]model.Facility, 0, len(facilities))
	var removed int
	for _, f := range facilities {
		name := CanonicalKey(f.Name)
		if name == "" {
			out = append(out, f)
			continue
		}
		k := key{name: name, district: canon.Key(f.District)}
		if seen[k] {
			removed++
			zap.L().Debug("ingest: dropping duplicate facility",
				zap.String("facility_id", f.ID),
				zap.String("name", f.Name),
				zap.String("district", f.District),
			)
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	if removed > 0 {
		zap.L().Info("ingest: removed duplicate facilities", zap.Int("removed", removed))
	}
	return out, removed
}
