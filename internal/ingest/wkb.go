package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// EncodeEWKB marshals a geometry to little-endian EWKB for PostGIS COPY.
// Returns nil, nil for a nil geometry so optional columns map to NULL.
func EncodeEWKB(g geom.T) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: encode EWKB")
	}
	return data, nil
}

// DecodeEWKB is the inverse, used when reading snapshots back out of
// PostGIS. An empty payload decodes to nil.
func DecodeEWKB(data []byte) (geom.T, error) {
	if len(data) == 0 {
		return nil, nil
	}
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: decode EWKB")
	}
	return g, nil
}
