package pipeline

import (
	"strconv"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/phila-data/enrich-cli/internal/fields"
	"github.com/phila-data/enrich-cli/internal/model"
	"github.com/phila-data/enrich-cli/internal/project"
)

// Output bookkeeping columns added to every row.
const (
	ColOutputAddress = "output_address"
	ColMatchType     = "match_type"
	ColLat           = "geocode_lat"
	ColLon           = "geocode_lon"
	ColX             = "geocode_x"
	ColY             = "geocode_y"
)

// Reconciler assembles output rows: caller columns (renamed with a
// _left suffix when they collide with a column this pipeline adds),
// bookkeeping columns, coordinates per SRID flag, and the requested
// enrichment fields in request order. The schema is fixed at
// construction and identical for every row.
type Reconciler struct {
	columns    []string
	renames    map[string]string
	enrichment []string
	srid4326   bool
	srid2272   bool
	projector  *project.Projector
}

// NewReconciler builds the output schema for a batch. The requested
// enrichment fields must already be catalog-validated.
func NewReconciler(inputColumns, requested []string, srid4326, srid2272 bool) *Reconciler {
	rc := &Reconciler{
		renames:    make(map[string]string),
		enrichment: fields.Columns(requested),
		srid4326:   srid4326,
		srid2272:   srid2272,
	}
	if srid2272 {
		rc.projector = project.NewProjector()
	}

	added := map[string]bool{ColOutputAddress: true, ColMatchType: true}
	if srid4326 {
		added[ColLat] = true
		added[ColLon] = true
	}
	if srid2272 {
		added[ColX] = true
		added[ColY] = true
	}
	for _, f := range rc.enrichment {
		added[f] = true
	}

	for _, col := range inputColumns {
		name := col
		if added[col] {
			name = col + "_left"
			rc.renames[col] = name
			zap.L().Info("pipeline: input column renamed to avoid collision",
				zap.String("from", col), zap.String("to", name))
		}
		rc.columns = append(rc.columns, name)
	}
	rc.columns = append(rc.columns, ColOutputAddress, ColMatchType)
	if srid4326 {
		rc.columns = append(rc.columns, ColLat, ColLon)
	}
	if srid2272 {
		rc.columns = append(rc.columns, ColX, ColY)
	}
	rc.columns = append(rc.columns, rc.enrichment...)

	return rc
}

// Columns returns the output header.
func (rc *Reconciler) Columns() []string { return rc.columns }

// Row merges one input record with its resolution outcome. Every schema
// column is present; unavailable values are empty strings, never
// omitted.
func (rc *Reconciler) Row(rec model.RawRecord, out model.Outcome) map[string]string {
	row := make(map[string]string, len(rc.columns))
	for _, col := range rc.columns {
		row[col] = ""
	}

	for col, val := range rec.Values {
		name := col
		if renamed, ok := rc.renames[col]; ok {
			name = renamed
		}
		row[name] = val
	}

	row[ColOutputAddress] = out.OutputAddress
	row[ColMatchType] = out.Source

	if out.HasCoords {
		if rc.srid4326 {
			row[ColLat] = formatCoord(out.Lat)
			row[ColLon] = formatCoord(out.Lon)
		}
		if rc.srid2272 {
			if pt, err := rc.projector.Forward(geom.Coord{out.Lon, out.Lat}); err == nil {
				row[ColX] = formatCoord(pt[0])
				row[ColY] = formatCoord(pt[1])
			} else {
				zap.L().Warn("pipeline: projection failed",
					zap.Float64("lat", out.Lat), zap.Float64("lon", out.Lon), zap.Error(err))
			}
		}
	}

	// Enrichment needs trusted provenance: the reference table, or an
	// AIS match (which only ever covers Philadelphia). Out-of-city and
	// secondary-only matches carry coordinates but no attributes.
	if out.InMunicipality == model.MembershipInside &&
		(out.Source == model.SourceReference || out.Source == model.SourceAIS) {
		for _, f := range rc.enrichment {
			row[f] = out.Enrichment[f]
		}
	}

	return row
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
