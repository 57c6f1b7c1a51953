package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phila-data/enrich-cli/internal/model"
)

func matchedOutcome() model.Outcome {
	return model.Outcome{
		Kind:           model.OutcomeLocalMatch,
		Source:         model.SourceReference,
		OutputAddress:  "1234 MARKET ST",
		HasCoords:      true,
		Lat:            39.9517,
		Lon:            -75.1607,
		InMunicipality: model.MembershipInside,
		Enrichment:     map[string]string{"census_tract_2020": "000500", "police_district": "06"},
	}
}

func TestReconciler_Schema(t *testing.T) {
	rc := NewReconciler(
		[]string{"address", "city"},
		[]string{"census_tract_2020", "police_district"},
		true, false,
	)

	assert.Equal(t, []string{
		"address", "city",
		"output_address", "match_type",
		"geocode_lat", "geocode_lon",
		"census_tract_2020", "police_district",
	}, rc.Columns())
}

func TestReconciler_CollisionRename(t *testing.T) {
	rc := NewReconciler(
		[]string{"address", "census_tract_2020", "match_type"},
		[]string{"census_tract_2020"},
		true, false,
	)

	require.Equal(t, []string{
		"address", "census_tract_2020_left", "match_type_left",
		"output_address", "match_type",
		"geocode_lat", "geocode_lon",
		"census_tract_2020",
	}, rc.Columns())

	rec := model.RawRecord{Values: map[string]string{
		"address":           "1234 Market St",
		"census_tract_2020": "caller-owned",
		"match_type":        "caller-owned-too",
	}}
	row := rc.Row(rec, matchedOutcome())
	assert.Equal(t, "caller-owned", row["census_tract_2020_left"])
	assert.Equal(t, "caller-owned-too", row["match_type_left"])
	assert.Equal(t, "000500", row["census_tract_2020"])
	assert.Equal(t, "address_file", row["match_type"])
}

func TestReconciler_MatchedRow(t *testing.T) {
	rc := NewReconciler([]string{"address"}, []string{"census_tract_2020"}, true, false)

	row := rc.Row(model.RawRecord{Values: map[string]string{"address": "1234 Market St"}}, matchedOutcome())
	assert.Equal(t, "1234 MARKET ST", row["output_address"])
	assert.Equal(t, "39.9517", row["geocode_lat"])
	assert.Equal(t, "-75.1607", row["geocode_lon"])
	assert.Equal(t, "000500", row["census_tract_2020"])

	// srid_2272 disabled: no planar columns anywhere in the row.
	_, hasX := row["geocode_x"]
	assert.False(t, hasX)
}

func TestReconciler_StatePlaneColumns(t *testing.T) {
	rc := NewReconciler([]string{"address"}, nil, false, true)

	row := rc.Row(model.RawRecord{}, matchedOutcome())
	assert.NotEmpty(t, row["geocode_x"])
	assert.NotEmpty(t, row["geocode_y"])
	_, hasLat := row["geocode_lat"]
	assert.False(t, hasLat)
}

func TestReconciler_UnmatchedRowKeepsSchema(t *testing.T) {
	rc := NewReconciler([]string{"address"}, []string{"census_tract_2020"}, true, true)

	row := rc.Row(
		model.RawRecord{Values: map[string]string{"address": "nowhere"}},
		model.Outcome{Kind: model.OutcomeUnmatched},
	)
	require.Len(t, row, len(rc.Columns()))
	assert.Equal(t, "nowhere", row["address"])
	for _, col := range []string{"output_address", "match_type", "geocode_lat", "geocode_lon", "geocode_x", "geocode_y", "census_tract_2020"} {
		v, ok := row[col]
		assert.True(t, ok, col)
		assert.Empty(t, v, col)
	}
}

func TestReconciler_SecondaryMatchGetsNoEnrichment(t *testing.T) {
	rc := NewReconciler([]string{"address"}, []string{"census_tract_2020"}, true, false)

	out := model.Outcome{
		Kind:           model.OutcomeRemoteMatch,
		Source:         model.SourceSecondary,
		OutputAddress:  "10 Main St, Narberth, PA",
		HasCoords:      true,
		Lat:            40.0086,
		Lon:            -75.2605,
		InMunicipality: model.MembershipOutside,
		Enrichment:     map[string]string{"census_tract_2020": "should-not-appear"},
	}
	row := rc.Row(model.RawRecord{}, out)
	assert.NotEmpty(t, row["geocode_lat"])
	assert.Empty(t, row["census_tract_2020"])
	assert.Equal(t, "tomtom", row["match_type"])
}

func TestReconciler_PassthroughColumnsUnchanged(t *testing.T) {
	rc := NewReconciler([]string{"id", "address", "notes"}, nil, true, false)

	rec := model.RawRecord{Values: map[string]string{"id": "42", "address": "x", "notes": "keep me"}}
	row := rc.Row(rec, model.Outcome{Kind: model.OutcomeUnmatched})
	assert.Equal(t, "42", row["id"])
	assert.Equal(t, "keep me", row["notes"])
}
