package refindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phila-data/enrich-cli/internal/standardize"
)

func TestBuildFromCSV_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "reference.csv")
	dbPath := filepath.Join(dir, "reference.db")

	csvData := "street_address,zip_code,lat,lon,census_tract_2020,police_district\n" +
		"1234 Market St,19107,39.9517,-75.1607,000500,06\n" +
		"100 N Broad St,19110,39.9540,-75.1632,000200,09\n" +
		"not an address,,x,y,,\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csvData), 0o644))

	n, err := BuildFromCSV(context.Background(), dbPath, csvPath)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ix, err := Load(context.Background(), dbPath)
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())

	parser := standardize.NewParser()
	addr, err := parser.Standardize("1234 Market St")
	require.NoError(t, err)

	cand, ambiguous := ix.Match(addr)
	require.False(t, ambiguous)
	require.NotNil(t, cand)
	assert.Equal(t, "1234 MARKET ST", cand.Row.StreetAddress)
	assert.Equal(t, "19107", cand.Row.Zip)
	assert.Equal(t, "000500", cand.Row.Attributes["census_tract_2020"])
	assert.InDelta(t, 39.9517, cand.Row.Lat, 1e-9)
}

func TestBuildFromCSV_MissingColumns(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "reference.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("street_address\n1234 Market St\n"), 0o644))

	_, err := BuildFromCSV(context.Background(), filepath.Join(dir, "out.db"), csvPath)
	assert.Error(t, err)
}

func TestRowFromAddress(t *testing.T) {
	parser := standardize.NewParser()

	row, ok := rowFromAddress(parser, "1200-1298 Market St", "19107", 39.95, -75.16, nil)
	require.True(t, ok)
	assert.Equal(t, 1200, row.Low)
	assert.Equal(t, 1298, row.High)
	assert.Equal(t, "E", row.Parity)
	assert.Equal(t, "MARKET", row.Street)
	assert.Equal(t, "ST", row.Suffix)

	_, ok = rowFromAddress(parser, "garbage", "", 0, 0, nil)
	assert.False(t, ok)
}

func TestParityFor(t *testing.T) {
	assert.Equal(t, "B", parityFor(100, 100))
	assert.Equal(t, "E", parityFor(100, 198))
	assert.Equal(t, "O", parityFor(101, 199))
	assert.Equal(t, "B", parityFor(100, 199))
}
