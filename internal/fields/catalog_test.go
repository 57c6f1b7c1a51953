package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate([]string{"census_tract_2020", "police_district"}))
	assert.NoError(t, Validate([]string{"census_tract_2020", "census_tract_2020"}))

	err := Validate([]string{"zebra_district", "census_tract_2020", "abc"})
	require.Error(t, err)
	// All unknown names, sorted, in one error.
	assert.Contains(t, err.Error(), "abc, zebra_district")
}

func TestNamesSortedAndComplete(t *testing.T) {
	names := Names()
	assert.Len(t, names, len(Catalog))
	assert.IsIncreasing(t, names)
}

func TestColumnsPreserveOrderAndDedup(t *testing.T) {
	got := Columns([]string{"police_district", "census_tract_2020", "police_district"})
	assert.Equal(t, []string{"police_district", "census_tract_2020"}, got)
}
