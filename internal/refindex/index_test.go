package refindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phila-data/enrich-cli/internal/model"
)

func marketRows() []Row {
	return []Row{
		{
			StreetAddress: "1234 MARKET ST",
			Low:           1234, High: 1234, Parity: "B",
			Street: "MARKET", Suffix: "ST", Zip: "19107",
			Lat: 39.9517, Lon: -75.1607,
			Attributes: map[string]string{"census_tract_2020": "000500", "police_district": "06"},
		},
		{
			StreetAddress: "1234 MARKET ST STE 200",
			Low:           1234, High: 1234, Parity: "B",
			Street: "MARKET", Suffix: "ST", Unit: "STE 200", Zip: "19107",
			Lat: 39.9517, Lon: -75.1607,
			Attributes: map[string]string{"census_tract_2020": "000500"},
		},
		{
			StreetAddress: "1200-1298 MARKET ST",
			Low:           1200, High: 1298, Parity: "E",
			Street: "MARKET", Suffix: "ST", Zip: "19107",
			Lat: 39.9519, Lon: -75.1612,
			Attributes: map[string]string{"census_tract_2020": "000500"},
		},
		{
			StreetAddress: "100 N BROAD ST",
			Low:           100, High: 100, Parity: "B",
			Predir: "N", Street: "BROAD", Suffix: "ST", Zip: "19110",
			Lat: 39.9540, Lon: -75.1632,
		},
		{
			StreetAddress: "100 S BROAD ST",
			Low:           100, High: 100, Parity: "B",
			Predir: "S", Street: "BROAD", Suffix: "ST", Zip: "19110",
			Lat: 39.9500, Lon: -75.1640,
		},
	}
}

func stdAddr(num int, predir, street, suffix string) model.StandardizedAddress {
	return model.StandardizedAddress{
		HouseNum:  num,
		Predir:    predir,
		Street:    street,
		Suffix:    suffix,
		IsAddress: true,
	}
}

func TestMatch_ExactWins(t *testing.T) {
	ix := New(marketRows())

	cand, ambiguous := ix.Match(stdAddr(1234, "", "MARKET", "ST"))
	require.False(t, ambiguous)
	require.NotNil(t, cand)
	assert.Equal(t, TierExact, cand.Tier)
	assert.Equal(t, "1234 MARKET ST", cand.Row.StreetAddress)
	assert.Equal(t, "000500", cand.Row.Attributes["census_tract_2020"])
}

func TestMatch_UnitTierPreferred(t *testing.T) {
	ix := New(marketRows())

	addr := stdAddr(1234, "", "MARKET", "ST")
	addr.Unit = "STE 200"
	cand, ambiguous := ix.Match(addr)
	require.False(t, ambiguous)
	require.NotNil(t, cand)
	assert.Equal(t, TierExactUnit, cand.Tier)
	assert.Equal(t, "1234 MARKET ST STE 200", cand.Row.StreetAddress)
}

func TestMatch_RangeContainmentWithParity(t *testing.T) {
	ix := New(marketRows())

	// 1250 is even and inside the even-parity segment.
	cand, ambiguous := ix.Match(stdAddr(1250, "", "MARKET", "ST"))
	require.False(t, ambiguous)
	require.NotNil(t, cand)
	assert.Equal(t, TierRange, cand.Tier)
	assert.Equal(t, "1200-1298 MARKET ST", cand.Row.StreetAddress)

	// 1251 is odd: parity rule excludes it.
	cand, ambiguous = ix.Match(stdAddr(1251, "", "MARKET", "ST"))
	assert.False(t, ambiguous)
	assert.Nil(t, cand)
}

func TestMatch_PredirDisambiguates(t *testing.T) {
	ix := New(marketRows())

	cand, ambiguous := ix.Match(stdAddr(100, "N", "BROAD", "ST"))
	require.False(t, ambiguous)
	require.NotNil(t, cand)
	assert.Equal(t, "100 N BROAD ST", cand.Row.StreetAddress)
}

func TestMatch_AmbiguousIsNeverPicked(t *testing.T) {
	ix := New(marketRows())

	// No predirectional: both 100 N BROAD ST and 100 S BROAD ST match
	// at the relaxed tier.
	cand, ambiguous := ix.Match(stdAddr(100, "", "BROAD", "ST"))
	assert.True(t, ambiguous)
	assert.Nil(t, cand)
}

func TestMatch_MissingSuffixIsWildcard(t *testing.T) {
	ix := New(marketRows())

	cand, ambiguous := ix.Match(stdAddr(1234, "", "MARKET", ""))
	require.False(t, ambiguous)
	require.NotNil(t, cand)
	assert.Equal(t, "1234 MARKET ST", cand.Row.StreetAddress)
}

func TestMatch_UnknownStreet(t *testing.T) {
	ix := New(marketRows())

	cand, ambiguous := ix.Match(stdAddr(1, "", "NOWHERE", "ST"))
	assert.False(t, ambiguous)
	assert.Nil(t, cand)
}

func TestMatch_NonAddressInput(t *testing.T) {
	ix := New(marketRows())

	cand, ambiguous := ix.Match(model.StandardizedAddress{Street: "MARKET"})
	assert.False(t, ambiguous)
	assert.Nil(t, cand)
}
