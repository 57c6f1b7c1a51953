// Package fields defines the catalog of enrichment fields a caller may
// request, and maps each one to its column in the local reference table.
package fields

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Catalog maps requestable enrichment field names to the reference-table
// column that backs them. For almost every field the two names agree;
// the map exists so the API surface stays stable if reference columns
// are ever renamed.
var Catalog = map[string]string{
	"street_address":             "street_address",
	"address_low":                "address_low",
	"address_high":               "address_high",
	"street_predir":              "street_predir",
	"street_name":                "street_name",
	"street_suffix":              "street_suffix",
	"street_postdir":             "street_postdir",
	"unit_num":                   "unit_num",
	"zip_code":                   "zip_code",
	"zip_4":                      "zip_4",
	"street_code":                "street_code",
	"seg_id":                     "seg_id",
	"usps_bldgfirm":              "usps_bldgfirm",
	"usps_type":                  "usps_type",
	"election_block_id":          "election_block_id",
	"political_ward":             "political_ward",
	"political_division":         "political_division",
	"council_district_2016":      "council_district_2016",
	"council_district_2024":      "council_district_2024",
	"state_house_rep_2012":       "state_house_rep_2012",
	"state_house_rep_2022":       "state_house_rep_2022",
	"state_senate_2012":          "state_senate_2012",
	"state_senate_2022":          "state_senate_2022",
	"us_congressional_2012":      "us_congressional_2012",
	"us_congressional_2018":      "us_congressional_2018",
	"us_congressional_2022":      "us_congressional_2022",
	"census_tract_2010":          "census_tract_2010",
	"census_block_group_2010":    "census_block_group_2010",
	"census_block_2010":          "census_block_2010",
	"census_tract_2020":          "census_tract_2020",
	"census_block_group_2020":    "census_block_group_2020",
	"census_block_2020":          "census_block_2020",
	"opa_account_num":            "opa_account_num",
	"opa_owners":                 "opa_owners",
	"opa_address":                "opa_address",
	"pwd_parcel_id":              "pwd_parcel_id",
	"dor_parcel_id":              "dor_parcel_id",
	"li_address_key":             "li_address_key",
	"li_parcel_id":               "li_parcel_id",
	"li_district":                "li_district",
	"eclipse_location_id":        "eclipse_location_id",
	"bin":                        "bin",
	"zoning":                     "zoning",
	"zoning_rco":                 "zoning_rco",
	"zoning_document_ids":        "zoning_document_ids",
	"commercial_corridor":        "commercial_corridor",
	"planning_district":          "planning_district",
	"elementary_school":          "elementary_school",
	"middle_school":              "middle_school",
	"high_school":                "high_school",
	"police_district":            "police_district",
	"police_division":            "police_division",
	"police_service_area":        "police_service_area",
	"fire_station":               "fire_station",
	"fire_battalion":             "fire_battalion",
	"ems_district":               "ems_district",
	"rubbish_recycle_day":        "rubbish_recycle_day",
	"recycling_diversion_rate":   "recycling_diversion_rate",
	"leaf_collection_area":       "leaf_collection_area",
	"sanitation_area":            "sanitation_area",
	"sanitation_district":        "sanitation_district",
	"sanitation_convenience_ctr": "sanitation_convenience_ctr",
	"street_light_route":         "street_light_route",
	"traffic_district":           "traffic_district",
	"traffic_pm_district":        "traffic_pm_district",
	"highway_district":           "highway_district",
	"highway_section":            "highway_section",
	"highway_subsection":         "highway_subsection",
	"pwd_maint_district":         "pwd_maint_district",
	"pwd_pressure_district":      "pwd_pressure_district",
	"pwd_treatment_plant":        "pwd_treatment_plant",
	"pwd_water_plate":            "pwd_water_plate",
	"pwd_center_city_district":   "pwd_center_city_district",
	"major_phila_watershed":      "major_phila_watershed",
	"tencode":                    "tencode",
	"historic_district":          "historic_district",
	"historic_site":              "historic_site",
	"historic_street":            "historic_street",
	"neighborhood_advisory_committee": "neighborhood_advisory_committee",
	"ppr_friends":                "ppr_friends",
	"census_place_2020":          "census_place_2020",
	"elevation":                  "elevation",
}

// Validate checks every requested field name against the catalog. It
// returns a single error naming all unknown fields so the caller can fix
// the whole list in one pass. Duplicate requests are tolerated.
func Validate(requested []string) error {
	var unknown []string
	for _, f := range requested {
		if _, ok := Catalog[f]; !ok {
			unknown = append(unknown, f)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return eris.Errorf("fields: unknown enrichment field(s): %s", strings.Join(unknown, ", "))
	}
	return nil
}

// Names returns every requestable field name in sorted order.
func Names() []string {
	out := make([]string, 0, len(Catalog))
	for name := range Catalog {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Columns resolves requested field names to their reference-table
// columns, preserving request order and dropping duplicates. The caller
// must have validated the list first.
func Columns(requested []string) []string {
	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	for _, f := range requested {
		col, ok := Catalog[f]
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		out = append(out, col)
	}
	return out
}
