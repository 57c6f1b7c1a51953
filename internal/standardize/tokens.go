package standardize

import "strings"

// directionals maps every accepted directional spelling to its canonical
// single-letter form.
var directionals = map[string]string{
	"N": "N", "NORTH": "N",
	"S": "S", "SOUTH": "S",
	"E": "E", "EAST": "E",
	"W": "W", "WEST": "W",
}

// suffixes maps accepted street-suffix spellings to USPS canonical
// abbreviations. Covers the suffixes that actually occur in the city
// street network.
var suffixes = map[string]string{
	"ST": "ST", "STREET": "ST", "STR": "ST",
	"AVE": "AVE", "AVENUE": "AVE", "AV": "AVE",
	"BLVD": "BLVD", "BOULEVARD": "BLVD",
	"RD": "RD", "ROAD": "RD",
	"DR": "DR", "DRIVE": "DR",
	"LN": "LN", "LANE": "LN",
	"CT": "CT", "COURT": "CT",
	"PL": "PL", "PLACE": "PL",
	"TER": "TER", "TERRACE": "TER", "TERR": "TER",
	"WAY": "WAY",
	"CIR": "CIR", "CIRCLE": "CIR",
	"PKWY": "PKWY", "PARKWAY": "PKWY", "PKY": "PKWY",
	"ROW": "ROW",
	"SQ": "SQ", "SQUARE": "SQ",
	"WALK": "WALK",
	"ALY": "ALY", "ALLEY": "ALY",
	"PLZ": "PLZ", "PLAZA": "PLZ",
	"EXPY": "EXPY", "EXPRESSWAY": "EXPY",
	"HWY": "HWY", "HIGHWAY": "HWY",
	"PIKE": "PIKE",
	"MALL": "MALL",
	"PATH": "PATH",
	"LOOP": "LOOP",
	"CRES": "CRES", "CRESCENT": "CRES",
	"BRG": "BRG", "BRIDGE": "BRG",
}

// unitDesignators are tokens that introduce a secondary unit.
var unitDesignators = map[string]string{
	"APT": "APT", "APARTMENT": "APT",
	"UNIT": "UNIT",
	"STE": "STE", "SUITE": "STE",
	"FL": "FL", "FLOOR": "FL",
	"RM": "RM", "ROOM": "RM",
	"BLDG": "BLDG", "BUILDING": "BLDG",
	"#": "#",
}

// stateNames maps lowercase state abbreviations to lowercase full names.
var stateNames = map[string]string{
	"al": "alabama", "ak": "alaska", "az": "arizona", "ar": "arkansas",
	"ca": "california", "co": "colorado", "ct": "connecticut", "de": "delaware",
	"fl": "florida", "ga": "georgia", "hi": "hawaii", "id": "idaho",
	"il": "illinois", "in": "indiana", "ia": "iowa", "ks": "kansas",
	"ky": "kentucky", "la": "louisiana", "me": "maine", "md": "maryland",
	"ma": "massachusetts", "mi": "michigan", "mn": "minnesota", "ms": "mississippi",
	"mo": "missouri", "mt": "montana", "ne": "nebraska", "nv": "nevada",
	"nh": "new hampshire", "nj": "new jersey", "nm": "new mexico", "ny": "new york",
	"nc": "north carolina", "nd": "north dakota", "oh": "ohio", "ok": "oklahoma",
	"or": "oregon", "pa": "pennsylvania", "ri": "rhode island", "sc": "south carolina",
	"sd": "south dakota", "tn": "tennessee", "tx": "texas", "ut": "utah",
	"vt": "vermont", "va": "virginia", "wa": "washington", "wv": "west virginia",
	"wi": "wisconsin", "wy": "wyoming", "dc": "district of columbia",
}

// stateAbbr maps lowercase full state names back to abbreviations.
var stateAbbr = func() map[string]string {
	m := make(map[string]string, len(stateNames))
	for abbr, full := range stateNames {
		m[full] = abbr
	}
	return m
}()

// normalizeState returns the uppercase two-letter abbreviation for a
// state token, or "" when the token is not a state.
func normalizeState(tok string) string {
	lower := strings.ToLower(strings.TrimSpace(tok))
	if lower == "" {
		return ""
	}
	if _, ok := stateNames[lower]; ok {
		return strings.ToUpper(lower)
	}
	if abbr, ok := stateAbbr[lower]; ok {
		return strings.ToUpper(abbr)
	}
	return ""
}
