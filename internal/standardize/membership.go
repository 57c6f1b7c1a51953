package standardize

import (
	"strings"

	"github.com/phila-data/enrich-cli/internal/model"
)

// phillyNames are accepted spellings of the city name, lowercased.
var phillyNames = map[string]bool{
	"philadelphia": true,
	"phila":        true,
	"philly":       true,
}

// paNames are accepted spellings of the state, lowercased.
var paNames = map[string]bool{
	"pa":           true,
	"pennsylvania": true,
	"penn":         true,
}

// phillyZips holds every ZIP5 assigned to Philadelphia, including the
// unique and PO-box codes outside the 19102-19154 delivery range.
var phillyZips = func() map[string]bool {
	m := make(map[string]bool, 96)
	for z := 19102; z <= 19154; z++ {
		m[itoa5(z)] = true
	}
	for _, z := range []string{
		"19019", "19092", "19093", "19099", "19101",
		"19155", "19160", "19161", "19162",
		"19170", "19171", "19172", "19173", "19175", "19176", "19177",
		"19178", "19179", "19181", "19182", "19183", "19184", "19185",
		"19187", "19188", "19190", "19191", "19192", "19193", "19194",
		"19195", "19196", "19197", "19244", "19255",
	} {
		m[z] = true
	}
	return m
}()

func itoa5(z int) string {
	digits := [5]byte{}
	for i := 4; i >= 0; i-- {
		digits[i] = byte('0' + z%10)
		z /= 10
	}
	return string(digits[:])
}

// IsPhillyZip reports whether zip (ZIP5 or ZIP+4) is a Philadelphia code.
func IsPhillyZip(zip string) bool {
	zip = strings.TrimSpace(zip)
	if len(zip) > 5 {
		zip = zip[:5]
	}
	return phillyZips[zip]
}

// ClassifyMembership determines municipality membership from whatever
// combination of city, state, and zip is present.
//
// Rules, in order:
//   - Philadelphia city + PA state wins regardless of zip.
//   - A non-Philadelphia city or non-PA state means outside.
//   - Otherwise the zip decides.
//   - No signal at all is unknown; unknown addresses are assumed inside
//     for lookup purposes, with the city/state appended for remote calls.
func ClassifyMembership(city, state, zip string) model.Membership {
	city = strings.ToLower(strings.TrimSpace(city))
	state = strings.ToLower(strings.TrimSpace(state))
	zip = strings.TrimSpace(zip)

	if city != "" && state != "" && phillyNames[city] && paNames[state] {
		return model.MembershipInside
	}
	if city != "" && !phillyNames[city] {
		return model.MembershipOutside
	}
	if state != "" && !paNames[state] {
		return model.MembershipOutside
	}
	if zip == "" {
		if city != "" || state != "" {
			// Philly city or PA state alone is enough.
			return model.MembershipInside
		}
		return model.MembershipUnknown
	}
	if IsPhillyZip(zip) {
		return model.MembershipInside
	}
	return model.MembershipOutside
}
