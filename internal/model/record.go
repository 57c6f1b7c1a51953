// Package model defines the record and outcome types shared across the
// enrichment pipeline.
package model

// RawRecord is one input row. Values holds every caller-supplied column
// keyed by header name; columns the pipeline does not recognize pass
// through to the output unchanged.
type RawRecord struct {
	// Index is the zero-based position of the row in the input file.
	// Output rows are reassembled in Index order.
	Index  int
	Values map[string]string
}

// Get returns the value for a column, or "" when the column is absent.
func (r RawRecord) Get(col string) string {
	if r.Values == nil {
		return ""
	}
	return r.Values[col]
}

// Membership is the municipality-membership determination for an address.
type Membership int

const (
	// MembershipUnknown means city/state/zip gave no signal either way.
	// Unknown addresses are assumed in-municipality for lookup purposes.
	MembershipUnknown Membership = iota
	// MembershipInside means the address is in Philadelphia.
	MembershipInside
	// MembershipOutside means the address is outside Philadelphia.
	MembershipOutside
)

func (m Membership) String() string {
	switch m {
	case MembershipInside:
		return "inside"
	case MembershipOutside:
		return "outside"
	default:
		return "unknown"
	}
}

// StandardizedAddress is the canonical token set produced by the
// standardizer. It is built once per record and never mutated.
type StandardizedAddress struct {
	// Input is the raw string the standardizer was given.
	Input string

	// OutputAddress is the canonical single-line street address,
	// e.g. "1234 MARKET ST".
	OutputAddress string

	HouseNum  int    // low house number; 0 when none parsed
	HouseHigh int    // high end of a hyphenated range; 0 when not a range
	Predir    string // N, S, E, W
	Street    string // street name without directionals or suffix
	Suffix    string // canonical suffix: ST, AVE, BLVD, ...
	Postdir   string
	Unit      string // unit designator + number, e.g. "APT 2B"

	City  string
	State string
	Zip   string // ZIP5

	// IsAddress reports whether the input parsed as a postal address
	// (a house number and a street name were both found).
	IsAddress bool

	// Intersection reports whether the input denotes a street
	// intersection rather than a postal address. CrossStreet holds the
	// second street when set.
	Intersection bool
	CrossStreet  string
}
