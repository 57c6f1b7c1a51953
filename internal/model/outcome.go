package model

// OutcomeKind tags the terminal variant of a record's resolution.
type OutcomeKind int

const (
	// OutcomeUnmatched means every stage was exhausted without a match.
	OutcomeUnmatched OutcomeKind = iota
	// OutcomeLocalMatch means the reference index resolved the address.
	OutcomeLocalMatch
	// OutcomeRemoteMatch means a remote service resolved the address.
	OutcomeRemoteMatch
	// OutcomeIntersectionMatch means an intersection lookup produced
	// coordinates but the reverse re-match did not land on an address.
	OutcomeIntersectionMatch
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeLocalMatch:
		return "local_match"
	case OutcomeRemoteMatch:
		return "remote_match"
	case OutcomeIntersectionMatch:
		return "intersection_match"
	default:
		return "unmatched"
	}
}

// Match-type provenance values written to the output match_type column.
const (
	SourceReference = "address_file"
	SourceAIS       = "ais"
	SourceSecondary = "tomtom"
)

// Outcome is the terminal state of one record's resolution. Exactly one
// kind holds per record; flags below qualify the Unmatched variant.
type Outcome struct {
	Kind   OutcomeKind
	Source string // SourceReference, SourceAIS, SourceSecondary; "" when unmatched

	// OutputAddress is the canonical address for the output row. Falls
	// back to the standardized input when no source produced one.
	OutputAddress string

	// MatchTier names the reference-index tier that won a local match.
	MatchTier string

	HasCoords bool
	Lat, Lon  float64

	// InMunicipality records whether the resolving source placed the
	// address inside Philadelphia. Enrichment is only ever populated
	// when this is MembershipInside.
	InMunicipality Membership

	// Enrichment holds attribute values keyed by catalog field name.
	// Nil or missing keys are emitted as empty output cells.
	Enrichment map[string]string

	// Multiple reports that a stage found more than one candidate and
	// refused to pick one.
	Multiple bool

	// Malformed marks rows that short-circuited to Unmatched without
	// consuming any remote-call budget.
	Malformed bool

	// TimedOut marks rows abandoned when the batch deadline expired.
	TimedOut bool

	// RemoteCalls counts external service calls spent on this record.
	RemoteCalls int
}
