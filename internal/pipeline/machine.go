// Package pipeline drives per-record address resolution: an explicit
// state machine over the local reference index and the two remote
// geocoding services, a bounded worker pool that runs it per batch, and
// the reconciliation step that assembles output rows.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/phila-data/enrich-cli/internal/model"
	"github.com/phila-data/enrich-cli/internal/refindex"
	"github.com/phila-data/enrich-cli/internal/resilience"
	"github.com/phila-data/enrich-cli/internal/standardize"
	"github.com/phila-data/enrich-cli/pkg/ais"
	"github.com/phila-data/enrich-cli/pkg/tomtom"
)

// State is one node of the per-record resolution machine.
type State int

const (
	StateStart State = iota
	StateLocalLookup
	StateIntersectionCheck
	StateRemoteAIS
	StateRemoteSecondary
	StateReverseLookup
	StateMatched
	StateUnmatched
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateLocalLookup:
		return "local_lookup"
	case StateIntersectionCheck:
		return "intersection_check"
	case StateRemoteAIS:
		return "remote_ais"
	case StateRemoteSecondary:
		return "remote_secondary"
	case StateReverseLookup:
		return "reverse_lookup"
	case StateMatched:
		return "matched"
	default:
		return "unmatched"
	}
}

// maxRemoteCalls caps external service calls per record. The widest
// path (intersection, reverse, re-match, secondary) uses exactly four.
const maxRemoteCalls = 4

// LocalMatcher resolves a standardized address against the reference
// index.
type LocalMatcher interface {
	Match(addr model.StandardizedAddress) (cand *refindex.Candidate, ambiguous bool)
}

// PrimaryGeocoder is the AIS capability the machine depends on.
type PrimaryGeocoder interface {
	Search(ctx context.Context, address string) (*ais.Result, error)
	SearchIntersection(ctx context.Context, street1, street2 string) (*ais.Result, error)
	ReverseGeocode(ctx context.Context, lon, lat float64) (*ais.Result, error)
}

// SecondaryGeocoder is the TomTom capability the machine depends on.
type SecondaryGeocoder interface {
	FindCandidates(ctx context.Context, address string) (*tomtom.Candidate, error)
}

// Resolver runs the resolution machine for one record at a time. It is
// stateless across records and safe for concurrent use.
type Resolver struct {
	standardizer standardize.Standardizer
	local        LocalMatcher
	primary      PrimaryGeocoder
	secondary    SecondaryGeocoder
	retry        resilience.RetryConfig
}

// NewResolver wires the resolution machine to its collaborators.
func NewResolver(
	std standardize.Standardizer,
	local LocalMatcher,
	primary PrimaryGeocoder,
	secondary SecondaryGeocoder,
	retry resilience.RetryConfig,
) *Resolver {
	return &Resolver{
		standardizer: std,
		local:        local,
		primary:      primary,
		secondary:    secondary,
		retry:        retry,
	}
}

// resolution is the mutable per-record machine state. It lives for one
// Resolve call only.
type resolution struct {
	r           *Resolver
	addr        model.StandardizedAddress
	membership  model.Membership
	trace       []State
	remoteCalls int
	multiple    bool
}

// Resolve runs the state machine for one raw address. The returned
// trace lists every state entered, terminal included; no non-terminal
// state repeats.
func (r *Resolver) Resolve(ctx context.Context, raw string) (model.Outcome, []State) {
	res := &resolution{r: r}
	res.enter(StateStart)

	addr, err := r.standardizer.Standardize(raw)
	if err != nil || (!addr.IsAddress && !addr.Intersection) {
		res.enter(StateUnmatched)
		return model.Outcome{Kind: model.OutcomeUnmatched, Malformed: true}, res.trace
	}
	res.addr = addr
	res.membership = standardize.ClassifyMembership(addr.City, addr.State, addr.Zip)

	var out model.Outcome
	if res.membership == model.MembershipOutside {
		out = res.remoteSecondary(ctx)
	} else {
		out = res.localLookup(ctx)
	}

	out.Multiple = out.Multiple || res.multiple
	out.RemoteCalls = res.remoteCalls
	if out.OutputAddress == "" {
		out.OutputAddress = addr.OutputAddress
	}
	return out, res.trace
}

func (res *resolution) enter(s State) { res.trace = append(res.trace, s) }

func (res *resolution) localLookup(ctx context.Context) model.Outcome {
	res.enter(StateLocalLookup)

	cand, ambiguous := res.r.local.Match(res.addr)
	if ambiguous {
		// More than one reference row at the winning tier: escalate
		// instead of picking one.
		res.multiple = true
	}
	if cand != nil {
		res.enter(StateMatched)
		return model.Outcome{
			Kind:           model.OutcomeLocalMatch,
			Source:         model.SourceReference,
			OutputAddress:  cand.Row.StreetAddress,
			MatchTier:      cand.Tier.String(),
			HasCoords:      true,
			Lat:            cand.Row.Lat,
			Lon:            cand.Row.Lon,
			InMunicipality: model.MembershipInside,
			Enrichment:     cand.Row.Attributes,
		}
	}

	res.enter(StateIntersectionCheck)
	if res.addr.Intersection {
		return res.remoteIntersection(ctx)
	}
	return res.remoteAddress(ctx)
}

// remoteAddress is the RemoteAIS state in address-lookup mode.
func (res *resolution) remoteAddress(ctx context.Context) model.Outcome {
	res.enter(StateRemoteAIS)

	query := standardize.QueryAddress(res.addr, res.membership)
	if out, ok := res.searchPrimary(ctx, query); ok {
		res.enter(StateMatched)
		return out
	}
	return res.remoteSecondary(ctx)
}

// remoteIntersection is the RemoteAIS state in intersection mode: look
// up the crossing, reverse the coordinates to an address, and re-drive
// an address search with it.
func (res *resolution) remoteIntersection(ctx context.Context) model.Outcome {
	res.enter(StateRemoteAIS)

	street := joinStreet(res.addr.Predir, res.addr.Street, res.addr.Suffix)
	result, ok := res.callPrimary(ctx, func(ctx context.Context) (*ais.Result, error) {
		return res.r.primary.SearchIntersection(ctx, street, res.addr.CrossStreet)
	})
	if !ok || result == nil || len(result.Features) == 0 || !result.Features[0].HasCoords {
		return res.remoteSecondary(ctx)
	}
	coords := result.Features[0]

	// Coordinates in hand regardless of what the re-match yields.
	fallback := model.Outcome{
		Kind:           model.OutcomeIntersectionMatch,
		Source:         model.SourceAIS,
		OutputAddress:  res.addr.OutputAddress,
		HasCoords:      true,
		Lat:            coords.Lat,
		Lon:            coords.Lon,
		InMunicipality: model.MembershipInside,
	}

	res.enter(StateReverseLookup)
	rev, ok := res.callPrimary(ctx, func(ctx context.Context) (*ais.Result, error) {
		return res.r.primary.ReverseGeocode(ctx, coords.Lon, coords.Lat)
	})
	if !ok || rev == nil || len(rev.Features) == 0 || rev.Features[0].StreetAddress == "" {
		res.enter(StateMatched)
		return fallback
	}

	if out, okMatch := res.searchPrimary(ctx, rev.Features[0].StreetAddress); okMatch {
		res.enter(StateMatched)
		return out
	}
	res.enter(StateMatched)
	return fallback
}

func (res *resolution) remoteSecondary(ctx context.Context) model.Outcome {
	res.enter(StateRemoteSecondary)

	query := standardize.QueryAddress(res.addr, res.membership)
	cand, ok := res.callSecondary(ctx, query)
	if !ok || cand == nil {
		res.enter(StateUnmatched)
		return model.Outcome{Kind: model.OutcomeUnmatched}
	}

	membership := res.candidateMembership(cand)
	out := model.Outcome{
		Kind:           model.OutcomeRemoteMatch,
		Source:         model.SourceSecondary,
		OutputAddress:  cand.Address,
		HasCoords:      true,
		Lat:            cand.Lat,
		Lon:            cand.Lon,
		InMunicipality: membership,
	}

	// An in-municipality hit earns one bounded AIS re-run to recover
	// enrichment; its failure still leaves the coordinates matched.
	if membership == model.MembershipInside && res.r.primary != nil {
		res.enter(StateRemoteAIS)
		if enriched, okMatch := res.searchPrimary(ctx, cand.Address); okMatch {
			res.enter(StateMatched)
			return enriched
		}
	}

	res.enter(StateMatched)
	return out
}

// searchPrimary runs an AIS address search and converts a usable result
// to a Matched outcome. Multi-feature responses go through the zip
// tiebreak; an ambiguous tiebreak counts as a miss.
func (res *resolution) searchPrimary(ctx context.Context, query string) (model.Outcome, bool) {
	result, ok := res.callPrimary(ctx, func(ctx context.Context) (*ais.Result, error) {
		return res.r.primary.Search(ctx, query)
	})
	if !ok || result == nil || len(result.Features) == 0 {
		return model.Outcome{}, false
	}

	feature := ais.Tiebreak(result.Features, res.addr.Zip)
	if feature == nil {
		res.multiple = true
		return model.Outcome{}, false
	}

	out := model.Outcome{
		Kind:           model.OutcomeRemoteMatch,
		Source:         model.SourceAIS,
		OutputAddress:  feature.StreetAddress,
		HasCoords:      feature.HasCoords,
		Lat:            feature.Lat,
		Lon:            feature.Lon,
		InMunicipality: model.MembershipInside,
		Enrichment:     feature.Properties,
	}
	if out.OutputAddress == "" {
		out.OutputAddress = result.Normalized
	}
	return out, true
}

// callPrimary spends one unit of remote budget on an AIS call, retrying
// transient failures. A budget overrun or exhausted retry is a miss.
func (res *resolution) callPrimary(ctx context.Context, fn func(context.Context) (*ais.Result, error)) (*ais.Result, bool) {
	if res.r.primary == nil || !res.spendBudget() {
		return nil, false
	}
	result, err := resilience.DoVal(ctx, res.r.retry, fn)
	if err != nil {
		zap.L().Warn("pipeline: primary geocoder call failed",
			zap.String("address", res.addr.Input), zap.Error(err))
		return nil, false
	}
	return result, true
}

func (res *resolution) callSecondary(ctx context.Context, query string) (*tomtom.Candidate, bool) {
	if res.r.secondary == nil || !res.spendBudget() {
		return nil, false
	}
	cand, err := resilience.DoVal(ctx, res.r.retry, func(ctx context.Context) (*tomtom.Candidate, error) {
		return res.r.secondary.FindCandidates(ctx, query)
	})
	if err != nil {
		zap.L().Warn("pipeline: secondary geocoder call failed",
			zap.String("address", res.addr.Input), zap.Error(err))
		return nil, false
	}
	return cand, true
}

func (res *resolution) spendBudget() bool {
	if res.remoteCalls >= maxRemoteCalls {
		return false
	}
	res.remoteCalls++
	return true
}

// candidateMembership standardizes the secondary service's returned
// address and classifies it against the municipality heuristics.
func (res *resolution) candidateMembership(cand *tomtom.Candidate) model.Membership {
	parsed, err := res.r.standardizer.Standardize(cand.Address)
	if err != nil {
		return model.MembershipUnknown
	}
	return standardize.ClassifyMembership(parsed.City, parsed.State, parsed.Zip)
}

func joinStreet(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
