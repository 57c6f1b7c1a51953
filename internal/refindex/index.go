// Package refindex holds the in-memory index over the local address
// reference table and the tiered matcher that runs against it. The index
// is built once before batch processing and is read-only afterwards, so
// lookups are safe from any number of workers without locking.
package refindex

import (
	"strings"

	"github.com/phila-data/enrich-cli/internal/model"
)

// Tier is a precision level in the matching cascade. Lower values are
// more precise; the first tier yielding exactly one candidate wins.
type Tier int

const (
	// TierNone means no tier matched.
	TierNone Tier = iota
	// TierExactUnit matched number, predirectional, street, suffix, and unit.
	TierExactUnit
	// TierExact matched number, predirectional, street, and suffix.
	TierExact
	// TierNoPredir matched number, street, and suffix with the
	// predirectional relaxed.
	TierNoPredir
	// TierRange matched by number-range containment with the segment's
	// parity rule.
	TierRange
)

func (t Tier) String() string {
	switch t {
	case TierExactUnit:
		return "exact_unit"
	case TierExact:
		return "exact"
	case TierNoPredir:
		return "no_predir"
	case TierRange:
		return "range"
	default:
		return "none"
	}
}

// Row is one reference-table entry: an address point or street segment
// with its full attribute set.
type Row struct {
	StreetAddress string // canonical "1234 MARKET ST"
	Low, High     int    // house-number range; Low == High for points
	Parity        string // "E" even, "O" odd, "B" both
	Predir        string
	Street        string
	Suffix        string
	Postdir       string
	Unit          string
	Zip           string
	Lat, Lon      float64

	// Attributes holds the enrichment columns keyed by reference-table
	// column name.
	Attributes map[string]string
}

// Candidate is a winning reference row plus the tier that produced it.
// Candidates live for one record's resolution and are never cached.
type Candidate struct {
	Row  *Row
	Tier Tier
}

// Index is the immutable lookup structure over the reference table.
type Index struct {
	byStreet map[string][]*Row
	size     int
}

// New builds an index from reference rows, bucketed by street name.
func New(rows []Row) *Index {
	ix := &Index{byStreet: make(map[string][]*Row)}
	for i := range rows {
		r := &rows[i]
		key := streetKey(r.Street)
		if key == "" {
			continue
		}
		ix.byStreet[key] = append(ix.byStreet[key], r)
		ix.size++
	}
	return ix
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int { return ix.size }

// Match runs the tier cascade for a standardized address. It returns the
// single winning candidate, or (nil, true) when the winning tier held
// more than one candidate — an ambiguous result the caller must escalate
// rather than resolve arbitrarily.
func (ix *Index) Match(addr model.StandardizedAddress) (cand *Candidate, ambiguous bool) {
	if !addr.IsAddress {
		return nil, false
	}
	bucket := ix.byStreet[streetKey(addr.Street)]
	if len(bucket) == 0 {
		return nil, false
	}

	tiers := []struct {
		tier   Tier
		accept func(*Row) bool
	}{
		{TierExactUnit, func(r *Row) bool {
			return addr.Unit != "" && r.Low == addr.HouseNum &&
				r.Predir == addr.Predir && suffixOK(r, addr) && r.Unit == addr.Unit
		}},
		{TierExact, func(r *Row) bool {
			return r.Low == addr.HouseNum && r.Predir == addr.Predir &&
				suffixOK(r, addr) && unitOK(r, addr)
		}},
		{TierNoPredir, func(r *Row) bool {
			return r.Low == addr.HouseNum && suffixOK(r, addr) && unitOK(r, addr)
		}},
		{TierRange, func(r *Row) bool {
			return containsNumber(r, addr.HouseNum) && predirOK(r, addr) && suffixOK(r, addr)
		}},
	}

	for _, t := range tiers {
		var hits []*Row
		for _, r := range bucket {
			if t.accept(r) {
				hits = append(hits, r)
				if len(hits) > 2 {
					break
				}
			}
		}
		switch len(hits) {
		case 0:
			continue
		case 1:
			return &Candidate{Row: hits[0], Tier: t.tier}, false
		default:
			// Ambiguous at the winning tier: never pick arbitrarily.
			return nil, true
		}
	}

	return nil, false
}

func streetKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// suffixOK compares suffixes, treating an absent input suffix as a
// wildcard (callers often omit "ST").
func suffixOK(r *Row, addr model.StandardizedAddress) bool {
	return addr.Suffix == "" || r.Suffix == addr.Suffix
}

func predirOK(r *Row, addr model.StandardizedAddress) bool {
	return addr.Predir == "" || r.Predir == addr.Predir
}

// unitOK keeps unit-bearing reference rows out of relaxed tiers unless
// the request names the same unit.
func unitOK(r *Row, addr model.StandardizedAddress) bool {
	return r.Unit == "" || r.Unit == addr.Unit
}

// containsNumber applies the segment range and parity rules.
func containsNumber(r *Row, n int) bool {
	if n < r.Low || n > r.High {
		return false
	}
	switch r.Parity {
	case "E":
		return n%2 == 0
	case "O":
		return n%2 == 1
	default:
		return true
	}
}
