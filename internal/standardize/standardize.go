// Package standardize normalizes raw address text into the canonical
// token set the rest of the pipeline consumes, and classifies
// municipality membership from city/state/zip signals.
package standardize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/phila-data/enrich-cli/internal/model"
)

// Standardizer converts a raw address string into canonical tokens.
// The pipeline depends only on this interface so tests can substitute a
// deterministic fake.
type Standardizer interface {
	Standardize(raw string) (model.StandardizedAddress, error)
}

// Parser is the rule-based Standardizer implementation.
type Parser struct{}

// NewParser returns a rule-based address parser.
func NewParser() *Parser {
	return &Parser{}
}

var (
	zipRe       = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	houseNumRe  = regexp.MustCompile(`^(\d+)(?:-(\d+))?[A-Z]?$`)
	punctRe     = regexp.MustCompile(`[.']`)
	spaceRe     = regexp.MustCompile(`\s+`)
	intersectRe = regexp.MustCompile(`\s+(&|AND|@)\s+`)
)

// Standardize parses raw into canonical address tokens. An input that
// yields neither a street name nor an intersection is returned with
// IsAddress false rather than as an error; only empty input errors.
func (p *Parser) Standardize(raw string) (model.StandardizedAddress, error) {
	cleaned := spaceRe.ReplaceAllString(punctRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), ""), " ")
	if cleaned == "" {
		return model.StandardizedAddress{}, eris.New("standardize: empty address")
	}

	addr := model.StandardizedAddress{Input: raw}

	// Comma-separated tail segments carry city/state/zip.
	segments := strings.Split(cleaned, ",")
	streetPart := strings.TrimSpace(segments[0])
	for _, seg := range segments[1:] {
		consumeLocality(&addr, strings.Fields(strings.TrimSpace(seg)))
	}

	// Without commas the locality rides on the end of the street part.
	if len(segments) == 1 {
		streetPart = stripTrailingLocality(&addr, streetPart)
	}

	// Intersections: two street names joined by a connective, no house
	// number on either side.
	if m := intersectRe.FindStringIndex(streetPart); m != nil {
		left := strings.TrimSpace(streetPart[:m[0]])
		right := strings.TrimSpace(streetPart[m[1]:])
		if left != "" && right != "" && !startsWithNumber(left) && !startsWithNumber(right) {
			first := parseStreetTokens(strings.Fields(left))
			second := parseStreetTokens(strings.Fields(right))
			if first.Street != "" && second.Street != "" {
				addr.Predir = first.Predir
				addr.Street = first.Street
				addr.Suffix = first.Suffix
				addr.CrossStreet = streetLine(second)
				addr.Intersection = true
				addr.OutputAddress = streetLine(first) + " & " + addr.CrossStreet
				return addr, nil
			}
		}
	}

	tokens := strings.Fields(streetPart)
	if len(tokens) == 0 {
		return addr, nil
	}

	// Leading house number, possibly a hyphenated range.
	if m := houseNumRe.FindStringSubmatch(tokens[0]); m != nil {
		low, _ := strconv.Atoi(m[1])
		addr.HouseNum = low
		if m[2] != "" {
			addr.HouseHigh = expandRangeHigh(m[1], m[2])
		}
		tokens = tokens[1:]
	}

	parsed := parseStreetTokens(tokens)
	addr.Predir = parsed.Predir
	addr.Street = parsed.Street
	addr.Suffix = parsed.Suffix
	addr.Postdir = parsed.Postdir
	addr.Unit = parsed.Unit

	addr.IsAddress = addr.HouseNum > 0 && addr.Street != ""
	addr.OutputAddress = buildOutput(addr)
	return addr, nil
}

// streetTokens is the parsed interior of one street phrase.
type streetTokens struct {
	Predir, Street, Suffix, Postdir, Unit string
}

// parseStreetTokens splits a street phrase (no house number) into
// predirectional, name, suffix, postdirectional, and unit.
func parseStreetTokens(tokens []string) streetTokens {
	var out streetTokens
	if len(tokens) == 0 {
		return out
	}

	// A unit designator terminates the street phrase.
	for i, tok := range tokens {
		if _, ok := unitDesignators[tok]; ok && i > 0 {
			out.Unit = strings.TrimSpace(unitDesignators[tok] + " " + strings.Join(tokens[i+1:], " "))
			tokens = tokens[:i]
			break
		}
		if strings.HasPrefix(tok, "#") && len(tok) > 1 && i > 0 {
			out.Unit = "# " + tok[1:]
			tokens = tokens[:i]
			break
		}
	}
	if len(tokens) == 0 {
		return out
	}

	// Predirectional only counts when a street name follows it.
	if d, ok := directionals[tokens[0]]; ok && len(tokens) > 1 {
		out.Predir = d
		tokens = tokens[1:]
	}

	// Trailing postdirectional, then suffix, scanning from the end.
	if len(tokens) > 1 {
		if d, ok := directionals[tokens[len(tokens)-1]]; ok {
			if _, isSuffix := suffixes[tokens[len(tokens)-2]]; isSuffix {
				out.Postdir = d
				tokens = tokens[:len(tokens)-1]
			}
		}
	}
	if len(tokens) > 1 {
		if s, ok := suffixes[tokens[len(tokens)-1]]; ok {
			out.Suffix = s
			tokens = tokens[:len(tokens)-1]
		}
	}

	out.Street = strings.Join(tokens, " ")
	return out
}

// consumeLocality folds city/state/zip tokens from a tail segment into addr.
func consumeLocality(addr *model.StandardizedAddress, tokens []string) {
	var cityTokens []string
	for _, tok := range tokens {
		switch {
		case zipRe.MatchString(tok) && addr.Zip == "":
			addr.Zip = tok
			if len(addr.Zip) > 5 {
				addr.Zip = addr.Zip[:5]
			}
		case normalizeState(tok) != "" && addr.State == "":
			addr.State = normalizeState(tok)
		default:
			cityTokens = append(cityTokens, tok)
		}
	}
	if addr.City == "" && len(cityTokens) > 0 {
		addr.City = strings.Join(cityTokens, " ")
	}
}

// stripTrailingLocality pops zip, state, and a recognized city name off
// the end of an uncommaed address line.
func stripTrailingLocality(addr *model.StandardizedAddress, line string) string {
	tokens := strings.Fields(line)

	if n := len(tokens); n > 1 && zipRe.MatchString(tokens[n-1]) {
		addr.Zip = tokens[n-1]
		if len(addr.Zip) > 5 {
			addr.Zip = addr.Zip[:5]
		}
		tokens = tokens[:n-1]
	}
	if n := len(tokens); n > 1 {
		if st := normalizeState(tokens[n-1]); st != "" {
			// Don't eat a street name that happens to collide with a
			// state abbreviation unless a city name precedes it.
			if n > 2 && phillyNames[strings.ToLower(tokens[n-2])] || st == "PA" {
				addr.State = st
				tokens = tokens[:n-1]
			}
		}
	}
	if n := len(tokens); n > 1 && phillyNames[strings.ToLower(tokens[n-1])] {
		addr.City = tokens[n-1]
		tokens = tokens[:n-1]
	}

	return strings.Join(tokens, " ")
}

func startsWithNumber(s string) bool {
	f := strings.Fields(s)
	return len(f) > 0 && houseNumRe.MatchString(f[0])
}

// expandRangeHigh widens a short range suffix against the low number:
// "1234"-"36" becomes 1236.
func expandRangeHigh(low, high string) int {
	if len(high) < len(low) {
		high = low[:len(low)-len(high)] + high
	}
	n, _ := strconv.Atoi(high)
	return n
}

func streetLine(s streetTokens) string {
	return joinNonEmpty(s.Predir, s.Street, s.Suffix, s.Postdir)
}

func buildOutput(addr model.StandardizedAddress) string {
	num := ""
	if addr.HouseNum > 0 {
		num = strconv.Itoa(addr.HouseNum)
		if addr.HouseHigh > addr.HouseNum {
			num += "-" + strconv.Itoa(addr.HouseHigh)
		}
	}
	return joinNonEmpty(num, addr.Predir, addr.Street, addr.Suffix, addr.Postdir, addr.Unit)
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// QueryAddress builds the single-line address sent to remote services.
// Membership-unknown addresses get the city and state appended so the
// service does not wander outside Philadelphia.
func QueryAddress(addr model.StandardizedAddress, membership model.Membership) string {
	line := addr.OutputAddress
	if line == "" {
		line = strings.ToUpper(strings.TrimSpace(addr.Input))
	}
	switch membership {
	case model.MembershipUnknown:
		return line + ", PHILADELPHIA, PA"
	case model.MembershipOutside:
		return joinLocality(line, addr.City, addr.State, addr.Zip)
	default:
		return line
	}
}

func joinLocality(line, city, state, zip string) string {
	for _, part := range []string{city, state, zip} {
		if part != "" {
			line += ", " + strings.ToUpper(part)
		}
	}
	return line
}
