package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// AbbrevRules handles address abbreviation expansion
type AbbrevRules struct {
	rules []abbrevRule
}

type abbrevRule struct {
	re          *regexp.Regexp
	replacement string
}

// NewAbbrevRules creates the default US abbreviation rules
func NewAbbrevRules() *AbbrevRules {
	// Ordered so longer abbreviations expand before shorter ones
	pairs := []struct{ pattern, replacement string }{
		{`\bAPT\b`, "APARTMENT"},
		{`\bSTE\b`, "SUITE"},
		{`\bBLDG\b`, "BUILDING"},
		{`\bBLVD\b`, "BOULEVARD"},
		{`\bPKWY\b`, "PARKWAY"},
		{`\bHWY\b`, "HIGHWAY"},
		{`\bCIR\b`, "CIRCLE"},
		{`\bCRES\b`, "CRESCENT"},
		{`\bTER\b`, "TERRACE"},
		{`\bGDNS\b`, "GARDENS"},
		{`\bRD\b`, "ROAD"},
		{`\bST\b`, "STREET"},
		{`\bAVE\b`, "AVENUE"},
		{`\bDR\b`, "DRIVE"},
		{`\bLN\b`, "LANE"},
		{`\bPL\b`, "PLACE"},
		{`\bSQ\b`, "SQUARE"},
	}
	// CT, FL and WY are left alone: they collide with state codes

	rules := make([]abbrevRule, 0, len(pairs))
	for _, p := range pairs {
		rules = append(rules, abbrevRule{re: regexp.MustCompile(p.pattern), replacement: p.replacement})
	}
	return &AbbrevRules{rules: rules}
}

// Expand applies abbreviation rules to text
func (ar *AbbrevRules) Expand(text string) string {
	result := text
	for _, rule := range ar.rules {
		result = rule.re.ReplaceAllString(result, rule.replacement)
	}
	return result
}

var defaultRules = NewAbbrevRules()

// Unit designators introduce the unit/apartment part of an address
var reUnit = regexp.MustCompile(`\b(APARTMENT|UNIT|SUITE|FLOOR|ROOM|TRAILER|LOT)\s+([0-9A-Z]+)\b`)

// Trailing dash-delimited unit, e.g. "123 MAIN ST - 4"
var reDashUnit = regexp.MustCompile(`\s+-\s*([0-9A-Za-z]+)\s*$`)

// Hash-prefixed unit, e.g. "123 Main St #4"
var reHashUnit = regexp.MustCompile(`#\s*([0-9A-Za-z]+)`)

// US zip code, 5 digit with optional plus-four
var reZip = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)

// CanonicalAddress normalizes a raw address into its canonical single-line
// form and token set. The result is deterministic and idempotent: feeding a
// canonical address back through returns it unchanged.
func CanonicalAddress(raw string) (addrCan string, tokens []string) {
	if raw == "" {
		return "", []string{}
	}

	s := strings.ToUpper(strings.TrimSpace(raw))

	// Rewrite unit shorthands before punctuation stripping loses them
	s = reHashUnit.ReplaceAllString(s, "UNIT $1")
	s = reDashUnit.ReplaceAllString(s, " UNIT $1")

	// Remove punctuation but preserve spaces
	b := strings.Builder{}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	s = strings.Join(strings.Fields(b.String()), " ")

	// Expand abbreviations
	s = defaultRules.Expand(s)

	// Collapse spaces again
	s = strings.Join(strings.Fields(s), " ")

	return s, strings.Fields(s)
}

// BuildingAddress strips the unit/apartment designator from a canonical
// address, leaving the building-level projection (street + city + state + zip).
func BuildingAddress(canonical string) string {
	s := reUnit.ReplaceAllString(canonical, " ")
	return strings.Join(strings.Fields(s), " ")
}

// SplitUnit returns the building-level projection and the unit part of a
// canonical address. The unit part is empty when no designator is present.
func SplitUnit(canonical string) (building, unit string) {
	m := reUnit.FindStringSubmatch(canonical)
	if m != nil {
		unit = m[2]
	}
	return BuildingAddress(canonical), unit
}

// ExtractZip returns the first zip code found in the address, or empty string.
func ExtractZip(canonical string) string {
	if m := reZip.FindStringSubmatch(canonical); m != nil {
		return m[1]
	}
	return ""
}

// TokenSet converts tokens into a set for order-irrelevant comparison
func TokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		set[token] = true
	}
	return set
}

// TokenOverlap calculates overlap ratio between two token sets
func TokenOverlap(tokens1, tokens2 []string) float64 {
	if len(tokens1) == 0 && len(tokens2) == 0 {
		return 1.0
	}
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}

	set1 := TokenSet(tokens1)

	overlap := 0
	for _, token := range tokens2 {
		if set1[token] {
			overlap++
		}
	}

	minLen := len(tokens1)
	if len(tokens2) < minLen {
		minLen = len(tokens2)
	}

	return float64(overlap) / float64(minLen)
}

// IsBlank checks if an address is effectively blank after normalization
func IsBlank(addr string) bool {
	canonical, _ := CanonicalAddress(addr)
	return canonical == ""
}
