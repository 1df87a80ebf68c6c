// Package normalizers provides the name, address and email normalization
// used for clustering and matching. Every function is pure, deterministic
// and idempotent: applying it twice yields the same result as once.
package normalizers

import (
	"sort"
	"strings"
	"unicode"
)

// personSuffixes are generational/professional suffixes stripped from the
// end of person names before clustering.
var personSuffixes = map[string]bool{
	"JR": true, "SR": true, "II": true, "III": true, "IV": true,
	"ESQ": true, "MD": true, "PHD": true, "DDS": true,
}

// streetAbbreviations maps full street-suffix and directional tokens onto
// the abbreviated form used for address comparison.
var streetAbbreviations = map[string]string{
	"STREET":    "ST",
	"AVENUE":    "AVE",
	"BOULEVARD": "BLVD",
	"DRIVE":     "DR",
	"ROAD":      "RD",
	"LANE":      "LN",
	"COURT":     "CT",
	"CIRCLE":    "CIR",
	"PLACE":     "PL",
	"TERRACE":   "TER",
	"HIGHWAY":   "HWY",
	"APARTMENT": "APT",
	"SUITE":     "STE",
	"FLOOR":     "FL",
	"NORTH":     "N",
	"SOUTH":     "S",
	"EAST":      "E",
	"WEST":      "W",
	"NORTHEAST": "NE",
	"NORTHWEST": "NW",
	"SOUTHEAST": "SE",
	"SOUTHWEST": "SW",
}

// NormalizeBusinessName normalizes a business name into a comparable key:
// uppercase, "&" folded to "AND", punctuation stripped (hyphens retained),
// whitespace collapsed.
func NormalizeBusinessName(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "&", " AND ")

	var result strings.Builder
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			result.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	return strings.TrimSpace(result.String())
}

// NormalizePersonName normalizes a person name the same way as a business
// name and additionally strips trailing generational suffixes, so that
// "John A. Smith Jr." and "JOHN A SMITH" converge.
func NormalizePersonName(s string) string {
	tokens := strings.Fields(NormalizeBusinessName(s))
	for len(tokens) > 1 && personSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// PersonNameKey produces the order-invariant clustering key for a person
// name: the normalized tokens sorted lexicographically. "Smith John" and
// "John Smith" map to the same key; the token sort is the documented
// canonical ordering.
func PersonNameKey(s string) string {
	tokens := strings.Fields(NormalizePersonName(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// NormalizeAddress normalizes a mailing or location address: uppercase,
// punctuation stripped, street-suffix and directional tokens abbreviated,
// whitespace collapsed. Token-wise replacement keeps "WESTON" intact while
// folding "WEST" to "W".
func NormalizeAddress(s string) string {
	tokens := strings.Fields(NormalizeBusinessName(s))
	for i, tok := range tokens {
		if abbr, ok := streetAbbreviations[tok]; ok {
			tokens[i] = abbr
		}
	}
	return strings.Join(tokens, " ")
}

// NormalizeEmail normalizes an email address (lowercase, trim).
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EmailDomain returns the lowercased domain of an email address, or ""
// when the address has no usable domain part.
func EmailDomain(s string) string {
	addr := NormalizeEmail(s)
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return ""
	}
	return addr[at+1:]
}
