package osm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

// streetTypes maps shorthand street suffixes to their canonical form.
var streetTypes = map[string]string{
	"St":  "Street",
	"St.": "Street",
	"Rd.": "Road",
	"Rd":  "Road",
	"Ave": "Avenue",
	"Ct":  "Court",
	"Ct.": "Court",
	"Pl":  "Place",
	"Pl.": "Place",
	"Dr":  "Drive",
	"Dr.": "Drive",
	"Sq.": "Square",
	"Sq":  "Square",
	"Tr":  "Trail",
	"Tr.": "Trail",
	"Pw":  "Parkway",
	"Pw.": "Parkway",
	"Co":  "Commons",
	"Co.": "Commons",
}

// canonicalStreetTypes holds every canonical form.
var canonicalStreetTypes = func() map[string]bool {
	m := make(map[string]bool, len(streetTypes))
	for _, v := range streetTypes {
		m[v] = true
	}
	return m
}()

// michiganVariants are spellings of the state normalised to "Michigan".
var michiganVariants = map[string]bool{
	"MI":       true,
	"mi":       true,
	"Mchigan":  true,
	"MICHIGAN": true,
}

const michigan = "Michigan"

// normaliseState unifies known spellings of Michigan.
func normaliseState(v string) string {
	if michiganVariants[v] {
		return michigan
	}
	return v
}

// canonicaliseStreet expands a shorthand final token of street. It returns
// the rewritten street and the canonical street type, empty when the final
// token is neither a shorthand nor already canonical.
func canonicaliseStreet(street string, mode domain.StreetRewrite) (string, string) {
	start, end := lastToken(street)
	if start < 0 {
		return street, ""
	}
	token := street[start:end]

	full, ok := streetTypes[token]
	if !ok {
		if canonicalStreetTypes[token] {
			return street, token
		}
		return street, ""
	}

	if mode == domain.StreetRewriteTextual {
		return strings.ReplaceAll(street, token, full), full
	}
	return street[:start] + full + street[end:], full
}

// lastToken returns the byte range of the last whitespace-delimited token,
// or -1, -1 when s has none.
func lastToken(s string) (int, int) {
	end := strings.LastIndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) })
	if end < 0 {
		return -1, -1
	}
	_, size := utf8.DecodeRuneInString(s[end:])
	end += size

	start := strings.LastIndexFunc(s[:end], unicode.IsSpace)
	if start < 0 {
		return 0, end
	}
	_, size = utf8.DecodeRuneInString(s[start:])
	return start + size, end
}
