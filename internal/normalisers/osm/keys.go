package osm

import (
	"regexp"
	"strings"
)

// problemChars matches characters that disqualify a tag key.
var problemChars = regexp.MustCompile(`[=\+/&<>;'"\?%#$@\,\. \t\r\n]`)

// addrPrefix is the first key segment of address tags.
const addrPrefix = "addr"

// tagKey is a tag key split on colons.
type tagKey struct {
	raw      string
	segments []string
}

func parseKey(k string) tagKey {
	return tagKey{raw: k, segments: strings.Split(k, ":")}
}

// usable reports whether the key has no problematic characters and at most
// two colon-separated segments.
func (k tagKey) usable() bool {
	return !problemChars.MatchString(k.raw) && len(k.segments) <= 2
}

// addressField returns the address sub-field named by an addr:<field> key.
func (k tagKey) addressField() (string, bool) {
	if len(k.segments) != 2 || k.segments[0] != addrPrefix {
		return "", false
	}
	return k.segments[1], true
}
