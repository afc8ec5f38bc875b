package identifier

import (
	"strings"

	"github.com/paperlake/paperlake/diag"
)

// Uspto is the [Scheme] for USPTO patent identifiers: "US11123456B2",
// "US20200123456A1", bare "11123456B2", and design/reissue variants
// like "D0987654S" and "RE12345E".
type Uspto struct{}

var _ Scheme = Uspto{}

// Name implements Scheme.
func (Uspto) Name() string { return "uspto" }

// Parse implements Scheme.
//
// Strips a leading "US" country prefix, then greedily matches a
// trailing kind code — one uppercase letter optionally followed by one
// digit — accepting the split only if what remains is all digits, or
// begins with "D", "RE", or "PP" followed by digits.
func (Uspto) Parse(raw string) Parsed {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && strings.EqualFold(s[:2], "US") {
		s = s[2:]
	}

	if len(s) >= 2 {
		remainder, kind := s[:len(s)-2], s[len(s)-2:]
		if isUpperLetter(kind[0]) && isDigit(kind[1]) && validDocNumber(remainder) {
			return Parsed{Base: remainder, Qualifier: kind}
		}
	}
	if len(s) >= 1 {
		remainder, kind := s[:len(s)-1], s[len(s)-1:]
		if isUpperLetter(kind[0]) && validDocNumber(remainder) {
			return Parsed{Base: remainder, Qualifier: kind}
		}
	}
	return Parsed{Base: s}
}

// CanonicalKey implements Scheme.
//
// USPTO keys are always bare; the kind code is carried in Qualifier
// for callers that need it but is not part of the manifest lookup key.
func (Uspto) CanonicalKey(p Parsed) string { return p.Base }

// HintLocation implements Scheme.
//
// USPTO bulk zips have no year-encoding convention analogous to
// arXiv's, so there is no location to hint at.
func (Uspto) HintLocation(string) *diag.TarHint { return nil }

func validDocNumber(s string) bool {
	if s == "" {
		return false
	}
	if allDigits(s) {
		return true
	}
	for _, prefix := range [...]string{"D", "RE", "PP"} {
		if strings.HasPrefix(s, prefix) && len(s) > len(prefix) && allDigits(s[len(prefix):]) {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool       { return b >= '0' && b <= '9' }
func isUpperLetter(b byte) bool { return b >= 'A' && b <= 'Z' }
