package identifier

import "testing"

func TestUsptoParse(t *testing.T) {
	cases := []struct {
		in   string
		bare string
		kind string
	}{
		{"US11123456B2", "11123456", "B2"},
		{"US20200123456A1", "20200123456", "A1"},
		{"11123456B2", "11123456", "B2"},
		{"D0987654S", "D0987654", "S"},
		{"RE12345E", "RE12345", "E"},
	}
	for _, c := range cases {
		p := Uspto{}.Parse(c.in)
		if p.Base != c.bare || p.Qualifier != c.kind {
			t.Errorf("Parse(%q) = (%q, %q), want (%q, %q)", c.in, p.Base, p.Qualifier, c.bare, c.kind)
		}
	}
}

func TestUsptoCanonicalKeyIsBare(t *testing.T) {
	p := Uspto{}.Parse("US11123456B2")
	if got := (Uspto{}).CanonicalKey(p); got != "11123456" {
		t.Errorf("CanonicalKey = %q, want 11123456", got)
	}
}

func TestUsptoIdempotent(t *testing.T) {
	inputs := []string{"US11123456B2", "US20200123456A1", "D0987654S", "RE12345E"}
	for _, in := range inputs {
		p1 := Uspto{}.Parse(in)
		k1 := Uspto{}.CanonicalKey(p1)
		p2 := Uspto{}.Parse(k1)
		k2 := Uspto{}.CanonicalKey(p2)
		if k1 != k2 {
			t.Errorf("normalize not idempotent for %q: %q != %q", in, k1, k2)
		}
	}
}

func TestUsptoNeverPanics(t *testing.T) {
	inputs := []string{"", "U", "US", "123", "ABCDEFG", "US", "USXYZ9"}
	for _, in := range inputs {
		p := Uspto{}.Parse(in)
		_ = Uspto{}.CanonicalKey(p)
	}
}
