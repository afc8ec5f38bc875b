package identifier

import "testing"

func TestArxivParse(t *testing.T) {
	cases := []struct {
		in      string
		base    string
		version string
	}{
		{"arXiv:1501.00963v3", "1501.00963", "3"},
		{"1501.00963", "1501.00963", ""},
		{"astro-ph/0412561", "astro-ph0412561", ""},
		{"astro-ph/0412561v1", "astro-ph0412561", "1"},
		{"https://arxiv.org/abs/1501.00963", "1501.00963", ""},
		{"https://arxiv.org/pdf/1501.00963.pdf", "1501.00963", ""},
	}
	for _, c := range cases {
		p := Arxiv{}.Parse(c.in)
		if p.Base != c.base || p.Qualifier != c.version {
			t.Errorf("Parse(%q) = (%q, %q), want (%q, %q)", c.in, p.Base, p.Qualifier, c.base, c.version)
		}
	}
}

func TestArxivIdempotent(t *testing.T) {
	inputs := []string{
		"arXiv:1501.00963v3", "1501.00963", "astro-ph/0412561",
		"astro-ph/0412561v1", "https://arxiv.org/abs/1501.00963",
		"https://arxiv.org/pdf/1501.00963.pdf", "garbage-not-an-id",
	}
	for _, in := range inputs {
		p1 := Arxiv{}.Parse(in)
		key1 := Arxiv{}.CanonicalKey(p1)
		p2 := Arxiv{}.Parse(key1)
		key2 := Arxiv{}.CanonicalKey(p2)
		if key1 != key2 {
			t.Errorf("normalize not idempotent for %q: %q != %q", in, key1, key2)
		}
	}
}

func TestArxivParseWithVersionMatchesCanonicalKey(t *testing.T) {
	ids := []string{"1501.00963", "astro-ph0412561", "2103.06497"}
	versions := []string{"1", "2", "3", "10"}
	for _, id := range ids {
		for _, v := range versions {
			p := Arxiv{}.Parse(id + "v" + v)
			base := Arxiv{}.Parse(id)
			if p.Base != base.Base || p.Qualifier != v {
				t.Errorf("parse(%q) = (%q,%q), want (%q,%q)", id+"v"+v, p.Base, p.Qualifier, base.Base, v)
			}
		}
	}
}

func TestArxivHintLocation(t *testing.T) {
	h := Arxiv{}.HintLocation("1501.00963")
	if h == nil || h.YearDir != "2015" || h.PDFPattern != "arXiv_pdf_1501_*.tar" || h.SrcPattern != "arXiv_src_1501_*.tar" {
		t.Fatalf("unexpected hint: %+v", h)
	}

	h = Arxiv{}.HintLocation("astro-ph0412561")
	if h == nil || h.YearDir != "2004" ||
		h.PDFPattern != "arXiv_pdf_astro-ph_0412_*.tar" ||
		h.SrcPattern != "arXiv_src_astro-ph_0412_*.tar" {
		t.Fatalf("unexpected legacy hint: %+v", h)
	}
}

func TestArxivHintLocationYearBoundary(t *testing.T) {
	h := Arxiv{}.HintLocation("9107.00001")
	if h == nil || h.YearDir != "1991" {
		t.Fatalf("expected 1991 year dir, got %+v", h)
	}
	h = Arxiv{}.HintLocation("9007.00001")
	if h == nil || h.YearDir != "2090" {
		t.Fatalf("expected 2090 year dir, got %+v", h)
	}
}

func TestArxivNeverPanics(t *testing.T) {
	inputs := []string{"", "   ", "not/an/id/at/all", "v1v2v3", "://broken"}
	for _, in := range inputs {
		p := Arxiv{}.Parse(in)
		_ = Arxiv{}.CanonicalKey(p)
		_ = Arxiv{}.HintLocation(p.Base)
	}
}
