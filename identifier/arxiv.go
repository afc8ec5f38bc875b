package identifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paperlake/paperlake/diag"
)

var (
	arxivURLRe    = regexp.MustCompile(`(?i)^https?://(?:export\.|www\.)?arxiv\.org/(?:abs|pdf)/(.+)$`)
	arxivPrefixRe = regexp.MustCompile(`(?i)^arxiv:`)
	arxivVerRe    = regexp.MustCompile(`^(.*?)v(\d+)$`)
	arxivNewRe    = regexp.MustCompile(`^(\d{2})(\d{2})\.\d+$`)
	arxivLegacyRe = regexp.MustCompile(`^([^\d]+)(\d{2})(\d{2})\d+$`)
)

// Arxiv is the [Scheme] for arXiv identifiers: "arXiv:1501.00963v3",
// bare "1501.00963", legacy "astro-ph/0412561", and abs/pdf URLs under
// arxiv.org.
type Arxiv struct{}

var _ Scheme = Arxiv{}

// Name implements Scheme.
func (Arxiv) Name() string { return "arxiv" }

// Parse implements Scheme.
//
// Trims the input, strips URL framing and a leading "arXiv:" prefix,
// splits off a trailing "v<digits>" as the version, and concatenates a
// legacy "category/number" split into a single base.
func (Arxiv) Parse(raw string) Parsed {
	s := strings.TrimSpace(raw)

	if m := arxivURLRe.FindStringSubmatch(s); m != nil {
		s = m[1]
		s = strings.TrimSuffix(s, ".pdf")
	}

	s = arxivPrefixRe.ReplaceAllString(s, "")

	version := ""
	if m := arxivVerRe.FindStringSubmatch(s); m != nil {
		s = m[1]
		version = m[2]
	}

	if parts := strings.Split(s, "/"); len(parts) == 2 {
		s = parts[0] + parts[1]
	}

	return Parsed{Base: s, Qualifier: version}
}

// CanonicalKey implements Scheme.
func (Arxiv) CanonicalKey(p Parsed) string {
	if p.Qualifier == "" {
		return p.Base
	}
	return p.Base + "v" + p.Qualifier
}

// HintLocation implements Scheme.
//
// Infers the bulk file's year directory and filename glob patterns
// from the base identifier's embedded YYMM, without touching the
// manifest. Two-digit years 91 and above are 19xx, otherwise 20xx,
// matching arXiv's own naming convention (the scheme pre-dates 2000).
func (Arxiv) HintLocation(base string) *diag.TarHint {
	if m := arxivNewRe.FindStringSubmatch(base); m != nil {
		yymm := m[1] + m[2]
		return &diag.TarHint{
			YearDir:    yearFromYY(m[1]),
			PDFPattern: fmt.Sprintf("arXiv_pdf_%s_*.tar", yymm),
			SrcPattern: fmt.Sprintf("arXiv_src_%s_*.tar", yymm),
		}
	}
	if m := arxivLegacyRe.FindStringSubmatch(base); m != nil {
		cat, yy, mm := m[1], m[2], m[3]
		return &diag.TarHint{
			YearDir:    yearFromYY(yy),
			PDFPattern: fmt.Sprintf("arXiv_pdf_%s_%s%s_*.tar", cat, yy, mm),
			SrcPattern: fmt.Sprintf("arXiv_src_%s_%s%s_*.tar", cat, yy, mm),
		}
	}
	return nil
}

func yearFromYY(yy string) string {
	n, err := strconv.Atoi(yy)
	if err != nil {
		return ""
	}
	if n >= 91 {
		return "19" + yy
	}
	return "20" + yy
}
