package retrieval

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/paperlake/paperlake/internal/obslog"
)

// ArxivOriginTier fetches directly from arxiv.org, the origin of
// record. This is the most expensive and least polite tier, so every
// request passes through a rate limiter before it goes out.
type ArxivOriginTier struct {
	Client  *http.Client
	Timeout time.Duration
	Limiter *rate.Limiter
}

// NewArxivOriginTier builds a tier rate-limited to at most one
// request per interval, with a small burst allowance for the PDF and
// source steps of a single retrieval.
func NewArxivOriginTier(client *http.Client, timeout time.Duration, interval time.Duration) *ArxivOriginTier {
	return &ArxivOriginTier{
		Client:  client,
		Timeout: timeout,
		Limiter: rate.NewLimiter(rate.Every(interval), 2),
	}
}

// Fetch tries the PDF URL first (if format allows), accepting the
// response only if its body starts with the PDF magic bytes — arXiv
// serves an HTML error page with a 200 status for some malformed
// requests, and this is the only way to detect that. It then tries
// the source (e-print) URL if format allows and the PDF step produced
// nothing. id is used in the URLs as given; for legacy base IDs the
// caller passes the form with the category/number slash reinserted
// (see [LegacyURLID]).
func (t *ArxivOriginTier) Fetch(ctx context.Context, id string, format Format) ([]byte, bool) {
	if format.wantsPDF() {
		if body, ok := t.get(ctx, "https://arxiv.org/pdf/"+id+".pdf"); ok {
			if bytes.HasPrefix(body, []byte("%PDF")) {
				return body, true
			}
			obslog.FromContext(ctx).Debug("origin: pdf response was not a pdf", "id", id)
		}
	}
	if format.wantsSource() {
		if body, ok := t.get(ctx, "https://export.arxiv.org/e-print/"+id); ok {
			return body, true
		}
	}
	return nil, false
}

// CheckExists issues a HEAD to the PDF URL to confirm a paper exists
// at arxiv.org without downloading it, for [ArxivEngine.Info]'s last
// resort when neither the manifest nor the upstream mirror knows id.
func (t *ArxivOriginTier) CheckExists(ctx context.Context, id string) bool {
	if err := t.Limiter.Wait(ctx); err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, "https://arxiv.org/pdf/"+id+".pdf", nil)
	if err != nil {
		return false
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		obslog.FromContext(ctx).Debug("origin: head request failed", "id", id, "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (t *ArxivOriginTier) get(ctx context.Context, url string) ([]byte, bool) {
	if err := t.Limiter.Wait(ctx); err != nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		obslog.FromContext(ctx).Debug("origin: request failed", "url", url, "error", err)
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}
	return body, true
}

// LegacyURLID reinserts the slash arXiv's legacy category/number
// identifiers carry in URLs (astro-ph0412561 -> astro-ph/0412561),
// undoing the concatenation [identifier.Arxiv.Parse] performs.
func LegacyURLID(base string) string {
	for i, r := range base {
		if r >= '0' && r <= '9' {
			if i == 0 {
				return base
			}
			return base[:i] + "/" + base[i:]
		}
	}
	return base
}
