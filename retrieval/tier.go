package retrieval

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/paperlake/paperlake/internal/obslog"
)

// Tier is a pluggable fetch capability for the network tiers:
// [UpstreamTier] and [ArxivOriginTier] both have this shape. The cache
// and local byte-range tiers do not implement it; the engines call
// package cache and package fetch for those directly.
type Tier interface {
	Fetch(ctx context.Context, id string, format Format) ([]byte, bool)
}

// UpstreamTier issues a single GET to baseURL+"/paper/"+id. A 200
// yields the body; a 404 or any other status or network error is
// "this tier had nothing" — logged and left for the caller to advance
// past, never surfaced as an error in its own right.
type UpstreamTier struct {
	Client  *http.Client
	BaseURL string
	Timeout time.Duration
}

func (t UpstreamTier) Fetch(ctx context.Context, id string, _ Format) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	url := t.BaseURL + "/paper/" + id
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		obslog.FromContext(ctx).Warn("upstream: building request failed", "id", id, "error", err)
		return nil, false
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		obslog.FromContext(ctx).Debug("upstream: request failed", "id", id, "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false
	}
	if resp.StatusCode != http.StatusOK {
		obslog.FromContext(ctx).Debug("upstream: unexpected status", "id", id, "status", resp.StatusCode)
		return nil, false
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		obslog.FromContext(ctx).Debug("upstream: reading body failed", "id", id, "error", err)
		return nil, false
	}
	return body, true
}

// CheckInfo asks the mirror whether id exists, for
// [ArxivEngine.Info]/[PatentEngine.Info]'s "absent locally" path: a
// GET to baseURL+"/paper/"+id+"/info" that yields true only on a 200.
// A 404 or any network error yields false with no further detail —
// the info path has nothing more specific to report than the cache,
// local, and upstream-fetch tiers already would.
func (t UpstreamTier) CheckInfo(ctx context.Context, id string) bool {
	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	url := t.BaseURL + "/paper/" + id + "/info"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		obslog.FromContext(ctx).Debug("upstream: info request failed", "id", id, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}
