package retrieval

import (
	"context"
	"os"

	"github.com/paperlake/paperlake/cache"
	"github.com/paperlake/paperlake/contenttype"
	"github.com/paperlake/paperlake/diag"
	"github.com/paperlake/paperlake/fetch"
	"github.com/paperlake/paperlake/identifier"
	"github.com/paperlake/paperlake/internal/obslog"
	"github.com/paperlake/paperlake/manifest"
)

// PatentEngine implements the USPTO retrieval flow: the same tier
// shape as [ArxivEngine] minus versioning and the origin-of-record
// tier, which arXiv alone has. cache -> local -> upstream -> not_found.
type PatentEngine struct {
	Store       *manifest.PatentStore
	ArchiveRoot string
	Cache       *cache.Cache
	Upstream    Tier
}

// Retrieve resolves rawID and fetches the patent document, in the
// same tier order and error-classification scheme as
// [ArxivEngine.Retrieve], with format_unavailable and version_not_found
// never occurring (no versioning, no per-document format filter beyond
// the fixed xml class).
func (e *PatentEngine) Retrieve(ctx context.Context, rawID string) (*Outcome, *diag.Failure) {
	scheme := identifier.Uspto{}
	parsed := scheme.Parse(rawID)
	key := scheme.CanonicalKey(parsed)

	entry, found, err := e.Store.Lookup(ctx, key)
	if err != nil {
		return nil, diag.DatabaseError(err)
	}

	var content []byte
	var source string

	if e.Cache != nil {
		if b := e.Cache.Get(ctx, key); b != nil {
			content, source = b, "cache"
		}
	}

	if content == nil && found {
		absPath, exists := fetch.ResolvePath(e.ArchiveRoot, entry.ArchiveFile)
		if exists {
			if b := fetch.Zip(ctx, absPath, entry.Offset, entry.Size); b != nil {
				content, source = b, "local"
			}
		}
	}

	if content == nil && e.Upstream != nil {
		if b, ok := e.Upstream.Fetch(ctx, key, ""); ok {
			content, source = b, "upstream"
		}
	}

	if content == nil {
		similar, simErr := e.Store.FindSimilar(ctx, similarPrefix(parsed.Base))
		if simErr != nil {
			obslog.FromContext(ctx).Warn("retrieval: find_similar failed", "id", rawID, "error", simErr)
		}
		return nil, diag.NotFound(rawID, similar)
	}

	if source != "cache" && e.Cache != nil {
		e.Cache.Put(ctx, key, content)
	}

	return &Outcome{
		Content:     content,
		ContentType: contenttype.MIME(contenttype.XML),
		Source:      source,
		Class:       contenttype.XML,
	}, nil
}

// Diagnose mirrors [ArxivEngine.Diagnose] for the USPTO corpus.
func (e *PatentEngine) Diagnose(ctx context.Context, rawID string) *diag.Failure {
	scheme := identifier.Uspto{}
	parsed := scheme.Parse(rawID)
	key := scheme.CanonicalKey(parsed)

	_, ok, err := e.Store.RandomEntry(ctx, manifest.PatentRandomFilter{})
	if err != nil {
		return diag.DatabaseError(err)
	}
	if !ok {
		return diag.EmptyDatabase()
	}

	entry, found, err := e.Store.Lookup(ctx, key)
	if err != nil {
		return diag.DatabaseError(err)
	}
	if !found {
		similar, err := e.Store.FindSimilar(ctx, similarPrefix(parsed.Base))
		if err != nil {
			return diag.DatabaseError(err)
		}
		return diag.NotFound(rawID, similar)
	}

	absPath, exists := fetch.ResolvePath(e.ArchiveRoot, entry.ArchiveFile)
	if !exists {
		return diag.ArchiveMissing(absPath)
	}
	f, err := os.Open(absPath)
	if os.IsPermission(err) {
		return diag.PermissionDenied(absPath)
	}
	if err == nil {
		f.Close()
	}
	return nil
}
