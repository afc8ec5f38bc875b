package retrieval

import (
	"context"
	"os"
	"strings"

	"github.com/paperlake/paperlake/cache"
	"github.com/paperlake/paperlake/contenttype"
	"github.com/paperlake/paperlake/diag"
	"github.com/paperlake/paperlake/fetch"
	"github.com/paperlake/paperlake/identifier"
	"github.com/paperlake/paperlake/internal/obslog"
	"github.com/paperlake/paperlake/manifest"
)

// ArxivEngine implements the arXiv retrieval flow: tiered lookup
// across cache, local archive, upstream mirror, and arxiv.org itself,
// with version and format handling. A nil Cache, Upstream, or Origin
// disables the corresponding tier — exactly the contract a caller
// gets by leaving them unconfigured.
type ArxivEngine struct {
	Store       *manifest.ArxivStore
	ArchiveRoot string
	Cache       *cache.Cache
	Upstream    Tier
	Origin      *ArxivOriginTier
}

// Retrieve resolves rawID, consults the tier chain in order, and
// returns either a successful [Outcome] or a structured [diag.Failure]
// classified per the precedence in the system contract: version_not_found,
// then format_unavailable, then not_found.
func (e *ArxivEngine) Retrieve(ctx context.Context, rawID string, format Format) (*Outcome, *diag.Failure) {
	scheme := identifier.Arxiv{}
	parsed := scheme.Parse(rawID)
	versionRequired := parsed.Qualifier != ""
	key := scheme.CanonicalKey(parsed)

	entry, found, err := e.Store.Lookup(ctx, key)
	if err != nil {
		return nil, diag.DatabaseError(err)
	}
	versionNotFoundCandidate := false
	if !found && versionRequired {
		versionNotFoundCandidate = true
	} else if !found {
		entry, found, err = e.Store.Lookup(ctx, parsed.Base)
		if err != nil {
			return nil, diag.DatabaseError(err)
		}
	}

	formatMismatchKnown := found && !format.matches(entry.DocClass)
	bypassLocalTiers := formatMismatchKnown

	var content []byte
	var source string

	if !bypassLocalTiers && e.Cache != nil {
		if b := e.Cache.Get(ctx, key); b != nil {
			content, source = b, "cache"
		}
	}

	if content == nil && !bypassLocalTiers && found {
		absPath, exists := fetch.ResolvePath(e.ArchiveRoot, entry.ArchiveFile)
		if exists {
			if b := fetch.Tar(ctx, absPath, entry.Offset, entry.Size); b != nil {
				content, source = b, "local"
			}
		}
	}

	if content == nil && e.Upstream != nil {
		if b, ok := e.Upstream.Fetch(ctx, key, format); ok {
			content, source = b, "upstream"
		}
	}

	if content == nil && e.Origin != nil {
		originID := key
		if isLegacyBase(parsed.Base) {
			originID = LegacyURLID(parsed.Base)
			if versionRequired {
				originID += "v" + parsed.Qualifier
			}
		}
		if b, ok := e.Origin.Fetch(ctx, originID, format); ok {
			content, source = b, "origin"
		}
	}

	if content == nil {
		switch {
		case versionNotFoundCandidate:
			return nil, diag.VersionNotFound(rawID)
		case formatMismatchKnown:
			return nil, diag.FormatUnavailable(rawID, string(format))
		default:
			similar, simErr := e.Store.FindSimilar(ctx, similarPrefix(parsed.Base))
			if simErr != nil {
				obslog.FromContext(ctx).Warn("retrieval: find_similar failed", "id", rawID, "error", simErr)
			}
			return nil, diag.NotFound(rawID, similar)
		}
	}

	if source != "cache" && e.Cache != nil {
		e.Cache.Put(ctx, key, content)
	}

	class := entry.DocClass
	if class == "" || source != "local" {
		class = contenttype.Sniff(content)
	}

	return &Outcome{
		Content:     content,
		ContentType: contenttype.MIME(class),
		Source:      source,
		Class:       class,
		Year:        entry.Year,
		Version:     parsed.Qualifier,
	}, nil
}

// Diagnose mirrors the source implementation's detailed-error path:
// it distinguishes an empty manifest, a missing ID with similar-ID
// suggestions, a known-but-unreachable archive, and a permission
// failure, none of which the hot Retrieve path needs to tell apart.
func (e *ArxivEngine) Diagnose(ctx context.Context, rawID string) *diag.Failure {
	scheme := identifier.Arxiv{}
	parsed := scheme.Parse(rawID)
	key := scheme.CanonicalKey(parsed)

	_, ok, err := e.Store.RandomEntry(ctx, manifest.RandomFilter{})
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
		failure := diag.NotFound(rawID, similar)
		return failure.WithTarHint(scheme.HintLocation(parsed.Base))
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

func similarPrefix(base string) string {
	if len(base) > 6 {
		return base[:6]
	}
	return base
}

// isLegacyBase reports whether a parsed base ID follows the pre-2007
// category/number convention, as opposed to the YYMM.NNNNN scheme.
func isLegacyBase(base string) bool {
	return strings.IndexFunc(base, func(r rune) bool { return r >= '0' && r <= '9' }) > 0
}
