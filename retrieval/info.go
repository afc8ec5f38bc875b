package retrieval

import (
	"context"

	"github.com/paperlake/paperlake/contenttype"
	"github.com/paperlake/paperlake/diag"
	"github.com/paperlake/paperlake/fetch"
	"github.com/paperlake/paperlake/identifier"
	"github.com/paperlake/paperlake/manifest"
	"github.com/paperlake/paperlake/model"
)

// Info is the payload/4.8 metadata-only lookup answer: manifest
// metadata plus whether the bulk file backing it is actually present
// on disk, without ever reading the document payload itself.
type Info struct {
	ID               string
	Found            bool
	LocallyAvailable bool
	Entry            *model.ArxivEntry // set only by ArxivEngine.Info when the manifest had the entry
	Source           string            // "manifest" | "upstream" | "origin" | ""
}

// Info answers §4.8's get_paper_info: manifest metadata plus disk
// presence, falling back to an upstream existence check and then an
// arXiv HEAD request when the manifest has nothing, without ever
// fetching document bytes.
func (e *ArxivEngine) Info(ctx context.Context, rawID string) (*Info, *diag.Failure) {
	scheme := identifier.Arxiv{}
	parsed := scheme.Parse(rawID)
	key := scheme.CanonicalKey(parsed)

	entry, found, err := e.Store.Lookup(ctx, key)
	if err != nil {
		return nil, diag.DatabaseError(err)
	}
	if !found {
		entry, found, err = e.Store.Lookup(ctx, parsed.Base)
		if err != nil {
			return nil, diag.DatabaseError(err)
		}
	}
	if found {
		_, exists := fetch.ResolvePath(e.ArchiveRoot, entry.ArchiveFile)
		return &Info{ID: rawID, Found: true, LocallyAvailable: exists, Entry: &entry, Source: "manifest"}, nil
	}

	if e.Upstream != nil {
		if u, ok := e.Upstream.(UpstreamTier); ok && u.CheckInfo(ctx, key) {
			return &Info{ID: rawID, Found: true, Source: "upstream"}, nil
		}
	}
	if e.Origin != nil && e.Origin.CheckExists(ctx, key) {
		return &Info{ID: rawID, Found: true, Source: "origin"}, nil
	}
	return &Info{ID: rawID, Found: false}, nil
}

// RandomPaper answers §4.8's get_random_paper: a uniformly random
// entry from the subset matching category (legacy-ID prefix or
// enrichment category token), and — when localOnly is set — actual
// on-disk archive presence. Of the format filters only FormatPDF
// narrows the subset; FormatSource and FormatPreferred select from
// entries of every class.
func (e *ArxivEngine) RandomPaper(ctx context.Context, format Format, category string, localOnly bool) (model.ArxivEntry, bool, error) {
	filter := manifest.RandomFilter{CategoryPrefix: category}
	if format == FormatPDF {
		filter.Format = contenttype.PDF
	}
	if localOnly {
		filter.ExistingArchive = func(archiveFile string) bool {
			_, exists := fetch.ResolvePath(e.ArchiveRoot, archiveFile)
			return exists
		}
	}
	return e.Store.RandomEntry(ctx, filter)
}

// Info is PatentEngine's analogue of [ArxivEngine.Info]: USPTO has no
// origin-of-record tier, so the fallback chain stops at upstream.
func (e *PatentEngine) Info(ctx context.Context, rawID string) (*Info, *diag.Failure) {
	scheme := identifier.Uspto{}
	parsed := scheme.Parse(rawID)
	key := scheme.CanonicalKey(parsed)

	entry, found, err := e.Store.Lookup(ctx, key)
	if err != nil {
		return nil, diag.DatabaseError(err)
	}
	if found {
		_, exists := fetch.ResolvePath(e.ArchiveRoot, entry.ArchiveFile)
		return &Info{ID: rawID, Found: true, LocallyAvailable: exists, Source: "manifest"}, nil
	}

	if e.Upstream != nil {
		if u, ok := e.Upstream.(UpstreamTier); ok && u.CheckInfo(ctx, key) {
			return &Info{ID: rawID, Found: true, Source: "upstream"}, nil
		}
	}
	return &Info{ID: rawID, Found: false}, nil
}

// RandomPaper is PatentEngine's analogue of [ArxivEngine.RandomPaper].
func (e *PatentEngine) RandomPaper(ctx context.Context, docType model.DocType, localOnly bool) (model.PatentEntry, bool, error) {
	filter := manifest.PatentRandomFilter{DocType: docType}
	if localOnly {
		filter.ExistingArchive = func(archiveFile string) bool {
			_, exists := fetch.ResolvePath(e.ArchiveRoot, archiveFile)
			return exists
		}
	}
	return e.Store.RandomEntry(ctx, filter)
}
