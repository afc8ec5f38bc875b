// Package identifier canonicalizes the polymorphic identifier syntaxes
// accepted by paperlake (arXiv IDs and URLs, USPTO patent numbers) into
// the exact key used as the manifest primary key.
//
// Per the design notes on polymorphic identifier lookup, the two
// corpora share scaffolding but have distinct parsing rules; both are
// exposed through the same Scheme capability so the indexing pipeline
// and retrieval engine can be written once and parameterized over
// either.
package identifier

import "github.com/paperlake/paperlake/diag"

// Parsed is the result of splitting a raw identifier string into its
// base form and an optional qualifier (an arXiv version number, or a
// USPTO kind code).
type Parsed struct {
	// Base is the canonical identifier with no qualifier, e.g.
	// "1501.00963" or "11123456".
	Base string
	// Qualifier is the version number (arXiv) or kind code (USPTO), or
	// "" if the input carried none.
	Qualifier string
}

// Scheme normalizes and locates documents for one corpus.
type Scheme interface {
	// Name identifies the scheme, e.g. "arxiv" or "uspto".
	Name() string

	// Parse splits a raw identifier string into its base and
	// qualifier. It never errors or panics: an input matching no
	// recognized pattern is returned unchanged as Parsed.Base with an
	// empty Qualifier.
	Parse(raw string) Parsed

	// CanonicalKey returns the manifest primary key for a Parsed
	// value. For arXiv, a non-empty Qualifier is folded into the key
	// ("<base>v<version>"); USPTO keys are always bare.
	CanonicalKey(p Parsed) string

	// HintLocation returns a diagnostic hint about where the bulk
	// archive backing base would live, or nil if the scheme has no
	// such notion (USPTO).
	HintLocation(base string) *diag.TarHint
}
