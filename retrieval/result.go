package retrieval

import "github.com/paperlake/paperlake/contenttype"

// Outcome is a successful retrieval: the tagged record design note §9
// calls for in place of the source implementation's loosely typed
// result dict.
type Outcome struct {
	Content     []byte
	ContentType string
	Source      string // "cache" | "local" | "upstream" | "origin"
	Class       contenttype.Class
	Year        int    // arXiv only; zero for USPTO
	Version     string // arXiv only; empty if the request carried none
}
