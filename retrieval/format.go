package retrieval

import "github.com/paperlake/paperlake/contenttype"

// Format is the caller-requested document format filter.
type Format string

// Recognized format filters. The zero value behaves like Preferred.
const (
	FormatPDF       Format = "pdf"
	FormatSource    Format = "source"
	FormatPreferred Format = "preferred"
)

// matches reports whether a known document class satisfies format.
// An empty or "preferred" format matches anything.
func (f Format) matches(c contenttype.Class) bool {
	switch f {
	case "", FormatPreferred:
		return true
	case FormatPDF:
		return c == contenttype.PDF
	case FormatSource:
		return c == contenttype.SourceGzip || c == contenttype.SourceTar
	default:
		return true
	}
}

// wantsPDF reports whether the origin tier's PDF step should run.
func (f Format) wantsPDF() bool {
	return f == "" || f == FormatPDF || f == FormatPreferred
}

// wantsSource reports whether the origin tier's source step should run.
func (f Format) wantsSource() bool {
	return f == "" || f == FormatSource || f == FormatPreferred
}
