// Package model holds the manifest's row types: the two document
// entries (one per corpus) and the bulk-file processing record.
package model

import (
	"time"

	"github.com/paperlake/paperlake/contenttype"
)

// DocType categorizes a USPTO patent document.
type DocType string

// Recognized USPTO document types.
const (
	Grant       DocType = "grant"
	Application DocType = "application"
	DocUnknown  DocType = "unknown"
)

// ArxivEntry is one row of the paper_index table: a single arXiv
// document located inside a bulk tar file.
type ArxivEntry struct {
	ID              string
	ArchiveFile     string
	Offset          uint64
	Size            uint64
	DocClass        contenttype.Class
	Year            int
	RecordCreatedAt time.Time

	// Enrichment columns, populated by an external metadata-dump pass
	// and otherwise nil.
	Categories *string
	Title      *string
	Authors    *string
	Abstract   *string
	DOI        *string
	JournalRef *string
	Comments   *string
	Submitter  *string
	ReportNo   *string
	Versions   *string
}

// PatentEntry is one row of the patent_index table: a single USPTO
// patent document located inside a bulk zip file's concatenated XML.
type PatentEntry struct {
	ID              string
	ArchiveFile     string
	Offset          uint64
	Size            uint64
	DocType         DocType
	KindCode        *string
	Year            *int
	RecordCreatedAt time.Time
}

// BulkFileRecord tracks whether a bulk archive has already been
// scanned, keyed by its path relative to the archive root.
type BulkFileRecord struct {
	FilePath     string
	FileHash     string
	LastModified float64
	ProcessedAt  time.Time
}
