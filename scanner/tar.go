// Package scanner implements the archive scanners: pure functions that
// take a bulk archive's bytes and produce the per-document offsets and
// lightweight metadata the indexing pipeline upserts into the
// manifest. Both scanners are safe to run concurrently across worker
// goroutines — neither touches the manifest.
package scanner

import (
	"archive/tar"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/paperlake/paperlake/contenttype"
	"github.com/paperlake/paperlake/model"
)

var knownExtensions = [...]string{".gz", ".pdf", ".tar", ".zip"}

func stripKnownExtension(base string) string {
	for _, ext := range knownExtensions {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

// TarResult is the outcome of scanning one arXiv bulk tar file.
type TarResult struct {
	Hash    string
	Mtime   float64
	Entries []model.ArxivEntry
	Err     error
}

// ScanTar streams the tar at absPath (without extracting it) and
// returns one [model.ArxivEntry] per regular-file member, alongside
// the whole file's MD5 hash computed in the same pass.
//
// archiveFile is stamped onto every returned entry as-is; it is the
// caller's job to make it relative to the configured archive root.
// year is likewise caller-supplied, since it comes from the directory
// or filename convention, not the tar's own contents.
//
// Offset records the payload offset (the tar header is skipped), not
// the header's own offset — this must stay consistent for the whole
// corpus, since the byte-range fetcher in package fetch reads from the
// same number.
func ScanTar(absPath, archiveFile string, year int) TarResult {
	f, err := os.Open(absPath)
	if err != nil {
		return TarResult{Err: fmt.Errorf("scanner: open %s: %w", absPath, err)}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return TarResult{Err: fmt.Errorf("scanner: stat %s: %w", absPath, err)}
	}
	mtime := float64(stat.ModTime().UnixNano()) / 1e9

	h := md5.New()
	tr := tar.NewReader(io.TeeReader(f, h))

	var entries []model.ArxivEntry
	for {
		hdr, err := tr.Next()
		switch {
		case err == io.EOF:
			return TarResult{
				Hash:    hex.EncodeToString(h.Sum(nil)),
				Mtime:   mtime,
				Entries: entries,
			}
		case err != nil:
			return TarResult{Err: fmt.Errorf("scanner: reading tar %s: %w", archiveFile, err)}
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		// tar.Reader has consumed exactly the header block at this
		// point; the underlying file's position is the first byte of
		// this member's payload.
		off, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return TarResult{Err: fmt.Errorf("scanner: seek %s: %w", archiveFile, err)}
		}
		id := stripKnownExtension(path.Base(hdr.Name))
		entries = append(entries, model.ArxivEntry{
			ID:          id,
			ArchiveFile: archiveFile,
			Offset:      uint64(off),
			Size:        uint64(hdr.Size),
			DocClass:    contenttype.FromExtension(hdr.Name),
			Year:        year,
		})
	}
}
