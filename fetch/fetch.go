// Package fetch implements the byte-range fetcher: reading the exact
// slice of a document's payload out of a bulk archive on local disk.
// Tar and Zip return nil rather than an error on a
// missing file, I/O failure, or permission problem — these are soft
// failures the retrieval engine treats as "this tier had nothing" and
// uses to advance to the next tier, never surfaced to a caller as-is.
package fetch

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/paperlake/paperlake/internal/obslog"
)

// Tar reads size bytes at offset from the tar archive at absPath.
// offset is the payload offset scanner.ScanTar recorded, not a tar
// header offset.
func Tar(ctx context.Context, absPath string, offset, size uint64) []byte {
	f, err := os.Open(absPath)
	if err != nil {
		logSoftFailure(ctx, "tar", absPath, err)
		return nil
	}
	defer f.Close()

	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, int64(offset)); err != nil {
		logSoftFailure(ctx, "tar", absPath, err)
		return nil
	}
	return buf
}

// Zip reads size bytes at offset from the decompressed inner XML file
// of the USPTO bulk zip at absPath. The inner stream is read from the
// beginning and discarded up to offset, since flate's decompressor
// does not support random access — acceptable here because offset
// values only ever point at `<?xml` document boundaries, so the
// discard happens once per retrieval, not once per byte.
func Zip(ctx context.Context, absPath string, offset, size uint64) []byte {
	f, err := os.Open(absPath)
	if err != nil {
		logSoftFailure(ctx, "zip", absPath, err)
		return nil
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		logSoftFailure(ctx, "zip", absPath, err)
		return nil
	}

	zr, err := zip.NewReader(f, stat.Size())
	if err != nil {
		logSoftFailure(ctx, "zip", absPath, err)
		return nil
	}
	zr.RegisterDecompressor(zip.Deflate, flate.NewReader)

	var xmlMember *zip.File
	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, ".xml") {
			xmlMember = zf
			break
		}
	}
	if xmlMember == nil {
		logSoftFailure(ctx, "zip", absPath, errors.New("no xml member"))
		return nil
	}

	rc, err := xmlMember.Open()
	if err != nil {
		logSoftFailure(ctx, "zip", absPath, err)
		return nil
	}
	defer rc.Close()

	if _, err := io.CopyN(io.Discard, rc, int64(offset)); err != nil {
		logSoftFailure(ctx, "zip", absPath, err)
		return nil
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(rc, buf); err != nil {
		logSoftFailure(ctx, "zip", absPath, err)
		return nil
	}
	return buf
}

// ResolvePath joins an archive root with an archive-relative path and
// reports whether the result is currently present on disk — the
// filesystem predicate the random-selection and archive-missing
// diagnostics rely on.
func ResolvePath(root, archiveFile string) (absPath string, exists bool) {
	absPath = filepath.Join(root, archiveFile)
	_, err := os.Stat(absPath)
	return absPath, err == nil
}

func logSoftFailure(ctx context.Context, kind, path string, err error) {
	obslog.FromContext(ctx).Debug("byte-range fetch missed", "kind", kind, "path", path, "error", err)
}
