package indexpipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// candidate is one bulk archive the pipeline may need to (re)scan.
// ArchiveFile is always relative to the configured root, the form
// stored in the manifest and handed to package fetch at retrieval
// time.
type candidate struct {
	AbsPath     string
	ArchiveFile string
	Year        int // unused (0) for USPTO candidates
}

var yearDirRe = regexp.MustCompile(`^\d{4}$`)

// enumerateArxiv walks root's year subdirectories (four decimal
// digits) and collects every ".tar" file directly beneath them.
func enumerateArxiv(root string) ([]candidate, error) {
	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("indexpipeline: reading archive root %s: %w", root, err)
	}

	var out []candidate
	for _, yd := range dirents {
		if !yd.IsDir() || !yearDirRe.MatchString(yd.Name()) {
			continue
		}
		year, _ := strconv.Atoi(yd.Name())
		yearDir := filepath.Join(root, yd.Name())
		files, err := os.ReadDir(yearDir)
		if err != nil {
			return nil, fmt.Errorf("indexpipeline: reading year directory %s: %w", yearDir, err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".tar") {
				continue
			}
			out = append(out, candidate{
				AbsPath:     filepath.Join(yearDir, f.Name()),
				ArchiveFile: filepath.Join(yd.Name(), f.Name()),
				Year:        year,
			})
		}
	}
	return out, nil
}

// usptoSubdirs are the only directories (besides root itself) the
// pipeline descends into for bulk zip files.
var usptoSubdirs = []string{"PTGRXML", "APPXML"}

// enumerateUspto collects every ".zip" file directly under root and
// under root's PTGRXML/ and APPXML/ subdirectories, if present.
func enumerateUspto(root string) ([]candidate, error) {
	dirs := append([]string{""}, usptoSubdirs...)

	var out []candidate
	for _, sub := range dirs {
		dir := root
		if sub != "" {
			dir = filepath.Join(root, sub)
		}
		files, err := os.ReadDir(dir)
		if os.IsNotExist(err) && sub != "" {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("indexpipeline: reading %s: %w", dir, err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".zip") {
				continue
			}
			rel := f.Name()
			if sub != "" {
				rel = filepath.Join(sub, f.Name())
			}
			out = append(out, candidate{
				AbsPath:     filepath.Join(dir, f.Name()),
				ArchiveFile: rel,
			})
		}
	}
	return out, nil
}

var arxivBulkNameRe = regexp.MustCompile(`^arXiv_(?:pdf|src)_(\d{2})(\d{2})_\d+\.tar$`)

// singleArxivCandidate resolves single-file mode: path may be an
// absolute or root-relative archive path, or a bare filename, in
// which case the year is derived from the embedded YYMM and the file
// is located at <root>/<year>/<filename>.
func singleArxivCandidate(root, path string) (candidate, error) {
	if filepath.IsAbs(path) || strings.ContainsRune(path, filepath.Separator) {
		abs := path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, path)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			rel = abs
		}
		year := 0
		if parts := strings.SplitN(rel, string(filepath.Separator), 2); yearDirRe.MatchString(parts[0]) {
			year, _ = strconv.Atoi(parts[0])
		}
		return candidate{AbsPath: abs, ArchiveFile: rel, Year: year}, nil
	}

	m := arxivBulkNameRe.FindStringSubmatch(path)
	if m == nil {
		return candidate{}, fmt.Errorf("indexpipeline: cannot derive year from filename %q", path)
	}
	yy, _ := strconv.Atoi(m[1])
	year := 2000 + yy
	if yy >= 91 {
		year = 1900 + yy
	}
	yearStr := strconv.Itoa(year)
	return candidate{
		AbsPath:     filepath.Join(root, yearStr, path),
		ArchiveFile: filepath.Join(yearStr, path),
		Year:        year,
	}, nil
}

// singleUsptoCandidate resolves single-file mode for the USPTO
// pipeline: USPTO bulk files carry no year in their name, so a bare
// filename is looked for directly under root and its known
// subdirectories.
func singleUsptoCandidate(root, path string) (candidate, error) {
	if filepath.IsAbs(path) || strings.ContainsRune(path, filepath.Separator) {
		abs := path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, path)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			rel = abs
		}
		return candidate{AbsPath: abs, ArchiveFile: rel}, nil
	}

	if _, err := os.Stat(filepath.Join(root, path)); err == nil {
		return candidate{AbsPath: filepath.Join(root, path), ArchiveFile: path}, nil
	}
	for _, sub := range usptoSubdirs {
		abs := filepath.Join(root, sub, path)
		if _, err := os.Stat(abs); err == nil {
			return candidate{AbsPath: abs, ArchiveFile: filepath.Join(sub, path)}, nil
		}
	}
	return candidate{}, fmt.Errorf("indexpipeline: %q not found under %s", path, root)
}
