package indexpipeline

import (
	"archive/tar"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paperlake/paperlake/manifest"
)

func writeArxivTar(t *testing.T, path string, members map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	tw := tar.NewWriter(f)
	for name, body := range members {
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body))}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
}

func newTestArxivPipeline(t *testing.T) (*ArxivPipeline, string) {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()
	store, err := manifest.OpenArxiv(ctx, filepath.Join(t.TempDir(), "manifest.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return &ArxivPipeline{Store: store, Root: root, Workers: 2}, root
}

func TestEnumerateArxivCollectsYearDirs(t *testing.T) {
	root := t.TempDir()
	writeArxivTar(t, filepath.Join(root, "2015", "arXiv_pdf_1501_001.tar"), map[string]string{"1501.00963.pdf": "%PDF-1"})
	writeArxivTar(t, filepath.Join(root, "2016", "arXiv_pdf_1601_001.tar"), map[string]string{"1601.00001.pdf": "%PDF-2"})
	if err := os.MkdirAll(filepath.Join(root, "not-a-year"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := enumerateArxiv(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}
}

func TestRunIndexesNewArchive(t *testing.T) {
	ctx := context.Background()
	p, root := newTestArxivPipeline(t)
	writeArxivTar(t, filepath.Join(root, "2015", "arXiv_pdf_1501_001.tar"), map[string]string{
		"1501.00963.pdf": "%PDF-1.4 body",
		"1501.00964.pdf": "%PDF-1.4 other body",
	})

	summary, err := p.Run(ctx, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.FilesProcessed != 1 || summary.EntriesAdded != 2 || summary.FilesFailed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	entry, found, err := p.Store.Lookup(ctx, "1501.00963")
	if err != nil || !found {
		t.Fatalf("Lookup(1501.00963) = %v, %v, %v", entry, found, err)
	}
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p, root := newTestArxivPipeline(t)
	writeArxivTar(t, filepath.Join(root, "2015", "arXiv_pdf_1501_001.tar"), map[string]string{
		"1501.00963.pdf": "%PDF-1.4 body",
	})

	if _, err := p.Run(ctx, ""); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := p.Run(ctx, "")
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.FilesProcessed != 0 || second.EntriesAdded != 0 || second.FilesSkipped != 1 {
		t.Fatalf("second run should skip unchanged archive entirely, got %+v", second)
	}
}

func TestRunRefreshesMtimeOnIdenticalContent(t *testing.T) {
	ctx := context.Background()
	p, root := newTestArxivPipeline(t)
	path := filepath.Join(root, "2015", "arXiv_pdf_1501_001.tar")
	writeArxivTar(t, path, map[string]string{"1501.00963.pdf": "%PDF-1.4 body"})

	if _, err := p.Run(ctx, ""); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// Touch the file forward without changing its bytes: this must hit
	// the hash-matches-but-mtime-moved branch, not a bare skip.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	second, err := p.Run(ctx, "")
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.FilesSkipped != 0 || second.FilesProcessed != 1 || second.EntriesAdded != 0 {
		t.Fatalf("expected mtime-only refresh, got %+v", second)
	}

	rec, ok, err := p.Store.IsProcessed(ctx, "2015/arXiv_pdf_1501_001.tar")
	if err != nil || !ok {
		t.Fatalf("IsProcessed = %v, %v, %v", rec, ok, err)
	}
}

func TestRunContinuesPastPerFileFailure(t *testing.T) {
	ctx := context.Background()
	p, root := newTestArxivPipeline(t)
	writeArxivTar(t, filepath.Join(root, "2015", "arXiv_pdf_1501_001.tar"), map[string]string{"1501.00963.pdf": "%PDF-good"})

	// A second "archive" that isn't a valid tar at all.
	badPath := filepath.Join(root, "2015", "arXiv_pdf_1502_001.tar")
	if err := os.WriteFile(badPath, []byte("not a tar file"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := p.Run(ctx, "")
	if err != nil {
		t.Fatalf("Run should not fail the whole pipeline on one bad file: %v", err)
	}
	if summary.FilesProcessed != 1 || summary.FilesFailed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestRunSingleFileMode(t *testing.T) {
	ctx := context.Background()
	p, root := newTestArxivPipeline(t)
	writeArxivTar(t, filepath.Join(root, "2015", "arXiv_pdf_1501_001.tar"), map[string]string{"1501.00963.pdf": "%PDF-body"})

	summary, err := p.Run(ctx, "arXiv_pdf_1501_001.tar")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.FilesTotal != 1 || summary.FilesProcessed != 1 || summary.EntriesAdded != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}
