package manifest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/paperlake/paperlake/contenttype"
	"github.com/paperlake/paperlake/model"
)

func openTestArxivStore(t *testing.T) *ArxivStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.db")
	s, err := OpenArxiv(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenArxiv: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestArxivLookupRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestArxivStore(t)

	entry := model.ArxivEntry{
		ID:          "1501.00963",
		ArchiveFile: "2015/arXiv_pdf_1501_001.tar",
		Offset:      512,
		Size:        12,
		DocClass:    contenttype.PDF,
		Year:        2015,
	}
	if err := s.UpsertEntries(ctx, nil, []model.ArxivEntry{entry}); err != nil {
		t.Fatalf("UpsertEntries: %v", err)
	}

	got, ok, err := s.Lookup(ctx, "1501.00963")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatal("Lookup: not found")
	}
	got.RecordCreatedAt = entry.RecordCreatedAt // not under test here
	if diff := cmp.Diff(entry, got); diff != "" {
		t.Errorf("Lookup result mismatch (-want +got):\n%s", diff)
	}
}

func TestArxivUpsertOverwritesOnConflict(t *testing.T) {
	ctx := context.Background()
	s := openTestArxivStore(t)

	first := model.ArxivEntry{
		ID: "1501.00963", ArchiveFile: "2015/a.tar", Offset: 100, Size: 10,
		DocClass: contenttype.PDF, Year: 2015,
	}
	second := model.ArxivEntry{
		ID: "1501.00963", ArchiveFile: "2015/b.tar", Offset: 200, Size: 20,
		DocClass: contenttype.SourceGzip, Year: 2015,
	}
	if err := s.UpsertEntries(ctx, nil, []model.ArxivEntry{first}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertEntries(ctx, nil, []model.ArxivEntry{second}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, ok, err := s.Lookup(ctx, "1501.00963")
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if got.ArchiveFile != second.ArchiveFile || got.Offset != second.Offset || got.Size != second.Size {
		t.Errorf("Lookup after second upsert = %+v, want archive/offset/size from %+v", got, second)
	}
}

func TestArxivLookupMissing(t *testing.T) {
	s := openTestArxivStore(t)
	_, ok, err := s.Lookup(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Error("Lookup returned ok=true for a missing ID")
	}
}

func TestArxivFindSimilar(t *testing.T) {
	ctx := context.Background()
	s := openTestArxivStore(t)
	for _, id := range []string{"1501.00963", "1501.00964", "1501.00965", "2103.06497"} {
		e := model.ArxivEntry{ID: id, ArchiveFile: "f.tar", Offset: 0, Size: 1, DocClass: contenttype.PDF, Year: 2015}
		if err := s.UpsertEntries(ctx, nil, []model.ArxivEntry{e}); err != nil {
			t.Fatalf("UpsertEntries(%s): %v", id, err)
		}
	}

	got, err := s.FindSimilar(ctx, "1501.0096")
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("FindSimilar returned %d ids, want 3: %v", len(got), got)
	}
}

func TestBulkFileProcessedRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestArxivStore(t)

	if _, ok, err := s.IsProcessed(ctx, "2015/arXiv_pdf_1501_001.tar"); err != nil || ok {
		t.Fatalf("IsProcessed before mark: ok=%v err=%v", ok, err)
	}

	if err := s.MarkProcessed(ctx, nil, "2015/arXiv_pdf_1501_001.tar", "deadbeef", 1700000000.5); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	rec, ok, err := s.IsProcessed(ctx, "2015/arXiv_pdf_1501_001.tar")
	if err != nil || !ok {
		t.Fatalf("IsProcessed after mark: ok=%v err=%v", ok, err)
	}
	if rec.FileHash != "deadbeef" || rec.LastModified != 1700000000.5 {
		t.Errorf("IsProcessed = %+v, want hash=deadbeef mtime=1700000000.5", rec)
	}

	if err := s.MarkProcessed(ctx, nil, "2015/arXiv_pdf_1501_001.tar", "cafef00d", 1700000100.0); err != nil {
		t.Fatalf("re-MarkProcessed: %v", err)
	}
	rec, ok, err = s.IsProcessed(ctx, "2015/arXiv_pdf_1501_001.tar")
	if err != nil || !ok {
		t.Fatalf("IsProcessed after re-mark: ok=%v err=%v", ok, err)
	}
	if rec.FileHash != "cafef00d" {
		t.Errorf("FileHash after re-mark = %q, want cafef00d", rec.FileHash)
	}
}

func TestPatentLookupRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "patents.db")
	s, err := OpenUspto(ctx, path)
	if err != nil {
		t.Fatalf("OpenUspto: %v", err)
	}
	defer s.Close()

	kind := "B2"
	year := 2015
	entry := model.PatentEntry{
		ID: "11123456", ArchiveFile: "PTGRXML/ipgb20150106.zip",
		Offset: 0, Size: 4096, DocType: model.Grant, KindCode: &kind, Year: &year,
	}
	if err := s.UpsertEntries(ctx, nil, []model.PatentEntry{entry}); err != nil {
		t.Fatalf("UpsertEntries: %v", err)
	}

	got, ok, err := s.Lookup(ctx, "11123456")
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if got.ID != entry.ID || got.DocType != model.Grant || got.KindCode == nil || *got.KindCode != "B2" {
		t.Errorf("Lookup result = %+v", got)
	}
}
