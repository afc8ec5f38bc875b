package retrieval

import (
	"context"
	"testing"

	"github.com/paperlake/paperlake/contenttype"
	"github.com/paperlake/paperlake/model"
)

func TestInfoReportsLocalAvailability(t *testing.T) {
	ctx := context.Background()
	e, root := newTestArxivEngine(t)

	off, size := writeTarFixture(t, root, 2015, "2015/arXiv_pdf_1501_001.tar", "1501.00963.pdf", "%PDF-fake12b")
	entry := model.ArxivEntry{ID: "1501.00963", ArchiveFile: "2015/arXiv_pdf_1501_001.tar", Offset: off, Size: size, DocClass: contenttype.PDF, Year: 2015}
	if err := e.Store.UpsertEntries(ctx, nil, []model.ArxivEntry{entry}); err != nil {
		t.Fatal(err)
	}

	info, failure := e.Info(ctx, "1501.00963")
	if failure != nil {
		t.Fatalf("Info failed: %v", failure)
	}
	if !info.Found || !info.LocallyAvailable || info.Source != "manifest" {
		t.Fatalf("Info = %+v", info)
	}
}

func TestInfoUnknownIDNotFound(t *testing.T) {
	e, _ := newTestArxivEngine(t)
	info, failure := e.Info(context.Background(), "9999.99999")
	if failure != nil {
		t.Fatalf("Info failed: %v", failure)
	}
	if info.Found {
		t.Fatalf("Info = %+v, want not found", info)
	}
}

func TestRandomPaperLocalOnlyExcludesMissingArchives(t *testing.T) {
	ctx := context.Background()
	e, root := newTestArxivEngine(t)

	off, size := writeTarFixture(t, root, 2015, "2015/arXiv_pdf_1501_001.tar", "1501.00963.pdf", "%PDF-fake")
	onDisk := model.ArxivEntry{ID: "1501.00963", ArchiveFile: "2015/arXiv_pdf_1501_001.tar", Offset: off, Size: size, DocClass: contenttype.PDF, Year: 2015}
	missing := model.ArxivEntry{ID: "1502.00001", ArchiveFile: "2015/does_not_exist.tar", Offset: 0, Size: 10, DocClass: contenttype.PDF, Year: 2015}
	if err := e.Store.UpsertEntries(ctx, nil, []model.ArxivEntry{onDisk, missing}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		entry, found, err := e.RandomPaper(ctx, "", "", true)
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected a candidate")
		}
		if entry.ID != "1501.00963" {
			t.Fatalf("RandomPaper returned %q, want the only on-disk entry", entry.ID)
		}
	}
}
