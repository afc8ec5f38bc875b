package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"

	"github.com/doug-martin/goqu/v8"

	"github.com/paperlake/paperlake/contenttype"
	"github.com/paperlake/paperlake/diag"
	"github.com/paperlake/paperlake/model"
)

// ArxivStore is a manifest opened against the paper_index table.
type ArxivStore struct{ *Store }

// OpenArxiv opens (or creates) the arXiv manifest at path.
func OpenArxiv(ctx context.Context, path string) (*ArxivStore, error) {
	s, err := Open(ctx, path, Arxiv)
	if err != nil {
		return nil, err
	}
	return &ArxivStore{s}, nil
}

var arxivColumns = []any{
	"paper_id", "archive_file", "offset", "size", "file_type", "year",
	"categories", "title", "authors", "abstract", "doi", "journal_ref",
	"comments", "submitter", "report_no", "versions",
}

// Lookup fetches a single entry by its canonical ID.
func (s *ArxivStore) Lookup(ctx context.Context, id string) (model.ArxivEntry, bool, error) {
	q, args, err := dialect.From("paper_index").
		Select(arxivColumns...).
		Where(goqu.Ex{"paper_id": id}).
		Prepared(true).ToSQL()
	if err != nil {
		return model.ArxivEntry{}, false, diag.SystemError(fmt.Errorf("manifest: building lookup query: %w", err))
	}
	row := s.db.QueryRowContext(ctx, q, args...)
	e, err := scanArxivEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.ArxivEntry{}, false, nil
		}
		return model.ArxivEntry{}, false, diag.DatabaseError(fmt.Errorf("manifest: lookup(%s): %w", id, err))
	}
	return e, true, nil
}

// scanRow is satisfied by both *sql.Row and *sql.Rows.
type scanRow interface {
	Scan(dest ...any) error
}

func scanArxivEntry(row scanRow) (model.ArxivEntry, error) {
	var e model.ArxivEntry
	var fileType string
	if err := row.Scan(
		&e.ID, &e.ArchiveFile, &e.Offset, &e.Size, &fileType, &e.Year,
		&e.Categories, &e.Title, &e.Authors, &e.Abstract, &e.DOI, &e.JournalRef,
		&e.Comments, &e.Submitter, &e.ReportNo, &e.Versions,
	); err != nil {
		return model.ArxivEntry{}, err
	}
	e.DocClass = contenttype.Class(fileType)
	return e, nil
}

// UpsertEntries commits batch as a single all-or-nothing insert-or-
// replace. Passing an already-open tx folds the write into the
// caller's transaction (the indexing pipeline's coordinator uses this
// to commit entries and the owning bulk-file record together);
// passing nil runs it as its own transaction.
func (s *ArxivStore) UpsertEntries(ctx context.Context, tx *sql.Tx, batch []model.ArxivEntry) error {
	if len(batch) == 0 {
		return nil
	}
	owned := false
	if tx == nil {
		var err error
		tx, err = s.BeginWrite(ctx)
		if err != nil {
			return err
		}
		owned = true
	}

	updateCols := goqu.Record{
		"archive_file": goqu.L("excluded.archive_file"),
		"offset":       goqu.L("excluded.offset"),
		"size":         goqu.L("excluded.size"),
		"file_type":    goqu.L("excluded.file_type"),
		"year":         goqu.L("excluded.year"),
	}

	for _, e := range batch {
		q, args, err := dialect.Insert("paper_index").
			Rows(goqu.Record{
				"paper_id":     e.ID,
				"archive_file": e.ArchiveFile,
				"offset":       e.Offset,
				"size":         e.Size,
				"file_type":    string(e.DocClass),
				"year":         e.Year,
				"categories":   e.Categories,
				"title":        e.Title,
				"authors":      e.Authors,
				"abstract":     e.Abstract,
				"doi":          e.DOI,
				"journal_ref":  e.JournalRef,
				"comments":     e.Comments,
				"submitter":    e.Submitter,
				"report_no":    e.ReportNo,
				"versions":     e.Versions,
			}).
			OnConflict(goqu.DoUpdate("paper_id", updateCols)).
			Prepared(true).ToSQL()
		if err != nil {
			if owned {
				tx.Rollback()
			}
			return diag.SystemError(fmt.Errorf("manifest: building upsert query: %w", err))
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			if owned {
				tx.Rollback()
			}
			return diag.DatabaseError(fmt.Errorf("manifest: upsert_entries(%s): %w", e.ID, err))
		}
	}

	if owned {
		if err := tx.Commit(); err != nil {
			return diag.DatabaseError(fmt.Errorf("manifest: committing upsert_entries: %w", err))
		}
	}
	return nil
}

// FindSimilar is the fuzzy fallback diagnostics uses to suggest IDs
// when a lookup fails outright: a LIKE prefix scan capped at 5 rows.
func (s *ArxivStore) FindSimilar(ctx context.Context, prefix string) ([]string, error) {
	q, args, err := dialect.From("paper_index").
		Select("paper_id").
		Where(goqu.C("paper_id").Like(prefix + "%")).
		Limit(5).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, diag.SystemError(fmt.Errorf("manifest: building find_similar query: %w", err))
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, diag.DatabaseError(fmt.Errorf("manifest: find_similar(%s): %w", prefix, err))
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, diag.DatabaseError(fmt.Errorf("manifest: scanning find_similar row: %w", err))
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RandomFilter narrows [ArxivStore.RandomEntry]'s candidate set.
type RandomFilter struct {
	Format          contenttype.Class // zero value: no format filter
	CategoryPrefix  string            // matched against paper_id prefix or the categories column
	ExistingArchive func(archiveFile string) bool
}

// RandomEntry selects one entry uniformly at random from the rows
// matching filter. Without an ExistingArchive predicate it runs
// `ORDER BY RANDOM() LIMIT 1`; with one, it streams every matching row
// and reservoir-samples among those whose archive the predicate
// accepts.
func (s *ArxivStore) RandomEntry(ctx context.Context, filter RandomFilter) (model.ArxivEntry, bool, error) {
	ds := dialect.From("paper_index").Select(arxivColumns...)
	if filter.Format != "" {
		ds = ds.Where(goqu.Ex{"file_type": string(filter.Format)})
	}
	if filter.CategoryPrefix != "" {
		ds = ds.Where(goqu.Or(
			goqu.C("paper_id").Like(filter.CategoryPrefix+"%"),
			goqu.C("categories").Like("%"+filter.CategoryPrefix+"%"),
		))
	}

	if filter.ExistingArchive == nil {
		q, args, err := ds.Order(goqu.L("RANDOM()").Asc()).Limit(1).Prepared(true).ToSQL()
		if err != nil {
			return model.ArxivEntry{}, false, diag.SystemError(fmt.Errorf("manifest: building random_entry query: %w", err))
		}
		row := s.db.QueryRowContext(ctx, q, args...)
		e, err := scanArxivEntry(row)
		if err != nil {
			if err == sql.ErrNoRows {
				return model.ArxivEntry{}, false, nil
			}
			return model.ArxivEntry{}, false, diag.DatabaseError(fmt.Errorf("manifest: random_entry: %w", err))
		}
		return e, true, nil
	}

	// local_only: the manifest doesn't track archive presence, so this
	// predicate must be applied in memory against the filesystem. A
	// reservoir sample over a streamed cursor keeps this at O(1) extra
	// memory regardless of how many rows match.
	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return model.ArxivEntry{}, false, diag.SystemError(fmt.Errorf("manifest: building random_entry query: %w", err))
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return model.ArxivEntry{}, false, diag.DatabaseError(fmt.Errorf("manifest: random_entry: %w", err))
	}
	defer rows.Close()

	var chosen model.ArxivEntry
	var found bool
	var seen int
	for rows.Next() {
		e, err := scanArxivEntry(rows)
		if err != nil {
			return model.ArxivEntry{}, false, diag.DatabaseError(fmt.Errorf("manifest: scanning random_entry row: %w", err))
		}
		if !filter.ExistingArchive(e.ArchiveFile) {
			continue
		}
		seen++
		if rand.IntN(seen) == 0 {
			chosen, found = e, true
		}
	}
	if err := rows.Err(); err != nil {
		return model.ArxivEntry{}, false, diag.DatabaseError(fmt.Errorf("manifest: iterating random_entry rows: %w", err))
	}
	return chosen, found, nil
}
