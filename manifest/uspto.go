package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"

	"github.com/doug-martin/goqu/v8"

	"github.com/paperlake/paperlake/diag"
	"github.com/paperlake/paperlake/model"
)

// PatentStore is a manifest opened against the patent_index table.
type PatentStore struct{ *Store }

// OpenUspto opens (or creates) the USPTO manifest at path.
func OpenUspto(ctx context.Context, path string) (*PatentStore, error) {
	s, err := Open(ctx, path, Uspto)
	if err != nil {
		return nil, err
	}
	return &PatentStore{s}, nil
}

var patentColumns = []any{
	"patent_id", "archive_file", "offset", "size", "doc_type", "kind_code", "year",
}

func scanPatentEntry(row scanRow) (model.PatentEntry, error) {
	var e model.PatentEntry
	var docType string
	if err := row.Scan(&e.ID, &e.ArchiveFile, &e.Offset, &e.Size, &docType, &e.KindCode, &e.Year); err != nil {
		return model.PatentEntry{}, err
	}
	e.DocType = model.DocType(docType)
	return e, nil
}

// Lookup fetches a single entry by its canonical ID.
func (s *PatentStore) Lookup(ctx context.Context, id string) (model.PatentEntry, bool, error) {
	q, args, err := dialect.From("patent_index").
		Select(patentColumns...).
		Where(goqu.Ex{"patent_id": id}).
		Prepared(true).ToSQL()
	if err != nil {
		return model.PatentEntry{}, false, diag.SystemError(fmt.Errorf("manifest: building lookup query: %w", err))
	}
	row := s.db.QueryRowContext(ctx, q, args...)
	e, err := scanPatentEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.PatentEntry{}, false, nil
		}
		return model.PatentEntry{}, false, diag.DatabaseError(fmt.Errorf("manifest: lookup(%s): %w", id, err))
	}
	return e, true, nil
}

// UpsertEntries commits batch as a single all-or-nothing insert-or-
// replace, matching [ArxivStore.UpsertEntries]'s transaction contract.
func (s *PatentStore) UpsertEntries(ctx context.Context, tx *sql.Tx, batch []model.PatentEntry) error {
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
		"doc_type":     goqu.L("excluded.doc_type"),
		"kind_code":    goqu.L("excluded.kind_code"),
		"year":         goqu.L("excluded.year"),
	}

	for _, e := range batch {
		q, args, err := dialect.Insert("patent_index").
			Rows(goqu.Record{
				"patent_id":    e.ID,
				"archive_file": e.ArchiveFile,
				"offset":       e.Offset,
				"size":         e.Size,
				"doc_type":     string(e.DocType),
				"kind_code":    e.KindCode,
				"year":         e.Year,
			}).
			OnConflict(goqu.DoUpdate("patent_id", updateCols)).
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

// FindSimilar is the fuzzy fallback diagnostics uses: a LIKE prefix
// scan capped at 5 rows.
func (s *PatentStore) FindSimilar(ctx context.Context, prefix string) ([]string, error) {
	q, args, err := dialect.From("patent_index").
		Select("patent_id").
		Where(goqu.C("patent_id").Like(prefix + "%")).
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

// PatentRandomFilter narrows [PatentStore.RandomEntry]'s candidate set.
type PatentRandomFilter struct {
	DocType         model.DocType // zero value: no filter
	ExistingArchive func(archiveFile string) bool
}

// RandomEntry selects one entry uniformly at random from the rows
// matching filter, reservoir-sampling over a streamed cursor when a
// filesystem predicate is supplied (see [ArxivStore.RandomEntry]).
func (s *PatentStore) RandomEntry(ctx context.Context, filter PatentRandomFilter) (model.PatentEntry, bool, error) {
	ds := dialect.From("patent_index").Select(patentColumns...)
	if filter.DocType != "" {
		ds = ds.Where(goqu.Ex{"doc_type": string(filter.DocType)})
	}

	if filter.ExistingArchive == nil {
		q, args, err := ds.Order(goqu.L("RANDOM()").Asc()).Limit(1).Prepared(true).ToSQL()
		if err != nil {
			return model.PatentEntry{}, false, diag.SystemError(fmt.Errorf("manifest: building random_entry query: %w", err))
		}
		row := s.db.QueryRowContext(ctx, q, args...)
		e, err := scanPatentEntry(row)
		if err != nil {
			if err == sql.ErrNoRows {
				return model.PatentEntry{}, false, nil
			}
			return model.PatentEntry{}, false, diag.DatabaseError(fmt.Errorf("manifest: random_entry: %w", err))
		}
		return e, true, nil
	}

	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return model.PatentEntry{}, false, diag.SystemError(fmt.Errorf("manifest: building random_entry query: %w", err))
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return model.PatentEntry{}, false, diag.DatabaseError(fmt.Errorf("manifest: random_entry: %w", err))
	}
	defer rows.Close()

	var chosen model.PatentEntry
	var found bool
	var seen int
	for rows.Next() {
		e, err := scanPatentEntry(rows)
		if err != nil {
			return model.PatentEntry{}, false, diag.DatabaseError(fmt.Errorf("manifest: scanning random_entry row: %w", err))
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
		return model.PatentEntry{}, false, diag.DatabaseError(fmt.Errorf("manifest: iterating random_entry rows: %w", err))
	}
	return chosen, found, nil
}
