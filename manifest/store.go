// Package manifest implements the SQLite-backed manifest: the
// mapping from canonical document IDs to their archive location, and
// the bulk-file processed-tracking table the indexing pipeline
// consults to skip unchanged archives.
//
// Each corpus (arXiv, USPTO) gets its own manifest file; [Open] picks
// the document table to create from the requested [Corpus].
package manifest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v8"
	_ "github.com/doug-martin/goqu/v8/dialect/sqlite3"
	_ "modernc.org/sqlite"

	"github.com/paperlake/paperlake/diag"
	"github.com/paperlake/paperlake/internal/obslog"
	"github.com/paperlake/paperlake/model"
)

// Corpus selects which document table a [Store] manages.
type Corpus int

// Supported corpora.
const (
	Arxiv Corpus = iota
	Uspto
)

var dialect = goqu.Dialect("sqlite3")

// Store wraps a single manifest database. The indexing pipeline holds
// the only writer; the retrieval engine opens its own read-mostly
// handle and never writes. database/sql's own connection pool is
// sufficient for that split — no additional locking is layered on
// top, per the single-writer/many-readers contract.
type Store struct {
	db     *sql.DB
	corpus Corpus
}

// Open opens (creating if absent) the manifest at path and ensures
// its schema exists. dsn pragmas favor a single local writer: WAL
// journaling so readers are never blocked by the writer, and a busy
// timeout so a reader racing the writer's commit retries instead of
// failing outright.
func Open(ctx context.Context, path string, corpus Corpus) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, diag.SystemError(fmt.Errorf("manifest: opening %s: %w", path, err))
	}

	s := &Store{db: db, corpus: corpus}
	schema := paperSchema
	if corpus == Uspto {
		schema = patentSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, diag.SystemError(fmt.Errorf("manifest: creating schema in %s: %w", path, err))
	}

	obslog.FromContext(ctx).Debug("manifest opened", "path", path, "corpus", corpus)
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// MarkProcessed idempotently upserts a bulk file's processed-file
// record. Called by the indexing pipeline's coordinator in the same
// transaction as the entries the file produced, so a reader never
// observes one without the other.
func (s *Store) MarkProcessed(ctx context.Context, tx *sql.Tx, filePath, hash string, mtime float64) error {
	q, args, err := dialect.Insert("bulk_files").
		Rows(goqu.Record{
			"file_path":     filePath,
			"file_hash":     hash,
			"last_modified": mtime,
		}).
		OnConflict(goqu.DoUpdate("file_path", goqu.Record{
			"file_hash":     hash,
			"last_modified": mtime,
			"processed_at":  goqu.L("CURRENT_TIMESTAMP"),
		})).
		Prepared(true).ToSQL()
	if err != nil {
		return diag.SystemError(fmt.Errorf("manifest: building mark_processed query: %w", err))
	}
	exec := dbExecer(tx, s.db)
	if _, err := exec.ExecContext(ctx, q, args...); err != nil {
		return diag.DatabaseError(fmt.Errorf("manifest: mark_processed(%s): %w", filePath, err))
	}
	return nil
}

// IsProcessed returns the stored bulk-file record for filePath, or
// ok=false if the indexing pipeline has never recorded it.
func (s *Store) IsProcessed(ctx context.Context, filePath string) (rec model.BulkFileRecord, ok bool, err error) {
	q, args, buildErr := dialect.From("bulk_files").
		Select("file_path", "file_hash", "last_modified", "processed_at").
		Where(goqu.Ex{"file_path": filePath}).
		Prepared(true).ToSQL()
	if buildErr != nil {
		return rec, false, diag.SystemError(fmt.Errorf("manifest: building is_processed query: %w", buildErr))
	}
	row := s.db.QueryRowContext(ctx, q, args...)
	if err := row.Scan(&rec.FilePath, &rec.FileHash, &rec.LastModified, &rec.ProcessedAt); err != nil {
		if err == sql.ErrNoRows {
			return rec, false, nil
		}
		return rec, false, diag.DatabaseError(fmt.Errorf("manifest: is_processed(%s): %w", filePath, err))
	}
	return rec, true, nil
}

// BeginWrite starts the single transaction a coordinator batch uses
// to upsert entries and mark the owning bulk file processed together.
func (s *Store) BeginWrite(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, diag.DatabaseError(fmt.Errorf("manifest: beginning write transaction: %w", err))
	}
	return tx, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func dbExecer(tx *sql.Tx, db *sql.DB) execer {
	if tx != nil {
		return tx
	}
	return db
}
