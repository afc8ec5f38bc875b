package indexpipeline

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/paperlake/paperlake/internal/obslog"
	"github.com/paperlake/paperlake/manifest"
	"github.com/paperlake/paperlake/model"
	"github.com/paperlake/paperlake/scanner"
)

// PatentPipeline walks a USPTO bulk-zip tree and keeps a
// [manifest.PatentStore] in sync with it. Structurally identical to
// [ArxivPipeline] — see its doc comment for the phase breakdown — with
// zip scanning in place of tar and no year bookkeeping.
type PatentPipeline struct {
	Store    *manifest.PatentStore
	Root     string
	Workers  int
	Progress ProgressFunc
}

type usptoJob struct {
	candidate
	known bool
	rec   model.BulkFileRecord
}

type usptoOutcome struct {
	usptoJob
	result scanner.ZipResult
}

func (p *PatentPipeline) Run(ctx context.Context, singleFile string) (Summary, error) {
	runID := uuid.New()
	log := obslog.FromContext(ctx).With("run_id", runID.String(), "corpus", "uspto")
	start := time.Now()

	var candidates []candidate
	if singleFile != "" {
		c, err := singleUsptoCandidate(p.Root, singleFile)
		if err != nil {
			return Summary{}, err
		}
		candidates = []candidate{c}
	} else {
		var err error
		candidates, err = enumerateUspto(p.Root)
		if err != nil {
			return Summary{}, err
		}
	}
	log.Debug("indexpipeline: enumeration complete", "candidates", len(candidates))

	jobs := make([]usptoJob, 0, len(candidates))
	skipped := 0
	for _, c := range candidates {
		rec, known, err := p.Store.IsProcessed(ctx, c.ArchiveFile)
		if err != nil {
			return Summary{}, err
		}
		if stat, statErr := os.Stat(c.AbsPath); statErr == nil && known {
			mtime := float64(stat.ModTime().UnixNano()) / 1e9
			if rec.LastModified == mtime {
				skipped++
				continue
			}
		}
		jobs = append(jobs, usptoJob{candidate: c, known: known, rec: rec})
	}

	workers := p.Workers
	if workers < 1 {
		workers = max(1, runtime.NumCPU()-1)
	}
	sem := semaphore.NewWeighted(int64(workers))
	g, gctx := errgroup.WithContext(ctx)
	results := make(chan usptoOutcome, len(jobs))

	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			timer := prometheus.NewTimer(scanDuration.WithLabelValues("uspto"))
			res := scanner.ScanZip(j.AbsPath, j.ArchiveFile)
			timer.ObserveDuration()

			select {
			case results <- usptoOutcome{usptoJob: j, result: res}:
			case <-gctx.Done():
				return gctx.Err()
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	summary := Summary{FilesTotal: len(candidates), FilesSkipped: skipped}
	done := skipped
	for outcome := range results {
		done++
		if err := p.ingest(ctx, outcome, &summary, log); err != nil {
			return summary, err
		}
		if p.Progress != nil {
			elapsed := time.Since(start)
			p.Progress(Progress{
				FilesDone:    done,
				FilesTotal:   summary.FilesTotal,
				EntriesAdded: summary.EntriesAdded,
				FilesFailed:  summary.FilesFailed,
				Elapsed:      elapsed,
				ETA:          estimateETA(elapsed, done, summary.FilesTotal),
			})
		}
	}

	summary.Elapsed = time.Since(start)
	log.Debug("indexpipeline: run complete",
		"files_processed", summary.FilesProcessed,
		"files_failed", summary.FilesFailed,
		"entries_added", summary.EntriesAdded,
		"elapsed", summary.Elapsed)
	return summary, nil
}

func (p *PatentPipeline) ingest(ctx context.Context, outcome usptoOutcome, summary *Summary, log interface {
	Warn(string, ...any)
}) error {
	if outcome.result.Err != nil {
		filesScanned.WithLabelValues("uspto", "error").Inc()
		summary.FilesFailed++
		log.Warn("indexpipeline: scan failed", "archive_file", outcome.ArchiveFile, "error", outcome.result.Err)
		return nil
	}

	if outcome.result.Skipped > 0 {
		log.Warn("indexpipeline: skipped unparsable documents", "archive_file", outcome.ArchiveFile, "skipped", outcome.result.Skipped)
	}

	if outcome.known && outcome.rec.FileHash == outcome.result.Hash {
		filesScanned.WithLabelValues("uspto", "unchanged").Inc()
		if err := p.Store.MarkProcessed(ctx, nil, outcome.ArchiveFile, outcome.result.Hash, outcome.result.Mtime); err != nil {
			return fmt.Errorf("indexpipeline: refreshing mtime for %s: %w", outcome.ArchiveFile, err)
		}
		summary.FilesProcessed++
		return nil
	}

	tx, err := p.Store.BeginWrite(ctx)
	if err != nil {
		return fmt.Errorf("indexpipeline: beginning write for %s: %w", outcome.ArchiveFile, err)
	}
	if err := p.Store.UpsertEntries(ctx, tx, outcome.result.Entries); err != nil {
		tx.Rollback()
		return fmt.Errorf("indexpipeline: upserting entries for %s: %w", outcome.ArchiveFile, err)
	}
	if err := p.Store.MarkProcessed(ctx, tx, outcome.ArchiveFile, outcome.result.Hash, outcome.result.Mtime); err != nil {
		tx.Rollback()
		return fmt.Errorf("indexpipeline: marking %s processed: %w", outcome.ArchiveFile, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("indexpipeline: committing %s: %w", outcome.ArchiveFile, err)
	}

	filesScanned.WithLabelValues("uspto", "ok").Inc()
	entriesAdded.WithLabelValues("uspto").Add(float64(len(outcome.result.Entries)))
	summary.FilesProcessed++
	summary.EntriesAdded += len(outcome.result.Entries)
	return nil
}
