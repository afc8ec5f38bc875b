// Command index-arxiv walks an arXiv bulk-tar tree and updates the
// corresponding manifest database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/paperlake/paperlake/indexpipeline"
	"github.com/paperlake/paperlake/internal/obslog"
	"github.com/paperlake/paperlake/manifest"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("index-arxiv", flag.ExitOnError)
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: index-arxiv <root> [flags]\n\n")
		fs.PrintDefaults()
	}
	dbPath := fs.String("db-path", "arxiv-manifest.db", "path to the arXiv manifest database")
	singleFile := fs.String("single-file", "", "scan a single archive instead of walking root")
	workers := fs.Int("workers", 0, "worker pool size (0: cpu_count - 1)")
	verbose := fs.Bool("v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}
	root := fs.Arg(0)

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	ctx := obslog.WithHandler(context.Background(), handler)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := manifest.OpenArxiv(ctx, *dbPath)
	if err != nil {
		obslog.FromContext(ctx).Error("opening manifest failed", "error", err)
		return 1
	}
	defer store.Close()

	pipeline := &indexpipeline.ArxivPipeline{
		Store:   store,
		Root:    root,
		Workers: *workers,
		Progress: func(p indexpipeline.Progress) {
			obslog.FromContext(ctx).Info("progress",
				"files_done", p.FilesDone,
				"files_total", p.FilesTotal,
				"entries_added", p.EntriesAdded,
				"files_failed", p.FilesFailed,
				"elapsed", p.Elapsed,
				"eta", p.ETA)
		},
	}

	summary, err := pipeline.Run(ctx, *singleFile)
	if err != nil {
		obslog.FromContext(ctx).Error("indexing run failed", "error", err)
		return 1
	}

	obslog.FromContext(ctx).Info("indexing run complete",
		"files_total", summary.FilesTotal,
		"files_skipped", summary.FilesSkipped,
		"files_processed", summary.FilesProcessed,
		"files_failed", summary.FilesFailed,
		"entries_added", summary.EntriesAdded,
		"elapsed", summary.Elapsed)

	if summary.FilesFailed > 0 {
		return 1
	}
	return 0
}
