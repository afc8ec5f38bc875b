package retrieval

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/paperlake/paperlake/cache"
	"github.com/paperlake/paperlake/config"
	"github.com/paperlake/paperlake/diag"
	"github.com/paperlake/paperlake/manifest"
)

// NewArxivEngine validates cfg, opens the manifest and cache, and wires
// up whichever upstream/origin tiers cfg enables. Validation runs
// before any I/O that could fail more confusingly later: a missing
// manifest file or archive root is reported here, by name, rather than
// surfacing as a bare "no such file" from the first lookup.
func NewArxivEngine(ctx context.Context, cfg config.Config) (*ArxivEngine, *diag.Failure) {
	if cfg.IndexDBPath == "" {
		return nil, diag.SystemError(errors.New("INDEX_DB_PATH not configured"))
	}
	if cfg.TarDirPath == "" {
		return nil, diag.SystemError(errors.New("TAR_DIR_PATH not configured"))
	}
	if _, err := os.Stat(cfg.IndexDBPath); err != nil {
		return nil, diag.SystemError(errors.New("manifest database not found: " + cfg.IndexDBPath))
	}
	if err := checkYearDirs(cfg.TarDirPath); err != nil {
		return nil, diag.SystemError(err)
	}

	store, err := manifest.OpenArxiv(ctx, cfg.IndexDBPath)
	if err != nil {
		return nil, diag.DatabaseError(err)
	}

	e := &ArxivEngine{Store: store, ArchiveRoot: cfg.TarDirPath}

	if cfg.CacheDirPath != "" {
		c, err := cache.Open(cfg.CacheDirPath, cfg.CacheMaxSizeBytes())
		if err != nil {
			return nil, diag.SystemError(err)
		}
		e.Cache = c
	}
	if cfg.UpstreamEnabled && cfg.UpstreamServerURL != "" {
		e.Upstream = UpstreamTier{
			Client:  &http.Client{Timeout: cfg.UpstreamTimeout},
			BaseURL: cfg.UpstreamServerURL,
			Timeout: cfg.UpstreamTimeout,
		}
	}
	if cfg.ArxivFallbackEnabled {
		e.Origin = NewArxivOriginTier(&http.Client{Timeout: cfg.ArxivTimeout}, cfg.ArxivTimeout, originRequestInterval)
	}
	return e, nil
}

// NewPatentEngine is [NewArxivEngine]'s USPTO analogue. The year-
// subdirectory check is arXiv-specific (spec.md's bulk-file layout
// convention has no USPTO equivalent), so only the manifest and
// archive-root existence checks carry over.
func NewPatentEngine(ctx context.Context, cfg config.Config) (*PatentEngine, *diag.Failure) {
	if cfg.PatentIndexDBPath == "" {
		return nil, diag.SystemError(errors.New("PATENT_INDEX_DB_PATH not configured"))
	}
	if cfg.PatentBulkDirPath == "" {
		return nil, diag.SystemError(errors.New("PATENT_BULK_DIR_PATH not configured"))
	}
	if _, err := os.Stat(cfg.PatentIndexDBPath); err != nil {
		return nil, diag.SystemError(errors.New("manifest database not found: " + cfg.PatentIndexDBPath))
	}
	if _, err := os.Stat(cfg.PatentBulkDirPath); err != nil {
		return nil, diag.SystemError(errors.New("root directory not found: " + cfg.PatentBulkDirPath))
	}

	store, err := manifest.OpenUspto(ctx, cfg.PatentIndexDBPath)
	if err != nil {
		return nil, diag.DatabaseError(err)
	}

	e := &PatentEngine{Store: store, ArchiveRoot: cfg.PatentBulkDirPath}

	if cfg.CacheDirPath != "" {
		c, err := cache.Open(cfg.CacheDirPath, cfg.CacheMaxSizeBytes())
		if err != nil {
			return nil, diag.SystemError(err)
		}
		e.Cache = c
	}
	if cfg.UpstreamEnabled && cfg.UpstreamServerURL != "" {
		e.Upstream = UpstreamTier{
			Client:  &http.Client{Timeout: cfg.UpstreamTimeout},
			BaseURL: cfg.UpstreamServerURL,
			Timeout: cfg.UpstreamTimeout,
		}
	}
	return e, nil
}

// originRequestInterval spaces direct arxiv.org requests a second
// apart, matching the politeness interval arXiv's own robots policy
// asks automated clients to respect.
const originRequestInterval = time.Second

// checkYearDirs reports an error unless root contains at least one
// purely-numeric subdirectory, the signal the original implementation
// used to confirm a directory actually looks like an arXiv bulk root.
func checkYearDirs(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return errors.New("root directory not found: " + root)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if isAllDigits(entry.Name()) {
			return nil
		}
	}
	return errors.New("root directory doesn't contain expected year subdirectories: " + root)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
