package tasks

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"github.com/desertthunder/anitrack/internal/formatter"
	"github.com/desertthunder/anitrack/internal/models"
	"github.com/desertthunder/anitrack/internal/shared"
)

// CoverOpts contains configuration for bulk cover downloads.
type CoverOpts struct {
	Dir        string       // Output directory (default: covers)
	NumWorkers int          // Concurrent workers (default: 3, max 10)
	RateLimit  float64      // Downloads per second (default: 3)
	Fs         afero.Fs     // Target filesystem (default: OS)
	HTTPClient *http.Client // Image client (default: 30s timeout)
}

// CoverResult summarizes a bulk cover download.
type CoverResult struct {
	Total        int               `json:"total"`
	Saved        int               `json:"saved"`
	Failed       int               `json:"failed"`
	Directory    string            `json:"directory"`
	Files        map[string]string `json:"files"`            // entry id -> saved path
	Errors       map[string]string `json:"errors,omitempty"` // entry id -> failure
	ManifestPath string            `json:"-"`
}

type coverJob struct {
	entry *models.WatchEntry
}

type coverOutcome struct {
	entry *models.WatchEntry
	path  string
	err   error
}

// DownloadCovers saves the cover image of every entry that has one, using a rate limited worker pool.
//
// Partial failures are recorded in the result. A manifest.json summarizing the run is written to the directory.
func (e *WatchEngine) DownloadCovers(ctx context.Context, prog chan<- ProgressUpdate, entries []*models.WatchEntry, opts CoverOpts) (*CoverResult, error) {
	if opts.Dir == "" {
		opts.Dir = "covers"
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 3.0
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	if err := opts.Fs.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var withCovers []*models.WatchEntry
	for _, entry := range entries {
		if entry.Image() != "" {
			withCovers = append(withCovers, entry)
		}
	}

	result := &CoverResult{
		Total:     len(withCovers),
		Directory: opts.Dir,
		Files:     make(map[string]string, len(withCovers)),
		Errors:    make(map[string]string),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan coverJob, len(withCovers))
	results := make(chan coverOutcome, len(withCovers))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.coverWorker(ctx, &wg, limiter, jobs, results, opts)
	}

	for _, entry := range withCovers {
		jobs <- coverJob{entry: entry}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.err != nil {
			result.Failed++
			result.Errors[res.entry.ID()] = res.err.Error()
			e.sendProgress(prog, coverFailedUpdate(completed, result.Total, res.entry, res.err))
			continue
		}
		result.Saved++
		result.Files[res.entry.ID()] = res.path
		e.sendProgress(prog, coverSavedUpdate(completed, result.Total, res.entry, res.path))
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.Dir, "manifest.json")
	if err := formatter.WriteManifest(opts.Fs, result, manifestPath); err != nil {
		return result, fmt.Errorf("covers saved but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// coverWorker downloads covers from the jobs channel until it closes or ctx is done.
func (e *WatchEngine) coverWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan coverJob,
	results chan<- coverOutcome,
	opts CoverOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		path, err := formatter.SaveCover(ctx, opts.Fs, opts.HTTPClient, job.entry.Image(), opts.Dir, job.entry.ID())
		if err != nil {
			e.logger.Warn("cover download failed", "title", job.entry.Title(), "error", err)
		}
		results <- coverOutcome{entry: job.entry, path: path, err: err}
	}
}

// ExportOpts contains configuration for watch list exports.
type ExportOpts struct {
	Format     string       // json, csv, markdown, txt
	Path       string       // Output file (default: watchlist_{user}{ext})
	Covers     bool         // Also download cover images next to the export
	Status     string       // Optional status filter
	Fs         afero.Fs     // Target filesystem (default: OS)
	HTTPClient *http.Client // Image client for covers
}

// ExportResult reports where an export was written.
type ExportResult struct {
	Path    string
	Entries int
	Covers  *CoverResult
}

// Export writes a user's watch list. With Covers set, images are saved in a covers directory beside the
// export and referenced from it.
func (e *WatchEngine) Export(ctx context.Context, progress chan<- ProgressUpdate, userID string, opts ExportOpts) (*ExportResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: tracker not initialized", shared.ErrServiceUnavailable)
	}
	format, err := formatter.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	entries, err := e.store.List(map[string]any{"user_id": userID, "status": opts.Status})
	if err != nil {
		return nil, fmt.Errorf("failed to list watch entries: %w", err)
	}
	e.sendProgress(progress, fetchWatchlistUpdate(len(entries)))

	export := &formatter.WatchlistExport{UserID: userID, ExportedAt: e.clock.Now(), Entries: entries}
	result := &ExportResult{Entries: len(entries)}

	if opts.Covers {
		base := filepath.Dir(opts.Path)
		covers, err := e.DownloadCovers(ctx, progress, entries, CoverOpts{
			Dir:        filepath.Join(base, "covers"),
			Fs:         opts.Fs,
			HTTPClient: opts.HTTPClient,
		})
		if err != nil {
			return nil, err
		}
		result.Covers = covers
		export.Covers = make(map[string]string, len(covers.Files))
		for id, path := range covers.Files {
			if rel, err := filepath.Rel(base, path); err == nil {
				export.Covers[id] = filepath.ToSlash(rel)
			}
		}
	}

	path, err := formatter.WriteExport(opts.Fs, export, format, opts.Path)
	if err != nil {
		return nil, err
	}
	result.Path = path
	e.sendProgress(progress, exportWrittenUpdate(path))
	return result, nil
}
