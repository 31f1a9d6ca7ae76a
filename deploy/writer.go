package deploy

import (
	"context"
	"sort"
	"sync"

	"github.com/mwantia/webproducer/diff"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/storage"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of parallel destination writes.
const DefaultConcurrency = 8

// Report lists what a deploy wrote.
type Report struct {
	Created []string
	Updated []string
	Written int
	Bytes   int64
}

// InvalidationPaths returns the updated paths in the root-relative form a
// CDN expects. Created paths were never cached and are left out.
func (r *Report) InvalidationPaths() []string {
	if r == nil {
		return nil
	}

	paths := make([]string, 0, len(r.Updated))
	for _, relative := range r.Updated {
		paths = append(paths, "/"+relative)
	}

	return paths
}

// Writer persists classified changes to the destination.
type Writer struct {
	logger      *log.Logger
	destination storage.Adapter
	concurrency int
}

type WriterOption func(*Writer)

func WithConcurrency(concurrency int) WriterOption {
	return func(w *Writer) {
		if concurrency > 0 {
			w.concurrency = concurrency
		}
	}
}

func NewWriter(destination storage.Adapter, logger *log.Logger, opts ...WriterOption) *Writer {
	if logger == nil {
		logger = log.NewDiscard()
	}

	w := &Writer{
		logger:      logger.Named("deploy"),
		destination: destination,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Deploy collects every change until the channel is closed, then waits for
// upstream to report the outcome of producing, indexing and filtering. Only
// a successful upstream leads to writes, so a failed run leaves the
// destination untouched.
func (w *Writer) Deploy(ctx context.Context, changes <-chan diff.Change, upstream func() error) (*Report, error) {
	var staged []diff.Change

	for change := range changes {
		staged = append(staged, change)
	}

	if upstream != nil {
		if err := upstream(); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Parent directories before their content
	sort.SliceStable(staged, func(i, j int) bool {
		return staged[i].File.IsDirectory() && !staged[j].File.IsDirectory()
	})

	redirects := w.destination.GetCapabilities().Contains(storage.CapabilityRedirect)

	report := &Report{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, change := range staged {
		g.Go(func() error {
			if redirect := change.File.Redirect(); redirect != nil && !redirects {
				w.logger.Warn("Redirect '%s' -> '%s' written as empty file, '%s' cannot express redirects",
					change.Relative, redirect.Target, w.destination.Name())
			}

			if err := w.destination.Write(gctx, change.File); err != nil {
				return err
			}

			size, _ := change.File.Size()
			w.logger.Debug("Wrote '%s' (%s)", change.Relative, change.Classification)

			mu.Lock()
			defer mu.Unlock()

			report.Written++
			report.Bytes += size
			switch change.Classification {
			case diff.Create:
				report.Created = append(report.Created, change.Relative)
			case diff.Update:
				report.Updated = append(report.Updated, change.Relative)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	sort.Strings(report.Created)
	sort.Strings(report.Updated)

	return report, nil
}
