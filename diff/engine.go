package diff

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mwantia/webproducer/data"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/storage"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many destination entries are hashed at once.
const DefaultConcurrency = 8

// Classification is the verdict for one built file against the destination.
type Classification int

const (
	Create Classification = iota
	Update
	Unchanged
)

func (c Classification) String() string {
	switch c {
	case Create:
		return "create"
	case Update:
		return "update"
	case Unchanged:
		return "unchanged"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// Change is a file that has to be written, with its verdict.
type Change struct {
	File           *data.VirtualFile
	Relative       string
	Classification Classification
}

// Counts sums the verdicts of every classified file.
type Counts struct {
	Create    int
	Update    int
	Unchanged int
}

func (c Counts) Total() int {
	return c.Create + c.Update + c.Unchanged
}

// Engine compares built files with a destination index and forwards only
// the files that are new or changed.
type Engine struct {
	logger      *log.Logger
	destination storage.Adapter
	concurrency int

	exclude map[string]struct{}

	ready    chan struct{}
	once     sync.Once
	index    *Index
	indexErr error

	mu      sync.Mutex
	creates []string
	updates []string
	counts  Counts
	seen    map[string]struct{}
}

type EngineOption func(*Engine)

func WithConcurrency(concurrency int) EngineOption {
	return func(e *Engine) {
		if concurrency > 0 {
			e.concurrency = concurrency
		}
	}
}

// WithExclude keeps relative paths out of the stale set. They are still
// indexed and classified.
func WithExclude(relatives ...string) EngineOption {
	return func(e *Engine) {
		for _, relative := range relatives {
			e.exclude[relative] = struct{}{}
		}
	}
}

func NewEngine(destination storage.Adapter, logger *log.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = log.NewDiscard()
	}

	e := &Engine{
		logger:      logger.Named("diff"),
		destination: destination,
		concurrency: DefaultConcurrency,
		exclude:     make(map[string]struct{}),
		ready:       make(chan struct{}),
		seen:        make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// BuildIndex lists the whole destination once and hashes every file. Hashes
// supplied by the listing are only reused when the destination reports
// CapabilityTrustedHash. Filter waits for it to return.
func (e *Engine) BuildIndex(ctx context.Context) error {
	index, err := e.buildIndex(ctx)

	e.once.Do(func() {
		e.index = index
		e.indexErr = err
		close(e.ready)
	})

	return err
}

func (e *Engine) buildIndex(ctx context.Context) (*Index, error) {
	files, err := e.destination.List(ctx, nil, "", storage.WithContent(), storage.WithDirectories())
	if err != nil {
		return nil, err
	}

	trusted := e.destination.GetCapabilities().Contains(storage.CapabilityTrustedHash)
	entries := make([]IndexEntry, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			relative, err := file.Relative()
			if err != nil {
				return err
			}

			entry := IndexEntry{
				RelativePath: relative,
				IsDirectory:  file.IsDirectory(),
			}
			if !entry.IsDirectory {
				if entry.Hash, entry.Size, err = indexHash(file, trusted); err != nil {
					return fmt.Errorf("hashing destination '%s': %w", relative, err)
				}
			}

			entries[i] = entry
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("Indexed %d destination entries", len(entries))
	return newIndex(entries), nil
}

func indexHash(file *data.VirtualFile, trusted bool) (string, int64, error) {
	if trusted {
		hash, err := file.ComputeHash()
		size, _ := file.Size()
		return hash, size, err
	}

	r, err := file.Open()
	if err != nil {
		return "", 0, err
	}
	defer r.Close()

	return data.HashReader(r)
}

// Index waits for BuildIndex and returns its snapshot.
func (e *Engine) Index(ctx context.Context) (*Index, error) {
	select {
	case <-e.ready:
		return e.index, e.indexErr
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Classify hashes file and compares it with the destination entry at the
// same relative path. Directories are never hashed and always created.
// Redirects all share the empty body hash, so an existing redirect is
// always updated.
func (e *Engine) Classify(ctx context.Context, file *data.VirtualFile) (Change, error) {
	index, err := e.Index(ctx)
	if err != nil {
		return Change{}, err
	}

	relative, err := file.Relative()
	if err != nil {
		return Change{}, err
	}
	file.DefaultContentType()

	change := Change{
		File:           file,
		Relative:       relative,
		Classification: Create,
	}

	if !file.IsDirectory() {
		hash, err := file.ComputeHash()
		if err != nil {
			return Change{}, fmt.Errorf("hashing '%s': %w", relative, err)
		}

		if entry, exists := index.Get(relative); exists {
			change.Classification = Update
			if !entry.IsDirectory && !file.IsRedirect() && entry.Hash == hash {
				change.Classification = Unchanged
			}
		}
	}

	e.record(change)
	return change, nil
}

func (e *Engine) record(change Change) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seen[change.Relative] = struct{}{}

	switch change.Classification {
	case Create:
		e.counts.Create++
		e.creates = append(e.creates, change.Relative)
	case Update:
		e.counts.Update++
		e.updates = append(e.updates, change.Relative)
	case Unchanged:
		e.counts.Unchanged++
	}
}

// Filter classifies every file of in and forwards creates and updates to
// out. It does not close out.
func (e *Engine) Filter(ctx context.Context, in <-chan *data.VirtualFile, out chan<- Change) error {
	if _, err := e.Index(ctx); err != nil {
		return err
	}

	for file := range in {
		change, err := e.Classify(ctx, file)
		if err != nil {
			return err
		}

		if change.Classification == Unchanged {
			e.logger.Debug("Unchanged '%s'", change.Relative)
			continue
		}

		select {
		case out <- change:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Creates returns the relative paths classified as Create, sorted.
func (e *Engine) Creates() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return sorted(e.creates)
}

// Updates returns the relative paths classified as Update, sorted.
func (e *Engine) Updates() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return sorted(e.updates)
}

// Stale returns destination files no built file matched. Nothing deletes them.
func (e *Engine) Stale() []string {
	select {
	case <-e.ready:
	default:
		return nil
	}
	if e.index == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var stale []string
	for _, entry := range e.index.Entries() {
		if entry.IsDirectory {
			continue
		}
		if _, excluded := e.exclude[entry.RelativePath]; excluded {
			continue
		}
		if _, seen := e.seen[entry.RelativePath]; !seen {
			stale = append(stale, entry.RelativePath)
		}
	}

	return stale
}

func (e *Engine) Counts() Counts {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.counts
}

func sorted(paths []string) []string {
	result := append([]string(nil), paths...)
	sort.Strings(result)

	return result
}
