package local

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mwantia/webproducer/data"
	wperrors "github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/storage"
)

// LocalAdapter stores files below a root directory of the local filesystem.
type LocalAdapter struct {
	mu     sync.RWMutex
	logger *log.Logger

	root    string
	options *LocalAdapterOptions
}

type LocalAdapterOptions struct {
	// CreateRoot creates the root directory on Open when it is missing.
	CreateRoot bool
	// FileMode is used for written files without stat.
	FileMode fs.FileMode
	// DirMode is used for created directories.
	DirMode fs.FileMode
}

type LocalAdapterOption func(*LocalAdapterOptions)

func WithCreateRoot() LocalAdapterOption {
	return func(opts *LocalAdapterOptions) {
		opts.CreateRoot = true
	}
}

func WithFileMode(mode fs.FileMode) LocalAdapterOption {
	return func(opts *LocalAdapterOptions) {
		opts.FileMode = mode
	}
}

func NewLocalAdapter(root string, logger *log.Logger, opts ...LocalAdapterOption) *LocalAdapter {
	options := &LocalAdapterOptions{
		FileMode: 0644,
		DirMode:  0755,
	}
	for _, opt := range opts {
		opt(options)
	}

	if logger == nil {
		logger = log.NewDiscard()
	}

	return &LocalAdapter{
		logger:  logger.Named("local"),
		root:    filepath.Clean(root),
		options: options,
	}
}

// Returns the identifier name defined for this adapter
func (*LocalAdapter) Name() string {
	return "local"
}

// Root returns the directory all keys are resolved against.
func (la *LocalAdapter) Root() string {
	return la.root
}

// Open verifies that the root directory exists, creating it when requested.
func (la *LocalAdapter) Open(ctx context.Context) error {
	la.mu.Lock()
	defer la.mu.Unlock()

	info, err := os.Stat(la.root)
	if errors.Is(err, fs.ErrNotExist) && la.options.CreateRoot {
		la.logger.Debug("Creating root directory '%s'", la.root)
		if err := os.MkdirAll(la.root, la.options.DirMode); err != nil {
			return la.mapError(err)
		}
		return nil
	}
	if err != nil {
		return la.mapError(err)
	}

	if !info.IsDir() {
		return wperrors.StorageUnavailable(wperrors.ErrNotExist, la.root)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this adapter.
func (la *LocalAdapter) Close(ctx context.Context) error {
	return nil
}

// GetCapabilities returns a list of capabilities supported by this adapter.
func (la *LocalAdapter) GetCapabilities() *storage.Capabilities {
	return storage.NewCapabilities()
}

func (la *LocalAdapter) resolvePath(key string) string {
	return filepath.Join(la.root, filepath.FromSlash(data.ToKey(key)))
}

func (la *LocalAdapter) mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return wperrors.StorageUnavailable(err, la.root)
	case errors.Is(err, fs.ErrPermission):
		return wperrors.StorageAccessDenied(err, la.root)
	default:
		return wperrors.StorageIO(err, la.root)
	}
}
