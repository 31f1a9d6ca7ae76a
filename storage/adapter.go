package storage

import (
	"context"

	"github.com/mwantia/webproducer/data"
)

// Adapter lists, reads and writes VirtualFiles against one concrete backend.
// Keys are slash separated and relative to the root the adapter was created with.
type Adapter interface {
	// Returns the identifier name defined for this adapter
	Name() string
	// Open is part of the lifecycle behaviour and verifies the backend is reachable.
	Open(ctx context.Context) error
	// Close is part of the lifecycle behaviour and releases held resources.
	Close(ctx context.Context) error

	// List enumerates entries under prefix whose key matches any of globs.
	// An empty globs slice matches every entry. Returned files use "/" as base,
	// so Relative() yields the key.
	List(ctx context.Context, globs []string, prefix string, opts ...ListOption) ([]*data.VirtualFile, error)
	// Read fetches the full content of the entry at relative.
	Read(ctx context.Context, relative string) (*data.VirtualFile, error)
	// Write persists one file at its relative path.
	Write(ctx context.Context, file *data.VirtualFile) error

	// GetCapabilities returns a list of capabilities supported by this adapter.
	GetCapabilities() *Capabilities
}

type ListOptions struct {
	// Content attaches lazily opened content to every listed file.
	Content bool
	// Directories includes directory entries in the result.
	Directories bool
}

type ListOption func(*ListOptions)

func WithContent() ListOption {
	return func(opts *ListOptions) {
		opts.Content = true
	}
}

func WithDirectories() ListOption {
	return func(opts *ListOptions) {
		opts.Directories = true
	}
}

func NewListOptions(opts ...ListOption) *ListOptions {
	options := &ListOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}
