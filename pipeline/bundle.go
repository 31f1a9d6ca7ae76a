package pipeline

import (
	"context"
	"strings"

	"github.com/mwantia/webproducer/data"
	"github.com/mwantia/webproducer/log"
)

// BundleProducer runs the bundler over a fixed set of entry points and emits
// every output artifact.
type BundleProducer struct {
	logger *log.Logger
	name   string

	entryPoints []string
	bundler     Bundler
	prefixer    Prefixer
}

// NewScriptsProducer bundles javascript entry points.
func NewScriptsProducer(entryPoints []string, bundler Bundler, logger *log.Logger) *BundleProducer {
	return newBundleProducer("scripts", entryPoints, bundler, nil, logger)
}

// NewStylesheetsProducer bundles stylesheet entry points. A non-nil prefixer
// post-processes every .css output.
func NewStylesheetsProducer(entryPoints []string, bundler Bundler, prefixer Prefixer, logger *log.Logger) *BundleProducer {
	return newBundleProducer("stylesheets", entryPoints, bundler, prefixer, logger)
}

func newBundleProducer(name string, entryPoints []string, bundler Bundler, prefixer Prefixer, logger *log.Logger) *BundleProducer {
	if logger == nil {
		logger = log.NewDiscard()
	}

	return &BundleProducer{
		logger:      logger.Named(name),
		name:        name,
		entryPoints: entryPoints,
		bundler:     bundler,
		prefixer:    prefixer,
	}
}

func (bp *BundleProducer) Name() string {
	return bp.name
}

func (bp *BundleProducer) Produce(ctx context.Context, out chan<- *data.VirtualFile) error {
	if len(bp.entryPoints) == 0 {
		bp.logger.Debug("No entry points, nothing to bundle")
		return nil
	}

	artifacts, err := bp.bundler.Bundle(ctx, bp.entryPoints)
	if err != nil {
		return err
	}

	for _, artifact := range artifacts {
		contents := artifact.Contents
		if bp.prefixer != nil && strings.HasSuffix(artifact.Path, ".css") {
			if contents, err = bp.prefixer.Prefix(ctx, contents); err != nil {
				return err
			}
		}

		file, err := data.NewVirtualFile(artifact.Path, data.WithContent(contents))
		if err != nil {
			return err
		}

		if err := Emit(ctx, out, file); err != nil {
			return err
		}
	}

	bp.logger.Debug("Bundled %d entry points into %d files", len(bp.entryPoints), len(artifacts))
	return nil
}
