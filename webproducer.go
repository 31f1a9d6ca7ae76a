package webproducer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/mwantia/webproducer/bundle"
	"github.com/mwantia/webproducer/config"
	"github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/datasource"
	"github.com/mwantia/webproducer/deploy"
	"github.com/mwantia/webproducer/diff"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/merge"
	"github.com/mwantia/webproducer/pipeline"
	"github.com/mwantia/webproducer/render"
	"github.com/mwantia/webproducer/storage"
	"github.com/mwantia/webproducer/storage/local"
	"golang.org/x/sync/errgroup"
)

// WebProducer builds a site from templates, data and assets and deploys the
// changed files to a destination.
type WebProducer struct {
	logger  *log.Logger
	options *WebProducerOptions
}

// Params describes one run. Everything except Config is optional and
// replaces the collaborator the configuration would create.
type Params struct {
	Config      *config.Config
	Source      storage.Adapter
	Destination storage.Adapter
	Data        datasource.Source
	Invalidator deploy.Invalidator
}

// Result summarizes a finished run.
type Result struct {
	Pipeline    merge.Result
	Counts      diff.Counts
	Created     []string
	Updated     []string
	Stale       []string
	Written     int
	Invalidated []string
	Archived    int
	Duration    time.Duration
}

func New(opts ...WebProducerOption) (*WebProducer, error) {
	options := newDefaultWebProducerOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	logger := options.Logger
	if logger == nil {
		logger = log.NewLogger("webproducer", options.LogLevel, options.LogFile, options.NoTerminalLog)
		logger.JSON = options.JSONLog
	}

	return &WebProducer{
		logger:  logger,
		options: options,
	}, nil
}

// Produce runs every enabled producer, compares the merged output with the
// destination and writes what changed. Nothing is written unless producing,
// indexing and filtering all succeeded.
func (wp *WebProducer) Produce(ctx context.Context, params *Params) (*Result, error) {
	start := time.Now()

	if params == nil {
		params = &Params{}
	}
	cfg := params.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	concurrency := cfg.Concurrency
	if wp.options.Concurrency > 0 {
		concurrency = wp.options.Concurrency
	}

	source, destination, err := wp.adapters(cfg, params)
	if err != nil {
		return nil, err
	}

	if err := source.Open(ctx); err != nil {
		return nil, err
	}
	if err := destination.Open(ctx); err != nil {
		wp.close(source)
		return nil, err
	}
	defer wp.close(source, destination)

	producers, err := wp.producers(ctx, cfg, params, source)
	if err != nil {
		return nil, err
	}

	diffOpts := []diff.EngineOption{diff.WithConcurrency(concurrency)}
	if cfg.ArchiveDestination {
		// Rewritten on every run, never produced by a pipeline
		diffOpts = append(diffOpts, diff.WithExclude(deploy.ArchiveName))
	}

	differ := diff.NewEngine(destination, wp.logger, diffOpts...)
	merger := merge.NewEngine(wp.logger)
	writer := deploy.NewWriter(destination, wp.logger, deploy.WithConcurrency(concurrency))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return differ.BuildIndex(gctx)
	})

	mctx, mcancel := context.WithCancel(gctx)
	defer mcancel()

	files, err := merger.Start(mctx, producers...)
	if err != nil {
		return nil, err
	}

	var archive *deploy.Archive
	if cfg.ArchiveDestination {
		archive = deploy.NewArchive(wp.logger)
		files = archive.Tee(gctx, files)
	}

	changes := make(chan diff.Change)
	g.Go(func() error {
		defer close(changes)

		if err := differ.Filter(gctx, files, changes); err != nil {
			// Producers may still hold the source, stop and drain them first
			mcancel()
			for range files {
			}
			merger.Wait()
			return err
		}

		_, err := merger.Wait()
		return err
	})

	report, err := writer.Deploy(ctx, changes, g.Wait)
	if err != nil {
		wp.logger.Error("Deploy failed (retryable: %t): %v", errors.IsRetryable(err), err)
		return nil, err
	}

	result := &Result{
		Pipeline: merger.Result(),
		Counts:   differ.Counts(),
		Created:  report.Created,
		Updated:  report.Updated,
		Stale:    differ.Stale(),
		Written:  report.Written,
	}

	if archive != nil {
		if err := archive.Write(ctx, destination); err != nil {
			return nil, err
		}
		result.Archived = archive.Files()
	}

	if paths := report.InvalidationPaths(); len(paths) > 0 {
		invalidator, err := wp.invalidator(ctx, cfg, params)
		if err != nil {
			return nil, err
		}
		if invalidator != nil {
			if err := invalidator.Invalidate(ctx, paths); err != nil {
				return nil, err
			}
			result.Invalidated = paths
		}
	}

	result.Duration = time.Since(start)
	wp.summarize(result)

	return result, nil
}

func (wp *WebProducer) adapters(cfg *config.Config, params *Params) (storage.Adapter, storage.Adapter, error) {
	source := params.Source
	if source == nil {
		adapter, err := NewStorageAdapter(cfg.TemplateSource, false, wp.logger)
		if err != nil {
			return nil, nil, err
		}
		source = adapter
	}

	destination := params.Destination
	if destination == nil {
		adapter, err := NewStorageAdapter(cfg.Destination, true, wp.logger)
		if err != nil {
			return nil, nil, err
		}
		destination = adapter
	}

	return source, destination, nil
}

func (wp *WebProducer) close(adapters ...storage.Adapter) {
	errs := &errors.Errors{}
	for _, adapter := range adapters {
		errs.Add(adapter.Close(context.Background()))
	}

	if err := errs.Errors(); err != nil {
		wp.logger.Warn("Closing adapters failed: %v", err)
	}
}

// producers creates every producer the build configuration enables.
func (wp *WebProducer) producers(ctx context.Context, cfg *config.Config, params *Params, source storage.Adapter) ([]pipeline.Producer, error) {
	var producers []pipeline.Producer

	if !cfg.Build.NoPages {
		loader, err := wp.loader(cfg, params, source)
		if err != nil {
			return nil, err
		}

		templates := wp.options.TemplateSet
		if templates == nil {
			templates = render.NewHandlebarsSet(wp.logger)
		}
		minifier := wp.options.Minifier
		if minifier == nil {
			minifier = render.NewMinifier()
		}

		producers = append(producers, pipeline.NewTemplateProducer(pipeline.TemplateProducerOptions{
			Source:    source,
			Theme:     cfg.Build.Theme,
			Loader:    loader,
			Templates: templates,
			Minifier:  minifier,
		}, wp.logger))
	}

	if !cfg.Build.NoScripts || !cfg.Build.NoCSS {
		la, ok := source.(*local.LocalAdapter)
		if !ok {
			wp.logger.Warn("Scripts and stylesheets are only bundled from a filesystem source, skipping")
		} else {
			bundler := wp.options.Bundler
			if bundler == nil {
				bundler = bundle.NewBundler(la.Root(), wp.logger)
			}

			if !cfg.Build.NoScripts {
				scripts, err := entryPoints(ctx, la, cfg.Build.Scripts)
				if err != nil {
					return nil, err
				}
				producers = append(producers, pipeline.NewScriptsProducer(scripts, bundler, wp.logger))
			}

			if !cfg.Build.NoCSS {
				stylesheets, err := entryPoints(ctx, la, cfg.Build.Stylesheets)
				if err != nil {
					return nil, err
				}

				var prefixer pipeline.Prefixer
				if cfg.Build.PrefixCSS {
					prefixer = wp.options.Prefixer
					if prefixer == nil {
						prefixer = bundle.NewPrefixer()
					}
				}
				producers = append(producers, pipeline.NewStylesheetsProducer(stylesheets, bundler, prefixer, wp.logger))
			}
		}
	}

	if !cfg.Build.NoFiles {
		producers = append(producers, pipeline.NewStaticProducer(source, cfg.Build.Files, cfg.Build.RelativeRoot, wp.logger))
	}

	return producers, nil
}

func (wp *WebProducer) loader(cfg *config.Config, params *Params, source storage.Adapter) (datasource.Loader, error) {
	src := params.Data
	if src == nil {
		created, err := NewDataSource(cfg, source, wp.logger)
		if err != nil {
			return nil, err
		}
		src = created
	}

	var opts []datasource.DataLoaderOption
	if cfg.Build.Transform != "" {
		transform, err := datasource.LookupTransform(cfg.Build.Transform)
		if err != nil {
			return nil, errors.Config(err, "invalid transform")
		}
		opts = append(opts, datasource.WithTransform(transform))
	}

	// Snapshots of file based data would only copy the file onto itself
	if cfg.Data.Snapshot && cfg.Data.Type != config.DataFilesystem && cfg.Data.Type != config.DataS3 {
		adapter, _, prefix, err := metaLocation(cfg, source, wp.logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, datasource.WithSnapshot(adapter, prefix))
	}

	return datasource.NewLoader(src, wp.logger, opts...), nil
}

func (wp *WebProducer) invalidator(ctx context.Context, cfg *config.Config, params *Params) (deploy.Invalidator, error) {
	if params.Invalidator != nil {
		return params.Invalidator, nil
	}
	if cfg.Webserver.CloudFrontDistributionID == "" {
		return nil, nil
	}

	return deploy.NewCloudFrontInvalidator(ctx, cfg.Webserver.CloudFrontDistributionID, cfg.Webserver.Region, wp.logger)
}

func (wp *WebProducer) summarize(result *Result) {
	wp.logger.Info("Processed %d resources totalling %.2f Mb through %d pipelines in %d ms",
		result.Pipeline.FilesEmitted,
		float64(result.Pipeline.BytesEmitted)/1024/1024,
		result.Pipeline.Producers,
		result.Duration.Milliseconds())
	wp.logger.Info("Created %d, updated %d, unchanged %d, written %d",
		result.Counts.Create, result.Counts.Update, result.Counts.Unchanged, result.Written)

	if len(result.Stale) > 0 {
		wp.logger.Debug("%d destination files are no longer produced", len(result.Stale))
	}
}

// entryPoints expands bundler globs into absolute paths below the source root.
func entryPoints(ctx context.Context, source *local.LocalAdapter, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	files, err := source.List(ctx, patterns, storage.NewMatcher(patterns).Prefix())
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(source.Root())
	if err != nil {
		return nil, err
	}

	points := make([]string, 0, len(files))
	for _, file := range files {
		if file.IsDirectory() {
			continue
		}
		points = append(points, filepath.Join(root, filepath.FromSlash(file.Path())))
	}

	return points, nil
}
