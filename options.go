package webproducer

import (
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/pipeline"
)

type WebProducerOptions struct {
	Logger        *log.Logger
	LogLevel      log.LogLevel
	LogFile       string
	NoTerminalLog bool
	JSONLog       bool
	Concurrency   int

	Bundler     pipeline.Bundler
	Prefixer    pipeline.Prefixer
	TemplateSet pipeline.TemplateSet
	Minifier    pipeline.Minifier
}

type WebProducerOption func(*WebProducerOptions) error

func newDefaultWebProducerOptions() *WebProducerOptions {
	return &WebProducerOptions{
		LogLevel: log.Info,
	}
}

// WithLogger uses logger instead of creating one from the log options.
func WithLogger(logger *log.Logger) WebProducerOption {
	return func(opts *WebProducerOptions) error {
		opts.Logger = logger
		return nil
	}
}

func WithLogLevel(logLevel log.LogLevel) WebProducerOption {
	return func(opts *WebProducerOptions) error {
		opts.LogLevel = logLevel
		return nil
	}
}

func WithoutTerminalLog() WebProducerOption {
	return func(opts *WebProducerOptions) error {
		opts.NoTerminalLog = true
		return nil
	}
}

func WithLogFile(logFile string) WebProducerOption {
	return func(opts *WebProducerOptions) error {
		opts.LogFile = logFile
		return nil
	}
}

func WithJSONLog() WebProducerOption {
	return func(opts *WebProducerOptions) error {
		opts.JSONLog = true
		return nil
	}
}

// WithConcurrency overrides the configured number of parallel hashes and writes.
func WithConcurrency(concurrency int) WebProducerOption {
	return func(opts *WebProducerOptions) error {
		opts.Concurrency = concurrency
		return nil
	}
}

func WithBundler(bundler pipeline.Bundler) WebProducerOption {
	return func(opts *WebProducerOptions) error {
		opts.Bundler = bundler
		return nil
	}
}

func WithPrefixer(prefixer pipeline.Prefixer) WebProducerOption {
	return func(opts *WebProducerOptions) error {
		opts.Prefixer = prefixer
		return nil
	}
}

func WithTemplateSet(templateSet pipeline.TemplateSet) WebProducerOption {
	return func(opts *WebProducerOptions) error {
		opts.TemplateSet = templateSet
		return nil
	}
}

func WithMinifier(minifier pipeline.Minifier) WebProducerOption {
	return func(opts *WebProducerOptions) error {
		opts.Minifier = minifier
		return nil
	}
}
