package bundle

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/pipeline"
)

// Bundler builds entry points with esbuild into minified iife bundles with
// linked source maps. Nothing is written to disk.
type Bundler struct {
	logger  *log.Logger
	workDir string
}

// NewBundler resolves relative entry points against workDir.
func NewBundler(workDir string, logger *log.Logger) *Bundler {
	if logger == nil {
		logger = log.NewDiscard()
	}

	return &Bundler{
		logger:  logger.Named("esbuild"),
		workDir: workDir,
	}
}

func (b *Bundler) Bundle(ctx context.Context, entryPoints []string) ([]pipeline.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	workDir, err := filepath.Abs(b.workDir)
	if err != nil {
		return nil, err
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:       entryPoints,
		AbsWorkingDir:     workDir,
		Outdir:            "/",
		Bundle:            true,
		Sourcemap:         api.SourceMapLinked,
		Target:            api.ES2020,
		Format:            api.FormatIIFE,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		TreeShaking:       api.TreeShakingTrue,
		Write:             false,
		LogLevel:          api.LogLevelSilent,
		Loader: map[string]api.Loader{
			".eot":  api.LoaderFile,
			".ttf":  api.LoaderFile,
			".woff": api.LoaderFile,
			".svg":  api.LoaderFile,
		},
	})

	for _, warning := range result.Warnings {
		b.logger.Warn("%s", formatMessage(warning))
	}
	if len(result.Errors) > 0 {
		return nil, buildError(result.Errors)
	}

	artifacts := make([]pipeline.Artifact, 0, len(result.OutputFiles))
	for _, out := range result.OutputFiles {
		artifacts = append(artifacts, pipeline.Artifact{
			Path:     filepath.ToSlash(out.Path),
			Contents: out.Contents,
		})
	}

	return artifacts, nil
}

func buildError(messages []api.Message) error {
	lines := make([]string, 0, len(messages))
	for _, message := range messages {
		lines = append(lines, formatMessage(message))
	}

	return fmt.Errorf("esbuild: %s", strings.Join(lines, "; "))
}

func formatMessage(message api.Message) string {
	if message.Location == nil {
		return message.Text
	}

	return fmt.Sprintf("%s:%d:%d: %s", message.Location.File, message.Location.Line, message.Location.Column, message.Text)
}
