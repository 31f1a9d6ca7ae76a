package pipeline

import (
	"context"

	"github.com/mwantia/webproducer/data"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/storage"
)

// StaticProducer passes loose files through unchanged, moving them from
// below the relative root to the output root.
type StaticProducer struct {
	logger *log.Logger

	source       storage.Adapter
	files        []string
	relativeRoot string
}

func NewStaticProducer(source storage.Adapter, files []string, relativeRoot string, logger *log.Logger) *StaticProducer {
	if logger == nil {
		logger = log.NewDiscard()
	}

	return &StaticProducer{
		logger:       logger.Named("static"),
		source:       source,
		files:        files,
		relativeRoot: relativeRoot,
	}
}

func (sp *StaticProducer) Name() string {
	return "static"
}

func (sp *StaticProducer) Produce(ctx context.Context, out chan<- *data.VirtualFile) error {
	matcher := storage.NewMatcher(sp.files)

	files, err := sp.source.List(ctx, sp.files, matcher.Prefix(), storage.WithContent())
	if err != nil {
		return err
	}

	root := "/" + data.ToKey(sp.relativeRoot)

	emitted := 0
	for _, file := range files {
		if file.IsDirectory() {
			continue
		}

		target := file.Path()
		if rel, ok := data.ToRelativePath(file.Path(), root); ok {
			target = rel
		} else {
			sp.logger.Warn("'%s' is outside of '%s' and keeps its path", file.Path(), root)
		}

		moved, err := file.Relocate(target)
		if err != nil {
			return err
		}

		if err := Emit(ctx, out, moved); err != nil {
			return err
		}
		emitted++
	}

	sp.logger.Debug("Passed through %d files", emitted)
	return nil
}
