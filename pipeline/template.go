package pipeline

import (
	"context"
	"path"
	"strings"

	"github.com/mwantia/webproducer/data"
	"github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/datasource"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/storage"
)

// TemplateExt is appended to a record key to find its template.
const TemplateExt = ".hbs"

// IndexName is the file rendered for record paths ending with "/".
const IndexName = "index.html"

// TemplateProducer renders one page per data record with the theme template
// named by the record key.
type TemplateProducer struct {
	logger *log.Logger

	source    storage.Adapter
	theme     []string
	loader    datasource.Loader
	templates TemplateSet
	minifier  Minifier
}

type TemplateProducerOptions struct {
	// Source holds the theme templates.
	Source storage.Adapter
	// Theme are the globs selecting template files in Source.
	Theme []string
	// Loader provides the records to render.
	Loader datasource.Loader
	// Templates compiles and renders the theme.
	Templates TemplateSet
	// Minifier is applied to HTML output when set.
	Minifier Minifier
}

func NewTemplateProducer(options TemplateProducerOptions, logger *log.Logger) *TemplateProducer {
	if logger == nil {
		logger = log.NewDiscard()
	}

	return &TemplateProducer{
		logger:    logger.Named("templates"),
		source:    options.Source,
		theme:     options.Theme,
		loader:    options.Loader,
		templates: options.Templates,
		minifier:  options.Minifier,
	}
}

func (tp *TemplateProducer) Name() string {
	return "templates"
}

func (tp *TemplateProducer) Produce(ctx context.Context, out chan<- *data.VirtualFile) error {
	if err := tp.compile(ctx); err != nil {
		return err
	}

	dataset, err := tp.loader.Load(ctx)
	if err != nil {
		return err
	}

	emitted := 0
	for _, record := range dataset {
		file, err := tp.render(record)
		if err != nil {
			return err
		}
		if file == nil {
			continue
		}

		if err := Emit(ctx, out, file); err != nil {
			return err
		}
		emitted++
	}

	tp.logger.Debug("Rendered %d of %d records", emitted, len(dataset))
	return nil
}

// compile registers every theme file by its base name.
func (tp *TemplateProducer) compile(ctx context.Context) error {
	matcher := storage.NewMatcher(tp.theme)

	files, err := tp.source.List(ctx, tp.theme, matcher.Prefix(), storage.WithContent())
	if err != nil {
		return err
	}

	for _, file := range files {
		if file.IsDirectory() {
			continue
		}

		b, err := file.Bytes()
		if err != nil {
			return err
		}

		if err := tp.templates.Compile(file.Name(), string(b)); err != nil {
			return errors.TemplateRender(err, file.Name(), file.Path())
		}
	}

	tp.logger.Debug("Compiled %d templates", len(files))
	return nil
}

// render returns the file for record, or nil when the record is skipped.
func (tp *TemplateProducer) render(record datasource.Record) (*data.VirtualFile, error) {
	key := record.Key()
	p := outputPath(record.Path())

	if key == "" {
		tp.logger.Warn("Skipping '%s', the record has no template key", p)
		return nil, nil
	}

	name := key + TemplateExt
	if tp.templates.Has(name) {
		markup, err := tp.templates.Render(name, map[string]any(record))
		if err != nil {
			return nil, errors.TemplateRender(err, key, p)
		}

		contents := []byte(markup)
		if tp.minifier != nil && data.IsHTMLPath(p) {
			if contents, err = tp.minifier.Minify(data.ContentTypeTextHTML, contents); err != nil {
				return nil, errors.TemplateRender(err, key, p)
			}
		}

		return data.NewVirtualFile(p, data.WithContent(contents))
	}

	if key == datasource.RedirectKey {
		return data.NewRedirect(p, record.String(datasource.RedirectTargetField))
	}

	tp.logger.Warn("Skipping '%s': %v", p, errors.TemplateRender(errors.ErrNotExist, key, p))
	return nil, nil
}

func outputPath(p string) string {
	if p == "" || strings.HasSuffix(p, "/") {
		return path.Join("/", p, IndexName)
	}

	return p
}
