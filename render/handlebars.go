package render

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/aymerick/raymond"
	"github.com/mwantia/webproducer/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HandlebarsSet is a set of handlebars templates where every template can
// include every other one as partial, by file name with or without ".hbs".
type HandlebarsSet struct {
	mu     sync.Mutex
	logger *log.Logger

	templates map[string]*handlebarsTemplate
	markdown  goldmark.Markdown
}

type handlebarsTemplate struct {
	tpl      *raymond.Template
	partials map[string]struct{}
}

func NewHandlebarsSet(logger *log.Logger) *HandlebarsSet {
	if logger == nil {
		logger = log.NewDiscard()
	}

	return &HandlebarsSet{
		logger:    logger.Named("handlebars"),
		templates: make(map[string]*handlebarsTemplate),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

func (hs *HandlebarsSet) Compile(name, source string) error {
	tpl, err := raymond.Parse(source)
	if err != nil {
		return err
	}
	tpl.RegisterHelper("markdown", hs.markdownHelper)

	hs.mu.Lock()
	defer hs.mu.Unlock()

	if _, exists := hs.templates[name]; exists {
		hs.logger.Warn("Template '%s' replaces an earlier one with the same name", name)
	}
	hs.templates[name] = &handlebarsTemplate{
		tpl:      tpl,
		partials: make(map[string]struct{}),
	}

	return nil
}

func (hs *HandlebarsSet) Has(name string) bool {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	_, exists := hs.templates[name]
	return exists
}

func (hs *HandlebarsSet) Render(name string, ctx any) (string, error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	t, exists := hs.templates[name]
	if !exists {
		return "", fmt.Errorf("template '%s' not found", name)
	}

	// Partials are bound on first use so templates compiled later are visible
	for partialName, partial := range hs.templates {
		for _, alias := range []string{partialName, strings.TrimSuffix(partialName, ".hbs")} {
			if _, bound := t.partials[alias]; bound {
				continue
			}
			t.tpl.RegisterPartialTemplate(alias, partial.tpl)
			t.partials[alias] = struct{}{}
		}
	}

	return t.tpl.Exec(ctx)
}

func (hs *HandlebarsSet) markdownHelper(source any) raymond.SafeString {
	var buf bytes.Buffer
	if err := hs.markdown.Convert([]byte(raymond.Str(source)), &buf); err != nil {
		hs.logger.Warn("Markdown conversion failed: %v", err)
		return raymond.SafeString(raymond.Escape(raymond.Str(source)))
	}

	return raymond.SafeString(buf.String())
}
