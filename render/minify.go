package render

import (
	"errors"

	"github.com/mwantia/webproducer/data"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

// Minifier collapses whitespace and drops comments of generated markup,
// including inline styles and scripts.
type Minifier struct {
	m *minify.M
}

func NewMinifier() *Minifier {
	m := minify.New()
	m.Add(string(data.ContentTypeTextHTML), &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
	})
	m.AddFunc(string(data.ContentTypeTextCSS), css.Minify)
	m.AddFunc(string(data.ContentTypeTextJavaScript), js.Minify)
	m.AddFunc(string(data.ContentTypeImageSVGXML), svg.Minify)

	return &Minifier{m: m}
}

// Minify returns in unchanged for content types without a minifier.
func (mf *Minifier) Minify(contentType data.ContentType, in []byte) ([]byte, error) {
	out, err := mf.m.Bytes(string(contentType), in)
	if errors.Is(err, minify.ErrNotExist) {
		return in, nil
	}

	return out, err
}
