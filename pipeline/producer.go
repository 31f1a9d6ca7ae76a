package pipeline

import (
	"context"

	"github.com/mwantia/webproducer/data"
)

// Producer emits build artifacts into out. The returned error is the
// completion signal: nil once every file was emitted, the failure otherwise.
// Producers never close out; the merge engine owns it.
type Producer interface {
	Name() string
	Produce(ctx context.Context, out chan<- *data.VirtualFile) error
}

// Emit sends file to out unless ctx is done first.
func Emit(ctx context.Context, out chan<- *data.VirtualFile, file *data.VirtualFile) error {
	select {
	case out <- file:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TemplateSet compiles named templates and renders them with a data context.
type TemplateSet interface {
	Compile(name, source string) error
	Has(name string) bool
	Render(name string, ctx any) (string, error)
}

// Minifier reduces generated markup of the given content type.
type Minifier interface {
	Minify(contentType data.ContentType, in []byte) ([]byte, error)
}

// Artifact is one output file of a bundler run.
type Artifact struct {
	Path     string
	Contents []byte
}

// Bundler bundles entry points on the local filesystem into artifacts
// rooted at "/".
type Bundler interface {
	Bundle(ctx context.Context, entryPoints []string) ([]Artifact, error)
}

// Prefixer adds vendor prefixes to a stylesheet.
type Prefixer interface {
	Prefix(ctx context.Context, css []byte) ([]byte, error)
}
