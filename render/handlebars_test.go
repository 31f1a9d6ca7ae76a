package render_test

import (
	"strings"
	"testing"

	"github.com/mwantia/webproducer/data"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/render"
)

// TestHandlebarsSet_Partials verifies templates include each other by name
// with and without extension, regardless of compile order.
func TestHandlebarsSet_Partials(t *testing.T) {
	set := render.NewHandlebarsSet(log.NewDiscard())

	if err := set.Compile("page.hbs", "{{> header}}<main>{{title}}</main>{{> footer.hbs}}"); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if err := set.Compile("header.hbs", "<header>{{site}}</header>"); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if err := set.Compile("footer.hbs", "<footer></footer>"); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if !set.Has("page.hbs") || set.Has("page") {
		t.Errorf("Expected templates to be registered by file name only")
	}

	out, err := set.Render("page.hbs", map[string]any{"title": "Hello", "site": "Site"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	expected := "<header>Site</header><main>Hello</main><footer></footer>"
	if out != expected {
		t.Errorf("Expected %q, got %q", expected, out)
	}

	// Rendering twice must not register partials again
	if _, err := set.Render("page.hbs", map[string]any{}); err != nil {
		t.Errorf("Second render failed: %v", err)
	}
}

func TestHandlebarsSet_Markdown(t *testing.T) {
	set := render.NewHandlebarsSet(nil)

	if err := set.Compile("post.hbs", "{{markdown body}}"); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	out, err := set.Render("post.hbs", map[string]any{"body": "# Title\n\n~~old~~"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "<h1>Title</h1>") {
		t.Errorf("Expected rendered heading, got %q", out)
	}
	if !strings.Contains(out, "<del>old</del>") {
		t.Errorf("Expected strikethrough extension, got %q", out)
	}
}

func TestHandlebarsSet_Errors(t *testing.T) {
	set := render.NewHandlebarsSet(nil)

	if err := set.Compile("broken.hbs", "{{#if}}"); err == nil {
		t.Errorf("Expected parse error")
	}
	if _, err := set.Render("missing.hbs", nil); err == nil {
		t.Errorf("Expected error for unknown template")
	}
}

func TestMinifier(t *testing.T) {
	m := render.NewMinifier()

	out, err := m.Minify(data.ContentTypeTextHTML, []byte("<html>\n  <body>\n    <!-- note -->\n    <p>  text  </p>\n  </body>\n</html>"))
	if err != nil {
		t.Fatalf("Minify failed: %v", err)
	}
	if strings.Contains(string(out), "note") || strings.Contains(string(out), "\n") {
		t.Errorf("Expected comments and newlines removed, got %q", out)
	}
	if !strings.Contains(string(out), "<html>") {
		t.Errorf("Expected document tags kept, got %q", out)
	}

	raw := []byte("not minified")
	out, err = m.Minify(data.ContentTypeTextPlain, raw)
	if err != nil || string(out) != string(raw) {
		t.Errorf("Expected unchanged plain text, got %q (%v)", out, err)
	}
}
