package datasource_test

import (
	"errors"
	"testing"

	wperrors "github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/datasource"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/storage/local"
)

// TestMetaLoader_Load verifies data and query files are picked up while
// snapshots and scripts are skipped.
func TestMetaLoader_Load(t *testing.T) {
	ctx := t.Context()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"meta/data.json":     "{\n  // comment\n  \"/\": {\"webProducerKey\": \"home\"},\n}",
		"meta/query.graphql": "{ allPages { path } }",
		"meta/snapshot.json": "not json",
		"meta/transform.js":  "module.exports = {}",
	})

	adapter := local.NewLocalAdapter(root, log.NewDiscard())
	loader := datasource.NewMetaLoader(adapter, []string{"meta/*"}, "meta", log.NewDiscard())

	meta, err := loader.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if meta.Query != "{ allPages { path } }" {
		t.Errorf("Unexpected query: %q", meta.Query)
	}
	if _, ok := meta.Data.(map[string]any); !ok {
		t.Errorf("Expected object data, got %T", meta.Data)
	}
	if len(meta.Files) != 2 {
		t.Errorf("Expected 2 loaded files, got %v", meta.Files)
	}

	source := datasource.NewFileSource("filesystem", loader)
	dataset, err := datasource.NewLoader(source, log.NewDiscard()).Load(ctx)
	if err != nil {
		t.Fatalf("Load through FileSource failed: %v", err)
	}
	if len(dataset) != 1 || dataset[0].Path() != "/" {
		t.Errorf("Unexpected dataset: %v", dataset)
	}
}

func TestMetaLoader_UnsupportedFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"meta/notes.txt": "text",
	})

	loader := datasource.NewMetaLoader(local.NewLocalAdapter(root, nil), nil, "meta", nil)
	if _, err := loader.Load(t.Context()); !errors.Is(err, wperrors.ErrDataSource) {
		t.Errorf("Expected ErrDataSource, got %v", err)
	}
}
