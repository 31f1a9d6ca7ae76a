package local_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwantia/webproducer/data"
	wperrors "github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/storage"
	"github.com/mwantia/webproducer/storage/local"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
}

// TestLocalAdapter_ListGlobsAndPrefix verifies recursive walking with glob filtering.
func TestLocalAdapter_ListGlobsAndPrefix(t *testing.T) {
	ctx := t.Context()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/theme/page.hbs":         "<p>{{title}}</p>",
		"src/theme/partials/nav.hbs": "<nav></nav>",
		"src/images/logo.png":        "png",
		"README.md":                  "readme",
	})

	adapter := local.NewLocalAdapter(root, log.NewDiscard())
	if err := adapter.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	files, err := adapter.List(ctx, []string{"src/theme/**/*.hbs"}, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Expected 2 templates, got %d", len(files))
	}

	for _, file := range files {
		if file.IsDirectory() {
			t.Errorf("Expected metadata-only file entry for %s", file.Path())
		}
		if file.ContentKind() != data.ContentNull {
			t.Errorf("Expected metadata-only listing for %s", file.Path())
		}
	}

	prefixed, err := adapter.List(ctx, nil, "src/images")
	if err != nil {
		t.Fatalf("List with prefix failed: %v", err)
	}
	if len(prefixed) != 1 || prefixed[0].Path() != "/src/images/logo.png" {
		t.Fatalf("Expected only logo.png below prefix, got %v", prefixed)
	}

	missing, err := adapter.List(ctx, nil, "does/not/exist")
	if err != nil || len(missing) != 0 {
		t.Errorf("Expected empty listing for missing prefix, got %v (%v)", missing, err)
	}
}

// TestLocalAdapter_ListWithContent verifies lazily attached content.
func TestLocalAdapter_ListWithContent(t *testing.T) {
	ctx := t.Context()
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a/b.txt": "hello"})

	adapter := local.NewLocalAdapter(root, log.NewDiscard())
	files, err := adapter.List(ctx, nil, "", storage.WithContent())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(files))
	}

	b, err := files[0].Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if string(b) != "hello" {
		t.Errorf("Expected 'hello', got %q", b)
	}

	rel, _ := files[0].Relative()
	if rel != "a/b.txt" {
		t.Errorf("Expected relative 'a/b.txt', got '%s'", rel)
	}
}

// TestLocalAdapter_WriteAndRead verifies written files can be read back.
func TestLocalAdapter_WriteAndRead(t *testing.T) {
	ctx := t.Context()
	root := filepath.Join(t.TempDir(), "dist")

	adapter := local.NewLocalAdapter(root, log.NewDiscard(), local.WithCreateRoot())
	if err := adapter.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	file, _ := data.NewVirtualFile("/css/style.css", data.WithContent([]byte("body{}")))
	if err := adapter.Write(ctx, file); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	redirect, _ := data.NewRedirect("/old-page", "/new-page")
	if err := adapter.Write(ctx, redirect); err != nil {
		t.Fatalf("Write redirect failed: %v", err)
	}

	read, err := adapter.Read(ctx, "css/style.css")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	b, _ := read.Bytes()
	if string(b) != "body{}" {
		t.Errorf("Expected 'body{}', got %q", b)
	}

	info, err := os.Stat(filepath.Join(root, "old-page"))
	if err != nil {
		t.Fatalf("Stat redirect failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected zero-byte redirect file, got %d bytes", info.Size())
	}
}

// TestLocalAdapter_Errors verifies error kinds for missing roots and keys.
func TestLocalAdapter_Errors(t *testing.T) {
	ctx := t.Context()
	adapter := local.NewLocalAdapter(filepath.Join(t.TempDir(), "missing"), log.NewDiscard())

	if err := adapter.Open(ctx); !errors.Is(err, wperrors.ErrStorageUnavailable) {
		t.Errorf("Expected ErrStorageUnavailable on Open, got %v", err)
	}
	if _, err := adapter.List(ctx, nil, ""); !errors.Is(err, wperrors.ErrStorageUnavailable) {
		t.Errorf("Expected ErrStorageUnavailable on List, got %v", err)
	}

	existing := local.NewLocalAdapter(t.TempDir(), log.NewDiscard())
	if _, err := existing.Read(ctx, "nope.txt"); !errors.Is(err, wperrors.ErrStorageUnavailable) {
		t.Errorf("Expected ErrStorageUnavailable on Read, got %v", err)
	}
}
