package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/mwantia/webproducer/data"
	wperrors "github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/diff"
	"github.com/mwantia/webproducer/storage"
)

type fakeObject struct {
	body        []byte
	contentType string
	redirect    string
	acl         string
	etag        string
}

// fakeClient is an in-memory bucket that pages its listings like the real API.
type fakeClient struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]*fakeObject

	listRequests int
	puts         []string
	listErr      error
	putErr       error
}

func newFakeClient(bucket string) *fakeClient {
	return &fakeClient{
		bucket:  bucket,
		objects: make(map[string]*fakeObject),
	}
}

func (fc *fakeClient) put(key string, body []byte) {
	fc.objects[key] = &fakeObject{
		body: body,
		etag: fmt.Sprintf("\"%s\"", data.HashBytes(body)),
	}
}

func (fc *fakeClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return bucket == fc.bucket, nil
}

func (fc *fakeClient) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	fc.mu.Lock()
	keys := make([]string, 0, len(fc.objects))
	for key := range fc.objects {
		if strings.HasPrefix(key, opts.Prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	fc.mu.Unlock()

	ch := make(chan minio.ObjectInfo)
	go func() {
		defer close(ch)

		if fc.listErr != nil {
			ch <- minio.ObjectInfo{Err: fc.listErr}
			return
		}

		for start := 0; start < len(keys) || start == 0; start += opts.MaxKeys {
			fc.mu.Lock()
			fc.listRequests++
			fc.mu.Unlock()

			end := min(start+opts.MaxKeys, len(keys))
			for _, key := range keys[start:end] {
				fc.mu.Lock()
				object := fc.objects[key]
				fc.mu.Unlock()

				ch <- minio.ObjectInfo{
					Key:          key,
					Size:         int64(len(object.body)),
					ETag:         object.etag,
					LastModified: time.Unix(0, 0),
				}
			}
			if end >= len(keys) {
				return
			}
		}
	}()

	return ch
}

func (fc *fakeClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, minio.ObjectInfo, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	object, exists := fc.objects[key]
	if !exists {
		return nil, minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	}

	return io.NopCloser(bytes.NewReader(object.body)), minio.ObjectInfo{
		Key:         key,
		Size:        int64(len(object.body)),
		ETag:        object.etag,
		ContentType: object.contentType,
	}, nil
}

func (fc *fakeClient) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if fc.putErr != nil {
		return minio.UploadInfo{}, fc.putErr
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.puts = append(fc.puts, key)
	fc.objects[key] = &fakeObject{
		body:        body,
		contentType: opts.ContentType,
		redirect:    opts.WebsiteRedirectLocation,
		acl:         opts.UserMetadata["x-amz-acl"],
		etag:        fmt.Sprintf("\"%s\"", data.HashBytes(body)),
	}

	return minio.UploadInfo{Key: key, Size: int64(len(body))}, nil
}

// TestS3Adapter_ListPaginates verifies that listings beyond one page are merged.
func TestS3Adapter_ListPaginates(t *testing.T) {
	ctx := t.Context()
	client := newFakeClient("site")
	for i := range 2500 {
		client.put(fmt.Sprintf("assets/file-%04d.txt", i), []byte("x"))
	}
	client.put("index.html", []byte("<html></html>"))

	adapter := newS3Adapter(client, "site", "", "", nil)
	files, err := adapter.List(ctx, []string{"assets/**/*.txt"}, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(files) != 2500 {
		t.Errorf("Expected 2500 files across pages, got %d", len(files))
	}
	if client.listRequests != 3 {
		t.Errorf("Expected 3 page requests, got %d", client.listRequests)
	}
}

// TestS3Adapter_ListTrustsETag verifies single part ETags become hashes.
func TestS3Adapter_ListTrustsETag(t *testing.T) {
	ctx := t.Context()
	client := newFakeClient("site")
	client.put("style.css", []byte("C1"))
	client.put("big.bin", []byte("multi"))
	client.objects["big.bin"].etag = "\"9b2cf535f27731c974343645a3985328-4\""

	adapter := newS3Adapter(client, "site", "", "", nil)
	files, err := adapter.List(ctx, nil, "", storage.WithContent())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	hashes := make(map[string]string)
	for _, file := range files {
		rel, _ := file.Relative()
		hashes[rel] = file.Hash()
	}

	if hashes["style.css"] != data.HashBytes([]byte("C1")) {
		t.Errorf("Expected trusted ETag hash for style.css, got '%s'", hashes["style.css"])
	}
	if hashes["big.bin"] != "" {
		t.Errorf("Expected multipart ETag to be untrusted, got '%s'", hashes["big.bin"])
	}
}

// TestS3Adapter_Prefix verifies the adapter prefix is applied to keys.
func TestS3Adapter_Prefix(t *testing.T) {
	ctx := t.Context()
	client := newFakeClient("site")
	client.put("staging/index.html", []byte("H1"))
	client.put("production/index.html", []byte("H2"))

	adapter := newS3Adapter(client, "site", "/staging/", "", nil)
	files, err := adapter.List(ctx, nil, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 1 || files[0].Path() != "/index.html" {
		t.Fatalf("Expected only /index.html below prefix, got %v", files)
	}

	file, _ := data.NewVirtualFile("/about.html", data.WithContent([]byte("A")))
	if err := adapter.Write(ctx, file); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, exists := client.objects["staging/about.html"]; !exists {
		t.Errorf("Expected object 'staging/about.html' to be written")
	}
}

// TestS3Adapter_WriteRedirect verifies redirects are written as empty objects
// carrying the redirect location.
func TestS3Adapter_WriteRedirect(t *testing.T) {
	ctx := t.Context()
	client := newFakeClient("site")
	adapter := newS3Adapter(client, "site", "", "public-read", nil)

	redirect, _ := data.NewRedirect("/old-page", "/new-page")
	if err := adapter.Write(ctx, redirect); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	object := client.objects["old-page"]
	if object == nil {
		t.Fatalf("Expected object 'old-page' to be written")
	}
	if len(object.body) != 0 {
		t.Errorf("Expected zero-byte body, got %d bytes", len(object.body))
	}
	if object.redirect != "/new-page" {
		t.Errorf("Expected redirect location '/new-page', got '%s'", object.redirect)
	}
	if object.contentType != "text/html" {
		t.Errorf("Expected text/html content type, got '%s'", object.contentType)
	}
	if object.acl != "public-read" {
		t.Errorf("Expected canned ACL 'public-read', got '%s'", object.acl)
	}
}

// TestS3Adapter_ReadAndErrors verifies reads and the mapping of error codes.
func TestS3Adapter_ReadAndErrors(t *testing.T) {
	ctx := t.Context()
	client := newFakeClient("site")
	client.put("data/data.json", []byte(`{"a":1}`))
	adapter := newS3Adapter(client, "site", "", "", nil)

	if err := adapter.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	file, err := adapter.Read(ctx, "data/data.json")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if b, _ := file.Bytes(); string(b) != `{"a":1}` {
		t.Errorf("Unexpected content %q", b)
	}

	if _, err := adapter.Read(ctx, "missing.json"); !errors.Is(err, wperrors.ErrStorageUnavailable) {
		t.Errorf("Expected ErrStorageUnavailable for missing key, got %v", err)
	}

	missing := newS3Adapter(client, "other", "", "", nil)
	if err := missing.Open(ctx); !errors.Is(err, wperrors.ErrStorageUnavailable) {
		t.Errorf("Expected ErrStorageUnavailable for missing bucket, got %v", err)
	}

	client.listErr = minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}
	if _, err := adapter.List(ctx, nil, ""); !errors.Is(err, wperrors.ErrStorageAccessDenied) {
		t.Errorf("Expected ErrStorageAccessDenied, got %v", err)
	}

	client.putErr = minio.ErrorResponse{Code: "SlowDown", StatusCode: 503}
	file, _ = data.NewVirtualFile("/x.txt", data.WithContent([]byte("x")))
	if err := adapter.Write(ctx, file); !errors.Is(err, wperrors.ErrStorageIO) {
		t.Errorf("Expected ErrStorageIO, got %v", err)
	}
}

// TestParseURL verifies s3:// locations are split into bucket and prefix.
func TestParseURL(t *testing.T) {
	bucket, prefix, err := ParseURL("s3://my-bucket/site/meta/")
	if err != nil {
		t.Fatalf("ParseURL failed: %v", err)
	}
	if bucket != "my-bucket" || prefix != "site/meta" {
		t.Errorf("Expected my-bucket and site/meta, got '%s' and '%s'", bucket, prefix)
	}

	if _, _, err := ParseURL("/local/path"); err == nil {
		t.Errorf("Expected error for non s3 location")
	}
}

// TestS3Adapter_RedeployRedirect verifies a changed redirect target reaches
// the bucket although both objects share the empty body ETag.
func TestS3Adapter_RedeployRedirect(t *testing.T) {
	ctx := t.Context()
	client := newFakeClient("site")
	adapter := newS3Adapter(client, "site", "", "", nil)

	deployed, _ := data.NewRedirect("/old-page", "/new-page")
	if err := adapter.Write(ctx, deployed); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	engine := diff.NewEngine(adapter, nil)
	if err := engine.BuildIndex(ctx); err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}

	redirect, _ := data.NewRedirect("/old-page", "/newer-page")
	change, err := engine.Classify(ctx, redirect)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if change.Classification != diff.Update {
		t.Fatalf("Expected update, got %s", change.Classification)
	}

	if err := adapter.Write(ctx, change.File); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if target := client.objects["old-page"].redirect; target != "/newer-page" {
		t.Errorf("Expected redirect location '/newer-page', got '%s'", target)
	}
}
