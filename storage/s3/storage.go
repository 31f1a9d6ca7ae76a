package s3

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/mwantia/webproducer/data"
	"github.com/mwantia/webproducer/storage"
)

func (sa *S3Adapter) List(ctx context.Context, globs []string, prefix string, opts ...storage.ListOption) ([]*data.VirtualFile, error) {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	options := storage.NewListOptions(opts...)
	matcher := storage.NewMatcher(globs)

	listPrefix := sa.objectKey(prefix)
	if listPrefix != "" {
		listPrefix += "/"
	}

	objectsCh := sa.client.ListObjects(ctx, sa.bucket, minio.ListObjectsOptions{
		Prefix:    listPrefix,
		Recursive: true,
		MaxKeys:   ListPageSize,
	})

	var files []*data.VirtualFile
	listed := 0
	for object := range objectsCh {
		if object.Err != nil {
			return nil, sa.mapError(object.Err)
		}
		listed++

		key := sa.relativeKey(object.Key)
		if key == "" {
			continue
		}

		isDir := strings.HasSuffix(object.Key, "/") || object.ContentType == directoryContentType
		if isDir && !options.Directories {
			continue
		}
		if !matcher.Match(strings.TrimSuffix(key, "/")) {
			continue
		}

		file, err := sa.toVirtualFile(ctx, object, options.Content)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sa.logger.Debug("Listed %d of %d objects in %d page(s) below '%s'",
		len(files), listed, pages(listed), listPrefix)
	return files, nil
}

func (sa *S3Adapter) Read(ctx context.Context, relative string) (*data.VirtualFile, error) {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	r, info, err := sa.client.GetObject(ctx, sa.bucket, sa.objectKey(relative))
	if err != nil {
		return nil, sa.mapError(err)
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, sa.mapError(err)
	}

	opts := []data.VirtualFileOption{
		data.WithStat(sa.toStat(info)),
		data.WithContent(content),
	}
	if info.ContentType != "" {
		opts = append(opts, data.WithContentType(data.ContentType(info.ContentType)))
	}

	return data.NewVirtualFile(data.ToKey(relative), opts...)
}

// Write uploads one object. Redirect markers become empty objects carrying
// the website redirect location, directories become "key/" markers.
func (sa *S3Adapter) Write(ctx context.Context, file *data.VirtualFile) error {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	rel, err := file.Relative()
	if err != nil {
		return err
	}
	key := sa.objectKey(rel)

	opts := minio.PutObjectOptions{
		ContentType: file.DefaultContentType().String(),
	}
	if sa.acl != "" {
		opts.UserMetadata = map[string]string{
			"x-amz-acl": sa.acl,
		}
	}

	if file.IsDirectory() {
		opts.ContentType = directoryContentType
		_, err := sa.client.PutObject(ctx, sa.bucket, key+"/", bytes.NewReader(nil), 0, opts)
		return sa.mapError(err)
	}

	if redirect := file.Redirect(); redirect != nil {
		opts.WebsiteRedirectLocation = redirect.Target
		_, err := sa.client.PutObject(ctx, sa.bucket, key, bytes.NewReader(nil), 0, opts)
		return sa.mapError(err)
	}

	r, err := file.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	size, known := file.Size()
	if !known {
		size = -1
	}

	_, err = sa.client.PutObject(ctx, sa.bucket, key, r, size, opts)
	return sa.mapError(err)
}

func (sa *S3Adapter) objectKey(relative string) string {
	return data.ToKey(path.Join(sa.prefix, data.ToKey(relative)))
}

func (sa *S3Adapter) relativeKey(objectKey string) string {
	if sa.prefix == "" {
		return objectKey
	}

	return strings.TrimPrefix(objectKey, sa.prefix+"/")
}

func (sa *S3Adapter) toStat(info minio.ObjectInfo) *data.VirtualFileStat {
	key := strings.TrimSuffix(sa.relativeKey(info.Key), "/")
	stat := data.NewFileStat(key, info.Size, info.LastModified)
	stat.ContentType = info.ContentType
	stat.ETag = info.ETag

	if strings.HasSuffix(info.Key, "/") || info.ContentType == directoryContentType {
		stat = data.NewDirectoryStat(key, info.LastModified)
	}

	return stat
}

func (sa *S3Adapter) toVirtualFile(ctx context.Context, info minio.ObjectInfo, content bool) (*data.VirtualFile, error) {
	stat := sa.toStat(info)
	opts := []data.VirtualFileOption{
		data.WithStat(stat),
	}

	if stat.Mode.IsDir() {
		return data.NewVirtualFile(stat.Key, opts...)
	}

	if hash, ok := TrustedETag(info.ETag); ok {
		opts = append(opts, data.WithHash(hash))
	}

	if content {
		objectKey := info.Key
		opts = append(opts, data.WithContent(data.SourceFunc(func() (io.ReadCloser, error) {
			r, _, err := sa.client.GetObject(ctx, sa.bucket, objectKey)
			if err != nil {
				return nil, sa.mapError(err)
			}
			return r, nil
		})))
	}

	return data.NewVirtualFile(stat.Key, opts...)
}

// TrustedETag returns the normalized ETag when it is a plain MD5 digest of
// the object. Multipart uploads report "<digest>-<parts>" and are not trusted.
func TrustedETag(etag string) (string, bool) {
	etag = strings.ToLower(strings.Trim(etag, "\""))
	if etag == "" || strings.Contains(etag, "-") || len(etag) != 32 {
		return "", false
	}

	return etag, true
}

func pages(objects int) int {
	if objects == 0 {
		return 1
	}

	return (objects + ListPageSize - 1) / ListPageSize
}
