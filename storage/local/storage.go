package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mwantia/webproducer/data"
	"github.com/mwantia/webproducer/storage"
)

func (la *LocalAdapter) List(ctx context.Context, globs []string, prefix string, opts ...storage.ListOption) ([]*data.VirtualFile, error) {
	la.mu.RLock()
	defer la.mu.RUnlock()

	options := storage.NewListOptions(opts...)
	matcher := storage.NewMatcher(globs)
	start := la.resolvePath(prefix)

	if _, err := os.Stat(start); err != nil {
		// A missing prefix below an existing root is simply empty
		if errors.Is(err, fs.ErrNotExist) && start != la.root {
			return nil, nil
		}
		return nil, la.mapError(err)
	}

	var files []*data.VirtualFile
	err := filepath.WalkDir(start, func(fullPath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if fullPath == la.root {
			return nil
		}

		rel, err := filepath.Rel(la.root, fullPath)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)

		if entry.IsDir() && !options.Directories {
			return nil
		}
		if !matcher.Match(key) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		file, err := la.toVirtualFile(key, fullPath, info, options.Content)
		if err != nil {
			return err
		}

		files = append(files, file)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, la.mapError(err)
	}

	la.logger.Debug("Listed %d entries below '%s'", len(files), start)
	return files, nil
}

func (la *LocalAdapter) Read(ctx context.Context, relative string) (*data.VirtualFile, error) {
	la.mu.RLock()
	defer la.mu.RUnlock()

	fullPath := la.resolvePath(relative)

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, la.mapError(err)
	}
	if info.IsDir() {
		return la.toVirtualFile(data.ToKey(relative), fullPath, info, false)
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, la.mapError(err)
	}

	return data.NewVirtualFile(data.ToKey(relative),
		data.WithStat(la.toStat(data.ToKey(relative), info)),
		data.WithContent(content))
}

// Write persists file below root. Writes to distinct keys may run concurrently.
func (la *LocalAdapter) Write(ctx context.Context, file *data.VirtualFile) error {
	la.mu.RLock()
	defer la.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	rel, err := file.Relative()
	if err != nil {
		return err
	}
	fullPath := la.resolvePath(rel)

	if file.IsDirectory() {
		return la.mapError(os.MkdirAll(fullPath, la.options.DirMode))
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), la.options.DirMode); err != nil {
		return la.mapError(err)
	}

	mode := la.options.FileMode
	if stat := file.Stat(); stat != nil && stat.Mode.Perm() != 0 {
		mode = stat.Mode.FileMode().Perm()
	}

	r, err := file.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return la.mapError(err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return la.mapError(err)
	}

	return la.mapError(f.Close())
}

func (la *LocalAdapter) toStat(key string, info fs.FileInfo) *data.VirtualFileStat {
	return &data.VirtualFileStat{
		Key:        key,
		Mode:       data.ModeFromFileMode(info.Mode()),
		Size:       info.Size(),
		ModifyTime: info.ModTime(),
		CreateTime: info.ModTime(), // Creation time is not portable
	}
}

func (la *LocalAdapter) toVirtualFile(key, fullPath string, info fs.FileInfo, content bool) (*data.VirtualFile, error) {
	stat := la.toStat(key, info)
	if info.IsDir() {
		stat.Size = 0
		return data.NewVirtualFile(key, data.WithStat(stat))
	}

	opts := []data.VirtualFileOption{
		data.WithStat(stat),
	}
	if content {
		opts = append(opts, data.WithContent(data.FileSource(fullPath)))
	}

	return data.NewVirtualFile(key, opts...)
}
