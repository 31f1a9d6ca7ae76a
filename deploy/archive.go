package deploy

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/mwantia/webproducer/data"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/storage"
)

// ArchiveName is the key the archive is written to in the destination.
const ArchiveName = "archive.zip"

// Archive collects every built file into a zip kept in memory.
type Archive struct {
	mu     sync.Mutex
	logger *log.Logger

	buf   bytes.Buffer
	zw    *zip.Writer
	files int
	err   error
}

func NewArchive(logger *log.Logger) *Archive {
	if logger == nil {
		logger = log.NewDiscard()
	}

	a := &Archive{
		logger: logger.Named("archive"),
	}
	a.zw = zip.NewWriter(&a.buf)

	return a
}

// Add stores file under its relative path. Directories and redirects have
// no body and are skipped.
func (a *Archive) Add(file *data.VirtualFile) error {
	if !file.IsFile() {
		return nil
	}

	relative, err := file.Relative()
	if err != nil {
		return err
	}

	modified := time.Now()
	if stat := file.Stat(); stat != nil && !stat.ModifyTime.IsZero() {
		modified = stat.ModifyTime
	}

	r, err := file.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	a.mu.Lock()
	defer a.mu.Unlock()

	w, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     relative,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		return err
	}

	a.files++
	return nil
}

// Tee adds every file of in to the archive and forwards it unchanged.
// The first failure is kept and reported by Write.
func (a *Archive) Tee(ctx context.Context, in <-chan *data.VirtualFile) <-chan *data.VirtualFile {
	out := make(chan *data.VirtualFile)

	go func() {
		defer close(out)

		for file := range in {
			if err := a.Add(file); err != nil {
				a.fail(err)
			}

			select {
			case out <- file:
			case <-ctx.Done():
			}
		}
	}()

	return out
}

func (a *Archive) fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err == nil {
		a.err = err
		a.logger.Error("Archiving failed: %v", err)
	}
}

// Files returns the number of archived files.
func (a *Archive) Files() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.files
}

// Write finalizes the zip and stores it as ArchiveName in destination.
func (a *Archive) Write(ctx context.Context, destination storage.Adapter) error {
	a.mu.Lock()
	if a.err != nil {
		defer a.mu.Unlock()
		return a.err
	}
	if err := a.zw.Close(); err != nil {
		a.mu.Unlock()
		return err
	}
	contents := bytes.Clone(a.buf.Bytes())
	files := a.files
	a.mu.Unlock()

	file, err := data.NewVirtualFile(ArchiveName,
		data.WithContent(contents),
		data.WithContentType(data.ContentTypeApplicationZip))
	if err != nil {
		return err
	}

	if err := destination.Write(ctx, file); err != nil {
		return err
	}

	a.logger.Info("Archived %d files into '%s'", files, ArchiveName)
	return nil
}
