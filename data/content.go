package data

import (
	"bytes"
	"io"
	"os"
)

// ContentKind describes which of the permitted content shapes a VirtualFile holds.
type ContentKind int

const (
	ContentNull ContentKind = iota
	ContentBuffer
	ContentStream
)

func (k ContentKind) String() string {
	switch k {
	case ContentBuffer:
		return "buffer"
	case ContentStream:
		return "stream"
	default:
		return "null"
	}
}

// Source is streamable content. Every call to Open returns a new reader
// positioned at the start, so content can be hashed and written later.
type Source interface {
	Open() (io.ReadCloser, error)
}

// SourceFunc adapts a plain function into a Source.
type SourceFunc func() (io.ReadCloser, error)

func (f SourceFunc) Open() (io.ReadCloser, error) {
	return f()
}

// FileSource streams the file at name from the local filesystem.
func FileSource(name string) Source {
	return SourceFunc(func() (io.ReadCloser, error) {
		return os.Open(name)
	})
}

// BytesSource wraps b into a Source.
func BytesSource(b []byte) Source {
	return SourceFunc(func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	})
}

func kindOf(content any) (ContentKind, bool) {
	switch content.(type) {
	case nil:
		return ContentNull, true
	case []byte:
		return ContentBuffer, true
	case Source:
		return ContentStream, true
	default:
		return ContentNull, false
	}
}
