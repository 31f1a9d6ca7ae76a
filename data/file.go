package data

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/mwantia/webproducer/data/errors"
)

// StatusMovedPermanently is the status code of redirect markers emitted by producers.
const StatusMovedPermanently = 301

// Redirect marks a VirtualFile as a server-side redirect rule.
type Redirect struct {
	StatusCode int    `json:"status_code"`
	Target     string `json:"target"`
}

// VirtualFile is one build artifact, independent of the backend it came
// from or is written to. Content is a byte buffer, a re-openable Source or nil.
type VirtualFile struct {
	mu sync.RWMutex

	path string
	base string

	content     any
	contentType ContentType
	stat        *VirtualFileStat
	redirect    *Redirect

	hash      string
	size      int64
	sizeKnown bool
}

type VirtualFileOption func(*VirtualFile) error

// NewVirtualFile creates a VirtualFile for path. Without WithContent the file
// has null content and, unless a regular-file stat is supplied, is a directory.
func NewVirtualFile(p string, opts ...VirtualFileOption) (*VirtualFile, error) {
	abs, err := ToAbsolutePath(p)
	if err != nil {
		return nil, err
	}

	vf := &VirtualFile{
		path: abs,
		base: "/",
	}

	for _, opt := range opts {
		if err := opt(vf); err != nil {
			return nil, err
		}
	}

	if !HasPrefix(vf.path, vf.base) {
		return nil, errors.PathOutsideBase(vf.path, vf.base)
	}

	return vf, nil
}

// FromRelative reconstructs the VirtualFile located at relative under base.
func FromRelative(base, relative string, opts ...VirtualFileOption) (*VirtualFile, error) {
	abs, err := ToAbsolutePath(base)
	if err != nil {
		return nil, err
	}

	return NewVirtualFile(path.Join(abs, relative), append([]VirtualFileOption{WithBase(abs)}, opts...)...)
}

func WithBase(base string) VirtualFileOption {
	return func(vf *VirtualFile) error {
		abs, err := ToAbsolutePath(base)
		if err != nil {
			return err
		}

		vf.base = abs
		return nil
	}
}

func WithContent(content any) VirtualFileOption {
	return func(vf *VirtualFile) error {
		return vf.setContent(content)
	}
}

func WithContentType(contentType ContentType) VirtualFileOption {
	return func(vf *VirtualFile) error {
		vf.contentType = contentType
		return nil
	}
}

func WithStat(stat *VirtualFileStat) VirtualFileOption {
	return func(vf *VirtualFile) error {
		vf.stat = stat
		if stat != nil && stat.Mode.IsRegular() && !vf.sizeKnown {
			vf.size = stat.Size
			vf.sizeKnown = true
		}
		return nil
	}
}

// WithHash attaches a hash supplied by the backend. It is trusted as-is
// and never recomputed.
func WithHash(hash string) VirtualFileOption {
	return func(vf *VirtualFile) error {
		vf.hash = hash
		return nil
	}
}

func WithSize(size int64) VirtualFileOption {
	return func(vf *VirtualFile) error {
		vf.size = size
		vf.sizeKnown = true
		return nil
	}
}

// WithRedirect turns the file into a redirect rule with an empty body.
func WithRedirect(statusCode int, target string) VirtualFileOption {
	return func(vf *VirtualFile) error {
		if target == "" {
			return errors.InvalidPath(nil, target)
		}

		vf.redirect = &Redirect{
			StatusCode: statusCode,
			Target:     target,
		}
		return vf.setContent([]byte{})
	}
}

// NewRedirect returns a redirect file for p pointing at target.
func NewRedirect(p, target string) (*VirtualFile, error) {
	return NewVirtualFile(p, WithRedirect(StatusMovedPermanently, target))
}

func (vf *VirtualFile) Path() string {
	return vf.path
}

func (vf *VirtualFile) Base() string {
	return vf.base
}

// Relative returns the path below base, forward-slash separated and
// without leading slash.
func (vf *VirtualFile) Relative() (string, error) {
	rel, ok := ToRelativePath(vf.path, vf.base)
	if !ok {
		return "", errors.PathOutsideBase(vf.path, vf.base)
	}

	return rel, nil
}

// Name returns the last element of the path.
func (vf *VirtualFile) Name() string {
	return path.Base(vf.path)
}

// Ext returns the extension of the path including its dot.
func (vf *VirtualFile) Ext() string {
	return path.Ext(vf.path)
}

// Relocate returns a copy of vf at path p with base "/", sharing content
// and metadata with the original.
func (vf *VirtualFile) Relocate(p string) (*VirtualFile, error) {
	abs, err := ToAbsolutePath(p)
	if err != nil {
		return nil, err
	}

	vf.mu.RLock()
	defer vf.mu.RUnlock()

	return &VirtualFile{
		path:        abs,
		base:        "/",
		content:     vf.content,
		contentType: vf.contentType,
		stat:        vf.stat,
		redirect:    vf.redirect,
		hash:        vf.hash,
		size:        vf.size,
		sizeKnown:   vf.sizeKnown,
	}, nil
}

func (vf *VirtualFile) Content() any {
	vf.mu.RLock()
	defer vf.mu.RUnlock()

	return vf.content
}

func (vf *VirtualFile) ContentKind() ContentKind {
	vf.mu.RLock()
	defer vf.mu.RUnlock()

	kind, _ := kindOf(vf.content)
	return kind
}

// SetContent replaces the content and drops any hash that described the old one.
func (vf *VirtualFile) SetContent(content any) error {
	vf.mu.Lock()
	defer vf.mu.Unlock()

	if err := vf.setContent(content); err != nil {
		return err
	}

	vf.hash = ""
	return nil
}

func (vf *VirtualFile) setContent(content any) error {
	kind, ok := kindOf(content)
	if !ok {
		return errors.InvalidContent(nil, vf.path, content)
	}

	vf.content = content
	switch kind {
	case ContentBuffer:
		vf.size = int64(len(content.([]byte)))
		vf.sizeKnown = true
	case ContentStream:
		vf.sizeKnown = false
		if vf.stat != nil && vf.stat.Mode.IsRegular() {
			vf.size = vf.stat.Size
			vf.sizeKnown = true
		}
	default:
		vf.size = 0
		vf.sizeKnown = false
	}

	return nil
}

// Open returns a reader over the content. Directories have nothing to read.
func (vf *VirtualFile) Open() (io.ReadCloser, error) {
	vf.mu.RLock()
	content := vf.content
	vf.mu.RUnlock()

	switch c := content.(type) {
	case []byte:
		return io.NopCloser(bytes.NewReader(c)), nil
	case Source:
		return c.Open()
	default:
		if vf.IsDirectory() {
			return nil, errors.IsDirectory(vf.path)
		}
		return nil, errors.InvalidContent(fmt.Errorf("no content attached"), vf.path, content)
	}
}

// Bytes returns the full content, reading a stream if necessary.
func (vf *VirtualFile) Bytes() ([]byte, error) {
	vf.mu.RLock()
	content := vf.content
	vf.mu.RUnlock()

	if b, ok := content.([]byte); ok {
		return b, nil
	}

	r, err := vf.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

func (vf *VirtualFile) ContentType() ContentType {
	vf.mu.RLock()
	defer vf.mu.RUnlock()

	return vf.contentType
}

func (vf *VirtualFile) SetContentType(contentType ContentType) {
	vf.mu.Lock()
	defer vf.mu.Unlock()

	vf.contentType = contentType
}

// DefaultContentType sets the content type from the path extension when
// nothing set it before and returns the effective value.
func (vf *VirtualFile) DefaultContentType() ContentType {
	vf.mu.Lock()
	defer vf.mu.Unlock()

	if vf.contentType == "" {
		if vf.content == nil && !vf.isRegularStat() {
			vf.contentType = ContentTypeApplicationDir
		} else {
			vf.contentType = GetMIMEType(vf.path)
		}
	}

	return vf.contentType
}

func (vf *VirtualFile) Stat() *VirtualFileStat {
	vf.mu.RLock()
	defer vf.mu.RUnlock()

	return vf.stat
}

func (vf *VirtualFile) Redirect() *Redirect {
	vf.mu.RLock()
	defer vf.mu.RUnlock()

	return vf.redirect
}

func (vf *VirtualFile) IsRedirect() bool {
	return vf.Redirect() != nil
}

// IsDirectory reports true for null content unless the stat explicitly
// asserts a regular file.
func (vf *VirtualFile) IsDirectory() bool {
	vf.mu.RLock()
	defer vf.mu.RUnlock()

	return vf.content == nil && !vf.isRegularStat()
}

// IsFile reports whether vf holds stored bytes, excluding directories,
// redirect markers and symbolic links.
func (vf *VirtualFile) IsFile() bool {
	if vf.IsDirectory() {
		return false
	}

	vf.mu.RLock()
	defer vf.mu.RUnlock()

	if vf.redirect != nil {
		return false
	}

	return vf.stat == nil || !vf.stat.Mode.IsSymlink()
}

func (vf *VirtualFile) isRegularStat() bool {
	return vf.stat != nil && vf.stat.Mode.IsRegular()
}

func (vf *VirtualFile) Hash() string {
	vf.mu.RLock()
	defer vf.mu.RUnlock()

	return vf.hash
}

func (vf *VirtualFile) HasHash() bool {
	return vf.Hash() != ""
}

// ComputeHash hashes the content once and records hash and size.
// A hash that is already present, including one supplied by the backend,
// is returned unchanged.
func (vf *VirtualFile) ComputeHash() (string, error) {
	if hash := vf.Hash(); hash != "" {
		return hash, nil
	}

	if vf.IsDirectory() {
		return "", errors.IsDirectory(vf.path)
	}

	r, err := vf.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()

	hash, n, err := HashReader(r)
	if err != nil {
		return "", err
	}

	vf.mu.Lock()
	defer vf.mu.Unlock()

	vf.hash = hash
	vf.size = n
	vf.sizeKnown = true

	return hash, nil
}

// Size returns the content length and whether it is known yet.
func (vf *VirtualFile) Size() (int64, bool) {
	vf.mu.RLock()
	defer vf.mu.RUnlock()

	return vf.size, vf.sizeKnown
}

func (vf *VirtualFile) String() string {
	return vf.path
}
