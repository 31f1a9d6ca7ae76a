package errors

import (
	"errors"
	"fmt"
	"sync"
)

// Standard errors used across adapters, producers and engines.
var (
	// Path resolution errors
	ErrInvalidPath = errors.New("webproducer: invalid path")

	// VirtualFile errors
	ErrInvalidContent = errors.New("webproducer: invalid content")
	ErrNotExist       = errors.New("webproducer: file does not exist")
	ErrIsDirectory    = errors.New("webproducer: is a directory")

	// Storage errors
	ErrStorageUnavailable  = errors.New("webproducer: storage unavailable")
	ErrStorageAccessDenied = errors.New("webproducer: storage access denied")
	ErrStorageIO           = errors.New("webproducer: storage i/o failure")

	// Run errors
	ErrConfig         = errors.New("webproducer: invalid configuration")
	ErrDataSource     = errors.New("webproducer: data source failure")
	ErrTemplateRender = errors.New("webproducer: template render failure")
)

// Error carries the kind of failure next to the originating cause.
// errors.Is matches both the kind sentinel and anything the cause matches.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	text := fmt.Sprintf("%v: %s", e.Kind, e.Msg)
	if e.Err != nil {
		text = fmt.Sprintf("%s: %v", text, e.Err)
	}

	return text
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// IsRetryable reports whether repeating the failed operation could succeed.
// Nothing retries today, but access-denied failures must never be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	return !errors.Is(err, ErrStorageAccessDenied) && !errors.Is(err, ErrConfig) && !errors.Is(err, ErrInvalidContent)
}

type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = make([]error, 0)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}

func newError(kind, err error, format string, args ...any) error {
	return &Error{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
		Err:  err,
	}
}
