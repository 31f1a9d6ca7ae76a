package datasource

import (
	"fmt"
	"sort"
	"sync"
)

// Transform reshapes fetched data before it is normalized into records.
type Transform interface {
	Transform(data any) (any, error)
}

// TransformFunc adapts a plain function into a Transform.
type TransformFunc func(data any) (any, error)

func (f TransformFunc) Transform(data any) (any, error) {
	return f(data)
}

var (
	transformsMu sync.RWMutex
	transforms   = map[string]Transform{
		"identity": TransformFunc(func(data any) (any, error) {
			return data, nil
		}),
		"pages": SelectField(PagesField),
	}
)

// RegisterTransform makes a transform available by name, e.g. for the
// --transform flag. Registering an existing name replaces it.
func RegisterTransform(name string, transform Transform) {
	transformsMu.Lock()
	defer transformsMu.Unlock()

	transforms[name] = transform
}

// LookupTransform returns the transform registered under name.
func LookupTransform(name string) (Transform, error) {
	transformsMu.RLock()
	defer transformsMu.RUnlock()

	transform, exists := transforms[name]
	if !exists {
		return nil, fmt.Errorf("unknown transform '%s', registered: %v", name, transformNames())
	}

	return transform, nil
}

func transformNames() []string {
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// SelectField returns a transform that replaces an object by one of its members.
func SelectField(field string) Transform {
	return TransformFunc(func(data any) (any, error) {
		m, ok := data.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot select '%s' from %T", field, data)
		}

		value, exists := m[field]
		if !exists {
			return nil, fmt.Errorf("field '%s' not found", field)
		}

		return value, nil
	})
}
