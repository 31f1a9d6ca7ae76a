package datasource

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// KeyField names the template a record is rendered with.
	KeyField = "webProducerKey"
	// LegacyKeyField is accepted when KeyField is absent.
	LegacyKeyField = "modelName"
	// PathField holds the output path of a record.
	PathField = "path"
	// RedirectKey marks records that become redirect rules instead of pages.
	RedirectKey = "redirect"
	// RedirectTargetField holds the location a redirect points to.
	RedirectTargetField = "targetAddress"
	// PagesField selects the record collection when the data has one.
	PagesField = "pages"
)

// Record is one page worth of data, keyed by field name.
type Record map[string]any

// Path returns the trimmed output path of the record.
func (r Record) Path() string {
	return strings.TrimSpace(r.String(PathField))
}

// Key returns the template identifier of the record.
func (r Record) Key() string {
	if key := r.String(KeyField); key != "" {
		return key
	}

	return r.String(LegacyKeyField)
}

// String returns field as string, or an empty string when it is missing
// or not a string.
func (r Record) String(field string) string {
	value, ok := r[field].(string)
	if !ok {
		return ""
	}

	return value
}

// Dataset holds all records of one run ordered by output path.
type Dataset []Record

// NewDataset normalizes raw data into records. A "pages" member is used when
// present. Objects are keyed by output path, arrays carry a path per record.
// Members that are not objects, and array records without path, are skipped.
func NewDataset(raw any) (Dataset, error) {
	if m, ok := raw.(map[string]any); ok {
		if pages, exists := m[PagesField]; exists {
			raw = pages
		}
	}

	var dataset Dataset
	switch v := raw.(type) {
	case map[string]any:
		for key, value := range v {
			fields, ok := value.(map[string]any)
			if !ok {
				continue
			}

			record := make(Record, len(fields)+1)
			for field, value := range fields {
				record[field] = value
			}
			if record.Path() == "" {
				record[PathField] = strings.TrimSpace(key)
			}
			dataset = append(dataset, record)
		}
	case []any:
		for _, value := range v {
			fields, ok := value.(map[string]any)
			if !ok {
				continue
			}

			record := Record(fields)
			if record.Path() == "" {
				continue
			}
			dataset = append(dataset, record)
		}
	case []map[string]any:
		for _, fields := range v {
			record := Record(fields)
			if record.Path() == "" {
				continue
			}
			dataset = append(dataset, record)
		}
	default:
		return nil, fmt.Errorf("unsupported data shape %T", raw)
	}

	sort.SliceStable(dataset, func(i, j int) bool {
		return dataset[i].Path() < dataset[j].Path()
	})

	return dataset, nil
}
