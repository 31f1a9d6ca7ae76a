package datasource

import (
	"context"
	"encoding/json"
	"path"

	"github.com/mwantia/webproducer/data"
	"github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/storage"
)

// SnapshotName is the file written next to the meta files when snapshots are enabled.
const SnapshotName = "snapshot.json"

// Source fetches the raw site data from one kind of backend.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (any, error)
}

// Loader provides the normalized dataset the template producer renders.
type Loader interface {
	Load(ctx context.Context) (Dataset, error)
}

// DataLoader fetches from a Source, optionally snapshots and transforms the
// result, and normalizes it into a Dataset.
type DataLoader struct {
	logger *log.Logger
	source Source

	transform        Transform
	snapshot         storage.Adapter
	snapshotLocation string
}

type DataLoaderOption func(*DataLoader)

func WithTransform(transform Transform) DataLoaderOption {
	return func(dl *DataLoader) {
		dl.transform = transform
	}
}

// WithSnapshot stores the fetched data as snapshot.json below location.
func WithSnapshot(adapter storage.Adapter, location string) DataLoaderOption {
	return func(dl *DataLoader) {
		dl.snapshot = adapter
		dl.snapshotLocation = location
	}
}

func NewLoader(source Source, logger *log.Logger, opts ...DataLoaderOption) *DataLoader {
	if logger == nil {
		logger = log.NewDiscard()
	}

	dl := &DataLoader{
		logger: logger.Named("data"),
		source: source,
	}
	for _, opt := range opts {
		opt(dl)
	}

	return dl
}

func (dl *DataLoader) Load(ctx context.Context) (Dataset, error) {
	if dl.source == nil {
		return nil, errors.DataSource(nil, "no data source configured")
	}

	raw, err := dl.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if isEmpty(raw) {
		return nil, errors.DataSource(nil, "data not found in source '%s'", dl.source.Name())
	}

	if dl.snapshot != nil {
		if err := dl.writeSnapshot(ctx, raw); err != nil {
			return nil, err
		}
	}

	if dl.transform != nil {
		if raw, err = dl.transform.Transform(raw); err != nil {
			return nil, errors.DataSource(err, "transform failed")
		}
	}

	dataset, err := NewDataset(raw)
	if err != nil {
		return nil, errors.DataSource(err, "invalid data from source '%s'", dl.source.Name())
	}

	dl.logger.Debug("Loaded %d records from source '%s'", len(dataset), dl.source.Name())
	return dataset, nil
}

func (dl *DataLoader) writeSnapshot(ctx context.Context, raw any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return errors.DataSource(err, "snapshot encoding failed")
	}

	file, err := data.NewVirtualFile(path.Join(dl.snapshotLocation, SnapshotName),
		data.WithContent(b),
		data.WithContentType(data.ContentTypeApplicationJson))
	if err != nil {
		return err
	}

	dl.logger.Debug("Writing snapshot '%s'", file.Path())
	return dl.snapshot.Write(ctx, file)
}

func isEmpty(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case []map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
