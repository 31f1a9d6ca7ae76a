package datasource

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/storage"
	"github.com/tidwall/jsonc"
)

// Meta holds what was found in a meta location: site data and a query.
type Meta struct {
	Data  any
	Query string
	Files []string
}

// MetaLoader reads a meta location through a storage adapter.
// JSON files provide data, .graphql and .sql files provide the query.
type MetaLoader struct {
	logger  *log.Logger
	adapter storage.Adapter
	globs   []string
	prefix  string
}

func NewMetaLoader(adapter storage.Adapter, globs []string, prefix string, logger *log.Logger) *MetaLoader {
	if logger == nil {
		logger = log.NewDiscard()
	}

	return &MetaLoader{
		logger:  logger.Named("meta"),
		adapter: adapter,
		globs:   globs,
		prefix:  prefix,
	}
}

func (ml *MetaLoader) Load(ctx context.Context) (*Meta, error) {
	files, err := ml.adapter.List(ctx, ml.globs, ml.prefix, storage.WithContent())
	if err != nil {
		return nil, err
	}

	meta := &Meta{}
	for _, file := range files {
		if file.IsDirectory() || file.Name() == SnapshotName {
			continue
		}

		b, err := file.Bytes()
		if err != nil {
			return nil, err
		}

		switch strings.ToLower(file.Ext()) {
		case ".json":
			value, err := decodeJSON(b)
			if err != nil {
				return nil, errors.DataSource(err, "invalid json in '%s'", file.Path())
			}
			if meta.Data != nil {
				ml.logger.Warn("Data in '%s' replaces previously loaded data", file.Path())
			}
			meta.Data = value
		case ".graphql", ".gql", ".sql":
			meta.Query = string(b)
		case ".js":
			ml.logger.Warn("Ignoring '%s', transforms are registered by name", file.Path())
			continue
		default:
			return nil, errors.DataSource(nil, "unsupported file type '%s' in meta location", file.Path())
		}

		meta.Files = append(meta.Files, file.Path())
	}

	ml.logger.Debug("Loaded %d meta files", len(meta.Files))
	return meta, nil
}

// resolveQuery returns query, falling back to the query found by meta.
func resolveQuery(ctx context.Context, query string, meta *MetaLoader) (string, error) {
	if strings.TrimSpace(query) != "" || meta == nil {
		return query, nil
	}

	m, err := meta.Load(ctx)
	if err != nil {
		return "", err
	}

	return m.Query, nil
}

// FileSource serves the JSON data found in a meta location, either on the
// local filesystem or in object storage.
type FileSource struct {
	name string
	meta *MetaLoader
}

func NewFileSource(name string, meta *MetaLoader) *FileSource {
	return &FileSource{
		name: name,
		meta: meta,
	}
}

func (fs *FileSource) Name() string {
	return fs.name
}

func (fs *FileSource) Fetch(ctx context.Context) (any, error) {
	meta, err := fs.meta.Load(ctx)
	if err != nil {
		return nil, err
	}

	return meta.Data, nil
}

// decodeJSON parses JSON that may contain comments and trailing commas.
func decodeJSON(b []byte) (any, error) {
	var value any
	if err := json.Unmarshal(jsonc.ToJSON(b), &value); err != nil {
		return nil, err
	}

	return value, nil
}
