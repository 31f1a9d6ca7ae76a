package webproducer

import (
	"strings"

	"github.com/mwantia/webproducer/config"
	"github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/datasource"
	"github.com/mwantia/webproducer/log"
	"github.com/mwantia/webproducer/storage"
	"github.com/mwantia/webproducer/storage/local"
	"github.com/mwantia/webproducer/storage/s3"
)

// NewStorageAdapter creates the adapter for a configured storage location.
// A filesystem location is created on Open when create is set.
func NewStorageAdapter(cfg config.StorageConfig, create bool, logger *log.Logger) (storage.Adapter, error) {
	switch cfg.Type {
	case config.StorageFilesystem, "":
		if strings.HasPrefix(cfg.Path, "s3://") {
			return newS3Location(cfg.Path, cfg, logger)
		}

		var opts []local.LocalAdapterOption
		if create {
			opts = append(opts, local.WithCreateRoot())
		}
		return local.NewLocalAdapter(cfg.Path, logger, opts...), nil
	case config.StorageS3:
		if strings.HasPrefix(cfg.Path, "s3://") {
			return newS3Location(cfg.Path, cfg, logger)
		}

		return s3.NewS3Adapter(&s3.S3AdapterOptions{
			Endpoint: cfg.Endpoint,
			Region:   cfg.Region,
			Bucket:   cfg.Bucket,
			Prefix:   cfg.Prefix,
			ACL:      cfg.ACL,
			Insecure: cfg.Insecure,
		}, logger)
	default:
		return nil, errors.Config(nil, "unsupported storage type '%s'", cfg.Type)
	}
}

func newS3Location(location string, cfg config.StorageConfig, logger *log.Logger) (storage.Adapter, error) {
	bucket, prefix, err := s3.ParseURL(location)
	if err != nil {
		return nil, errors.Config(err, "invalid s3 location")
	}

	return s3.NewS3Adapter(&s3.S3AdapterOptions{
		Endpoint: cfg.Endpoint,
		Region:   cfg.Region,
		Bucket:   bucket,
		Prefix:   prefix,
		ACL:      cfg.ACL,
		Insecure: cfg.Insecure,
	}, logger)
}

// NewDataSource creates the configured data source. Meta files (data, query)
// are read from data.path when set, otherwise through source at the
// location of the build data globs.
func NewDataSource(cfg *config.Config, source storage.Adapter, logger *log.Logger) (datasource.Source, error) {
	switch cfg.Data.Type {
	case config.DataGraphQL:
		meta, err := newMetaLoader(cfg, source, logger)
		if err != nil {
			return nil, err
		}
		return datasource.NewGraphQLSource(&datasource.GraphQLOptions{
			Endpoint:  cfg.Data.Endpoint,
			Token:     cfg.Data.Token,
			Query:     cfg.Data.Query,
			Published: cfg.Data.Published,
			Provider:  datasource.Provider(cfg.Data.Provider),
		}, meta, logger), nil
	case config.DataFilesystem, config.DataS3:
		meta, err := newMetaLoader(cfg, source, logger)
		if err != nil {
			return nil, err
		}
		return datasource.NewFileSource(string(cfg.Data.Type), meta), nil
	case config.DataGet:
		return datasource.NewHTTPSource(cfg.Data.Endpoint, cfg.Data.Token, logger), nil
	case config.DataSQL:
		meta, err := newMetaLoader(cfg, source, logger)
		if err != nil {
			return nil, err
		}
		return datasource.NewSQLSource(cfg.Data.Endpoint, cfg.Data.Query, meta, logger), nil
	case config.DataConsul:
		return datasource.NewConsulSource(cfg.Data.Endpoint, cfg.Data.Token, cfg.Data.Path, logger)
	case config.DataMongo:
		return nil, errors.DataSource(nil, "data source type mongo is not implemented")
	default:
		return nil, errors.DataSource(nil, "data source type '%s' is not supported", cfg.Data.Type)
	}
}

// metaLocation returns the adapter, globs and prefix holding the meta files.
func metaLocation(cfg *config.Config, source storage.Adapter, logger *log.Logger) (storage.Adapter, []string, string, error) {
	switch {
	case strings.HasPrefix(cfg.Data.Path, "s3://"):
		adapter, err := newS3Location(cfg.Data.Path, config.StorageConfig{Region: cfg.Data.Region}, logger)
		return adapter, nil, "", err
	case cfg.Data.Path != "":
		return local.NewLocalAdapter(cfg.Data.Path, logger), nil, "", nil
	default:
		matcher := storage.NewMatcher(cfg.Build.Data)
		if cfg.Data.Type == config.DataFilesystem {
			return source, cfg.Build.Data, matcher.Prefix(), nil
		}
		// Query based sources read the whole folder the data globs live in
		return source, nil, matcher.Prefix(), nil
	}
}

func newMetaLoader(cfg *config.Config, source storage.Adapter, logger *log.Logger) (*datasource.MetaLoader, error) {
	adapter, globs, prefix, err := metaLocation(cfg, source, logger)
	if err != nil {
		return nil, err
	}

	return datasource.NewMetaLoader(adapter, globs, prefix, logger), nil
}
