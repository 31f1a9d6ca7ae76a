package datasource

import (
	"context"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/log"
)

// ConsulSource reads site data from the Consul KV store. A key ending with
// "/" is treated as prefix and every value below it becomes one record.
type ConsulSource struct {
	logger *log.Logger
	kv     *api.KV

	key string
}

func NewConsulSource(address, token, key string, logger *log.Logger) (*ConsulSource, error) {
	if logger == nil {
		logger = log.NewDiscard()
	}

	clientConfig := api.DefaultConfig()
	if address != "" {
		clientConfig.Address = address
	}
	if token != "" {
		clientConfig.Token = token
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, errors.DataSource(err, "consul client creation failed")
	}

	return &ConsulSource{
		logger: logger.Named("consul"),
		kv:     client.KV(),
		key:    strings.TrimPrefix(key, "/"),
	}, nil
}

func (cs *ConsulSource) Name() string {
	return "consul"
}

func (cs *ConsulSource) Fetch(ctx context.Context) (any, error) {
	if cs.key == "" {
		return nil, errors.DataSource(nil, "a key is required for type consul")
	}

	opts := (&api.QueryOptions{}).WithContext(ctx)

	if strings.HasSuffix(cs.key, "/") {
		pairs, _, err := cs.kv.List(cs.key, opts)
		if err != nil {
			return nil, errors.DataSource(err, "consul list '%s' failed", cs.key)
		}

		records := make([]any, 0, len(pairs))
		for _, pair := range pairs {
			if len(pair.Value) == 0 {
				continue
			}

			value, err := decodeJSON(pair.Value)
			if err != nil {
				return nil, errors.DataSource(err, "invalid json in consul key '%s'", pair.Key)
			}
			records = append(records, value)
		}

		cs.logger.Debug("Loaded %d values below '%s'", len(records), cs.key)
		return records, nil
	}

	pair, _, err := cs.kv.Get(cs.key, opts)
	if err != nil {
		return nil, errors.DataSource(err, "consul get '%s' failed", cs.key)
	}
	if pair == nil {
		return nil, nil
	}

	value, err := decodeJSON(pair.Value)
	if err != nil {
		return nil, errors.DataSource(err, "invalid json in consul key '%s'", cs.key)
	}

	return value, nil
}
