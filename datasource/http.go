package datasource

import (
	"context"
	"io"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/log"
)

// HTTPSource fetches JSON data with a plain GET request.
type HTTPSource struct {
	logger *log.Logger
	client *http.Client

	endpoint string
	token    string
}

func NewHTTPSource(endpoint, token string, logger *log.Logger) *HTTPSource {
	if logger == nil {
		logger = log.NewDiscard()
	}

	return &HTTPSource{
		logger:   logger.Named("get"),
		client:   cleanhttp.DefaultPooledClient(),
		endpoint: endpoint,
		token:    token,
	}
}

func (hs *HTTPSource) Name() string {
	return "get"
}

func (hs *HTTPSource) Fetch(ctx context.Context) (any, error) {
	if hs.endpoint == "" {
		return nil, errors.DataSource(nil, "an endpoint is required for type get")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hs.endpoint, nil)
	if err != nil {
		return nil, errors.DataSource(err, "invalid request for '%s'", hs.endpoint)
	}
	req.Header.Set("Accept", "application/json")
	if hs.token != "" {
		req.Header.Set("Authorization", "Bearer "+hs.token)
	}

	hs.logger.Debug("Fetching '%s'", hs.endpoint)

	resp, err := hs.client.Do(req)
	if err != nil {
		return nil, errors.DataSource(err, "request to '%s' failed", hs.endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.DataSource(nil, "'%s' responded with %s", hs.endpoint, resp.Status)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.DataSource(err, "reading '%s' failed", hs.endpoint)
	}

	value, err := decodeJSON(b)
	if err != nil {
		return nil, errors.DataSource(err, "invalid json from '%s'", hs.endpoint)
	}

	return value, nil
}
