package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/log"
)

// GraphQLSource posts a query to a GraphQL endpoint with a bearer token.
type GraphQLSource struct {
	logger *log.Logger
	client *http.Client

	options *GraphQLOptions
	meta    *MetaLoader
}

type GraphQLOptions struct {
	Endpoint  string
	Token     string
	Query     string
	Published bool
	Provider  Provider
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLResponse struct {
	Data   any            `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// NewGraphQLSource creates the source. When options.Query is empty the
// query is read from meta on every fetch.
func NewGraphQLSource(options *GraphQLOptions, meta *MetaLoader, logger *log.Logger) *GraphQLSource {
	if logger == nil {
		logger = log.NewDiscard()
	}
	if options.Provider == "" {
		options.Provider = ProviderDatoCMS
	}

	return &GraphQLSource{
		logger:  logger.Named("graphql"),
		client:  cleanhttp.DefaultPooledClient(),
		options: options,
		meta:    meta,
	}
}

func (gs *GraphQLSource) Name() string {
	return "graphql"
}

func (gs *GraphQLSource) Fetch(ctx context.Context) (any, error) {
	query, err := resolveQuery(ctx, gs.options.Query, gs.meta)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.DataSource(nil, "a query is required for type graphql")
	}
	// An unset ${env:...} token used to render as the literal "undefined"
	if gs.options.Token == "" || gs.options.Token == "undefined" {
		return nil, errors.DataSource(nil, "an auth token is required for type graphql")
	}

	endpoint, err := normalizeEndpoint(gs.options.Provider, gs.options.Endpoint, gs.options.Published)
	if err != nil {
		return nil, errors.DataSource(err, "invalid graphql endpoint")
	}

	body, err := json.Marshal(graphQLRequest{Query: query})
	if err != nil {
		return nil, errors.DataSource(err, "graphql request encoding failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.DataSource(err, "invalid graphql request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+gs.options.Token)

	gs.logger.Debug("Querying '%s'", endpoint)

	resp, err := gs.client.Do(req)
	if err != nil {
		return nil, errors.DataSource(err, "graphql request to '%s' failed", endpoint)
	}
	defer resp.Body.Close()

	var result graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, errors.DataSource(nil, "graphql endpoint responded with %s", resp.Status)
		}
		return nil, errors.DataSource(err, "graphql response decoding failed")
	}
	io.Copy(io.Discard, resp.Body)

	if len(result.Errors) > 0 {
		messages := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			messages = append(messages, e.Message)
		}
		return nil, errors.DataSource(fmt.Errorf("%s", strings.Join(messages, "; ")), "graphql query failed")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.DataSource(nil, "graphql endpoint responded with %s", resp.Status)
	}

	return result.Data, nil
}
