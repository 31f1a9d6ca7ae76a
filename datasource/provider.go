package datasource

import (
	"fmt"
	"net/url"
	"sort"
)

// Provider names a hosted GraphQL service whose draft/published selection
// is expressed through the endpoint URL.
type Provider string

const (
	ProviderDatoCMS  Provider = "datocms"
	ProviderCosmicJS Provider = "cosmicjs"
)

// publishNormalizer rewrites an endpoint for the requested publish state.
type publishNormalizer func(endpoint *url.URL, published bool)

var providers = map[Provider]publishNormalizer{
	// DatoCMS serves drafts from /preview. The published flag selects it,
	// which matches how existing site configurations use it.
	ProviderDatoCMS: func(endpoint *url.URL, published bool) {
		if published {
			endpoint.Path = "/preview"
		}
	},
	ProviderCosmicJS: func(endpoint *url.URL, published bool) {},
}

// normalizeEndpoint applies the provider's rewrite to a copy of endpoint.
func normalizeEndpoint(provider Provider, endpoint string, published bool) (string, error) {
	normalizer, exists := providers[provider]
	if !exists {
		return "", fmt.Errorf("unrecognised provider '%s', supported: %v", provider, providerNames())
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("endpoint '%s' is not an absolute url", endpoint)
	}

	normalizer(u, published)
	return u.String(), nil
}

func providerNames() []string {
	names := make([]string, 0, len(providers))
	for provider := range providers {
		names = append(names, string(provider))
	}
	sort.Strings(names)

	return names
}
