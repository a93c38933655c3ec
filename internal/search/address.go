package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/paulmach/orb"
)

// AddressSuggestion is one hit from the external free-text address source.
type AddressSuggestion struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

// AddressSource is the external autocomplete collaborator. Implementations
// must constrain results to the service region.
type AddressSource interface {
	SuggestAddresses(ctx context.Context, text string) ([]AddressSuggestion, error)
}

// AddressClientConfig configures the HTTP address source.
type AddressClientConfig struct {
	BaseURL string
	APIKey  string
	// Region bounds every query; suggestions outside it are not wanted.
	Region orb.Bound
	// Country restricts results, ISO 3166-1 alpha-2 (default "us").
	Country string
	// HTTPClient overrides the default retrying client, used in tests.
	HTTPClient *http.Client
}

// AddressClient talks to a places-autocomplete style endpoint.
type AddressClient struct {
	cfg    AddressClientConfig
	client *http.Client
}

// NewAddressClient creates the HTTP address source.
func NewAddressClient(cfg AddressClientConfig) *AddressClient {
	if cfg.Country == "" {
		cfg.Country = "us"
	}
	client := cfg.HTTPClient
	if client == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = 1
		rc.Logger = nil
		client = rc.StandardClient()
	}
	return &AddressClient{cfg: cfg, client: client}
}

// SuggestAddresses queries the autocomplete endpoint bounded to the
// configured region and country.
func (c *AddressClient) SuggestAddresses(ctx context.Context, text string) ([]AddressSuggestion, error) {
	q := url.Values{}
	q.Set("input", text)
	q.Set("components", "country:"+c.cfg.Country)
	q.Set("bounds", fmt.Sprintf("%f,%f|%f,%f",
		c.cfg.Region.Min[1], c.cfg.Region.Min[0], c.cfg.Region.Max[1], c.cfg.Region.Max[0]))
	q.Set("strictbounds", "true")
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("address request build failed: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("address request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("address source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("address response read failed: %w", err)
	}
	var payload struct {
		Predictions []AddressSuggestion `json:"predictions"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("address response decode failed: %w", err)
	}
	return payload.Predictions, nil
}
