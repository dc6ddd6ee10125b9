// Package catalog defines the domain models and the client for the upstream catalog service.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/sangeet-cli/sangeet/constant"
	"github.com/sangeet-cli/sangeet/key"
	"github.com/sangeet-cli/sangeet/log"
	"github.com/sangeet-cli/sangeet/network"
	"github.com/sangeet-cli/sangeet/resilience"
	"github.com/spf13/viper"
)

// ErrNotFound indicates the catalog has no record for the requested identifier.
var ErrNotFound = errors.New("track not found in catalog")

// Logical endpoint names used by the call governor.
const (
	EndpointLookup = "catalog.lookup"
	EndpointSearch = "catalog.search"
)

// Client is an HTTP JSON client for the upstream catalog service.
//
// Every call is routed through the resilience governor; callers on the playback
// path must treat failures as best-effort (see the enrich package).
type Client struct {
	BaseURL  string
	Governor *resilience.Governor
	HTTP     *http.Client
}

// NewClient constructs a catalog client from the global settings.
func NewClient(governor *resilience.Governor) *Client {
	return &Client{
		BaseURL:  viper.GetString(key.CatalogURL),
		Governor: governor,
		HTTP:     network.Client,
	}
}

// lookupResponse defines the internal structural mapping for catalog lookup responses.
type lookupResponse struct {
	Found bool   `json:"found"`
	Track *Track `json:"track"`
}

// searchResponse defines the internal structural mapping for catalog search responses.
type searchResponse struct {
	Results []*Track `json:"results"`
	Total   int      `json:"total"`
}

// get performs one governed GET request and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, requestURL string, out any) error {
	if c.BaseURL == "" {
		return errors.New("catalog URL is not configured")
	}

	return c.Governor.CallWithPolicy(ctx, endpoint, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", constant.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return fmt.Errorf("catalog request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return &resilience.StatusError{Code: resp.StatusCode}
		}

		return json.NewDecoder(resp.Body).Decode(out)
	}, resilience.DefaultPolicy())
}

// Lookup retrieves a single track by its stable identifier.
func (c *Client) Lookup(ctx context.Context, id string) (*Track, error) {
	requestURL := fmt.Sprintf("%s/tracks/%s", c.BaseURL, url.PathEscape(id))

	var data lookupResponse
	if err := c.get(ctx, EndpointLookup, requestURL, &data); err != nil {
		return nil, fmt.Errorf("lookup track %q: %w", id, err)
	}

	if !data.Found || data.Track == nil {
		return nil, ErrNotFound
	}

	return data.Track, nil
}

// Search queries the catalog and returns structurally valid results ranked by
// fuzzy relevance to the query, most relevant first.
func (c *Client) Search(ctx context.Context, query string) ([]*Track, error) {
	requestURL := fmt.Sprintf("%s/search?q=%s", c.BaseURL, url.QueryEscape(query))

	var data searchResponse
	if err := c.get(ctx, EndpointSearch, requestURL, &data); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	results := lo.Filter(data.Results, func(t *Track, _ int) bool {
		return t.Valid()
	})

	if len(results) == 0 {
		log.Debugf("catalog search %q returned no usable results (total %d)", query, data.Total)
		return results, nil
	}

	// Rank by fuzzy distance to the query; upstream order breaks ties and
	// non-matching results sink to the bottom.
	rank := func(t *Track) int {
		if r := fuzzy.RankMatchNormalizedFold(query, t.String()); r >= 0 {
			return r
		}
		return math.MaxInt
	}

	sort.SliceStable(results, func(i, j int) bool {
		return rank(results[i]) < rank(results[j])
	})

	return results, nil
}
