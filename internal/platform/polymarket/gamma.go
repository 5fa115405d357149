package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and metadata. Records are returned raw; the
// market package owns their interpretation.
type GammaClient struct {
	rest restClient
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string, opts Options) *GammaClient {
	return &GammaClient{rest: newRESTClient(baseURL, opts)}
}

// GetMarkets returns one page of markets. A nil closed leaves the filter off.
func (g *GammaClient) GetMarkets(ctx context.Context, limit, offset int, closed *bool) ([]domain.RawMarket, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if closed != nil {
		params.Set("closed", strconv.FormatBool(*closed))
	}

	path := "/markets?" + params.Encode()

	body, err := g.rest.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets: %w", err)
	}

	var markets []domain.RawMarket
	if err := decodeNumbers(body, &markets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}

	return markets, nil
}

// GetMarket returns a single market by its ID.
func (g *GammaClient) GetMarket(ctx context.Context, id string) (domain.RawMarket, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(id))

	body, err := g.rest.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get market %s: %w", id, err)
	}

	var market domain.RawMarket
	if err := decodeNumbers(body, &market); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode market: %w", err)
	}
	if market == nil {
		return nil, fmt.Errorf("polymarket/gamma: %w: id=%s", domain.ErrNotFound, id)
	}

	return market, nil
}
