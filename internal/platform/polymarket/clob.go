package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

// ClobClient is the REST client for the public endpoints of the Polymarket
// CLOB (Central Limit Order Book) API.
type ClobClient struct {
	rest restClient
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClobClient(baseURL string, opts Options) *ClobClient {
	return &ClobClient{rest: newRESTClient(baseURL, opts)}
}

// GetPrices batch-fetches the best price on side for each token. Side buy is
// the best ask; sell is the best bid. Every requested token gets an entry;
// tokens the API omits or quotes as null map to nil.
func (c *ClobClient) GetPrices(ctx context.Context, tokenIDs []string, side domain.PriceSide) (domain.Quotes, error) {
	if len(tokenIDs) == 0 {
		return domain.Quotes{}, nil
	}
	if !side.Valid() {
		return nil, fmt.Errorf("polymarket/clob: invalid price side %q", side)
	}

	respBody, err := c.rest.do(ctx, http.MethodPost, "/prices", pricesRequest{
		Tokens: tokenIDs,
		Side:   string(side),
	})
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get prices: %w", err)
	}

	var apiPrices map[string]flexPrice
	if err := json.Unmarshal(respBody, &apiPrices); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode prices: %w", err)
	}

	quotes := make(domain.Quotes, len(tokenIDs))
	for _, id := range tokenIDs {
		if p, ok := apiPrices[id]; ok {
			quotes[id] = p.forSide(side)
		} else {
			quotes[id] = nil
		}
	}
	return quotes, nil
}

// GetOrderBook returns the full order book for one token.
func (c *ClobClient) GetOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	respBody, err := c.rest.do(ctx, http.MethodGet, "/book?"+params.Encode(), nil)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err)
	}

	var book APIBook
	if err := json.Unmarshal(respBody, &book); err != nil {
		return domain.OrderBook{}, fmt.Errorf("polymarket/clob: decode book: %w", err)
	}

	return book.ToDomainOrderBook(tokenID), nil
}
