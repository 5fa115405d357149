package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

// DefaultTimeout bounds every request when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Options configures the Gamma and CLOB REST clients.
type Options struct {
	// Timeout applies to each HTTP call. There is no retry.
	Timeout time.Duration

	UserAgent string

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// restClient carries the plumbing shared by GammaClient and ClobClient.
type restClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func newRESTClient(baseURL string, opts Options) restClient {
	return restClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: opts.httpClient(),
	}
}

// do sends a JSON request and returns the raw response body. Non-2xx
// responses are mapped through checkHTTPStatus.
func (c restClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

// decodeNumbers unmarshals body keeping numbers as json.Number so numeric
// ids and prices survive untouched.
func decodeNumbers(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// pricesRequest is the body of POST /prices.
type pricesRequest struct {
	Tokens []string `json:"tokens"`
	Side   string   `json:"side"`
}

// flexPrice unmarshals a quote sent as a JSON number, a numeric string,
// null, or an object keyed by side ({"BUY": "0.52"}).
type flexPrice struct {
	value  *float64
	bySide map[string]*float64
}

func (f *flexPrice) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		f.bySide = make(map[string]*float64, len(obj))
		for k, raw := range obj {
			f.bySide[strings.ToLower(k)] = scalarPrice(raw)
		}
		return nil
	}
	f.value = scalarPrice(trimmed)
	return nil
}

// forSide returns the price for side. An object with a single entry is read
// regardless of its key.
func (f flexPrice) forSide(side domain.PriceSide) *float64 {
	if f.bySide == nil {
		return f.value
	}
	if p, ok := f.bySide[string(side)]; ok {
		return p
	}
	if len(f.bySide) == 1 {
		for _, p := range f.bySide {
			return p
		}
	}
	return nil
}

func scalarPrice(raw json.RawMessage) *float64 {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := n.Float64(); err == nil {
			return &v
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

// APIBook is the response of GET /book.
type APIBook struct {
	Market    string         `json:"market"`
	AssetID   string         `json:"asset_id"`
	Bids      []APIBookLevel `json:"bids"`
	Asks      []APIBookLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
	Hash      string         `json:"hash"`
}

// APIBookLevel is a single bid/ask level.
type APIBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// ToDomainOrderBook converts the API book into a domain.OrderBook. Levels
// with unparseable numbers are skipped.
func (b *APIBook) ToDomainOrderBook(tokenID string) domain.OrderBook {
	ob := domain.OrderBook{
		TokenID: tokenID,
		Market:  b.Market,
		Bids:    toLevels(b.Bids),
		Asks:    toLevels(b.Asks),
	}
	if b.AssetID != "" {
		ob.TokenID = b.AssetID
	}

	if ts, err := strconv.ParseInt(b.Timestamp, 10, 64); err == nil {
		// CLOB reports milliseconds; older payloads used seconds.
		if ts > 1e12 {
			ob.Timestamp = time.UnixMilli(ts).UTC()
		} else {
			ob.Timestamp = time.Unix(ts, 0).UTC()
		}
	} else if t, err := time.Parse(time.RFC3339, b.Timestamp); err == nil {
		ob.Timestamp = t
	} else {
		ob.Timestamp = time.Now().UTC()
	}

	return ob
}

func toLevels(in []APIBookLevel) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(in))
	for _, lvl := range in {
		p, err := decimal.NewFromString(lvl.Price)
		if err != nil {
			continue
		}
		s, err := decimal.NewFromString(lvl.Size)
		if err != nil {
			continue
		}
		out = append(out, domain.PriceLevel{Price: p, Size: s})
	}
	return out
}
