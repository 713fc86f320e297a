package fxprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosspay/ledger/internal/domain"
)

// HTTPProvider fetches mid-market rates from a JSON rate API shaped
// like exchangerate.host: GET {base}/latest?base=USD&symbols=EUR.
type HTTPProvider struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewHTTPProvider creates a provider client with a bounded per-call timeout.
func NewHTTPProvider(name, baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:    name,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name identifies the provider in logs and rate snapshots.
func (p *HTTPProvider) Name() string {
	return p.name
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// FetchRate retrieves the current mid rate for base/target.
func (p *HTTPProvider) FetchRate(ctx context.Context, base, target string) (*domain.ExchangeRate, error) {
	endpoint := fmt.Sprintf("%s/latest?base=%s&symbols=%s",
		p.baseURL, url.QueryEscape(base), url.QueryEscape(target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch rate: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rate: %s: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch rate: %s: unexpected status %d: %s", p.name, resp.StatusCode, body)
	}

	var parsed latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("fetch rate: %s: decode: %w", p.name, err)
	}

	mid, ok := parsed.Rates[target]
	if !ok {
		return nil, fmt.Errorf("fetch rate: %s: no quote for %s/%s", p.name, base, target)
	}

	return &domain.ExchangeRate{
		Base:      base,
		Target:    target,
		Mid:       mid,
		Provider:  p.name,
		FetchedAt: time.Now().UTC(),
	}, nil
}
