package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/maous26/smartacus/internal/apperr"
)

// HTTPProviderConfig configures an HTTPProvider (spec §6 "Catalog client").
// No ecosystem HTTP client library appears anywhere in the corpus (chi is
// server-side routing only); net/http is the correct, idiomatic choice here.
type HTTPProviderConfig struct {
	BaseURL string
	APIKey  string
}

// HTTPProvider is the RawProvider wired against the Keepa-style upstream
// product data API (spec §4.1/§6): plain JSON over HTTPS, API key as a
// query parameter, domain id selecting the marketplace.
type HTTPProvider struct {
	cfg    HTTPProviderConfig
	client *http.Client
}

// NewHTTPProvider builds an HTTPProvider bound to cfg, using client for
// transport (callers should set client.Timeout to match
// Config.RequestTimeout).
func NewHTTPProvider(cfg HTTPProviderConfig, client *http.Client) *HTTPProvider {
	return &HTTPProvider{cfg: cfg, client: client}
}

func (p *HTTPProvider) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	query.Set("key", p.cfg.APIKey)
	u := strings.TrimRight(p.cfg.BaseURL, "/") + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperr.Wrap(apperr.KindFetchError, "build request", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindFetchError, "catalog request failed", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.New(apperr.KindInvalidAuth, "catalog API rejected credentials")
	case http.StatusTooManyRequests:
		return apperr.New(apperr.KindRateLimit, "catalog API rate limit exceeded")
	case http.StatusNotFound:
		return apperr.New(apperr.KindDataNotFound, "catalog resource not found")
	default:
		return apperr.New(apperr.KindFetchError, fmt.Sprintf("catalog API returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindFetchError, "decode catalog response", err)
	}
	return nil
}

type productsEnvelope struct {
	Products   []RawProduct `json:"products"`
	TokensLeft int          `json:"tokensLeft"`
	NotFound   []string     `json:"notFound"`
}

// FetchProducts calls the product endpoint for ids (already capped to 100
// by Client before this is invoked).
func (p *HTTPProvider) FetchProducts(ctx context.Context, ids []string, opts FetchOptions) (RawBatchResponse, error) {
	query := url.Values{"asin": {strings.Join(ids, ",")}}
	if opts.IncludeHistory {
		query.Set("history", "1")
		query.Set("days", strconv.Itoa(opts.HistoryDays))
	}
	if opts.IncludeOffers {
		query.Set("offers", "1")
	}

	var env productsEnvelope
	if err := p.get(ctx, "/product", query, &env); err != nil {
		return RawBatchResponse{}, err
	}
	return RawBatchResponse{Products: env.Products, TokensLeft: env.TokensLeft, NotFoundIDs: env.NotFound}, nil
}

type idsEnvelope struct {
	IDs        []string `json:"asinList"`
	TokensLeft int      `json:"tokensLeft"`
}

// CategoryListings calls the category-browse endpoint.
func (p *HTTPProvider) CategoryListings(ctx context.Context, nodeID string, includeChildren bool, maxResults int) (RawIDsResponse, error) {
	query := url.Values{"category": {nodeID}, "perPage": {strconv.Itoa(maxResults)}}
	if includeChildren {
		query.Set("includeChildren", "1")
	}

	var env idsEnvelope
	if err := p.get(ctx, "/category/listings", query, &env); err != nil {
		return RawIDsResponse{}, err
	}
	return RawIDsResponse{IDs: env.IDs, TokensLeft: env.TokensLeft}, nil
}

// BestSellers calls the best-sellers endpoint for a category node.
func (p *HTTPProvider) BestSellers(ctx context.Context, nodeID string, topN int) (RawIDsResponse, error) {
	query := url.Values{"category": {nodeID}, "top": {strconv.Itoa(topN)}}

	var env idsEnvelope
	if err := p.get(ctx, "/bestsellers", query, &env); err != nil {
		return RawIDsResponse{}, err
	}
	return RawIDsResponse{IDs: env.IDs, TokensLeft: env.TokensLeft}, nil
}

// Search calls the keyword search endpoint with price/review bounds.
func (p *HTTPProvider) Search(ctx context.Context, keywords []string, bounds SearchBounds, maxResults int) (RawIDsResponse, error) {
	query := url.Values{
		"term":      {strings.Join(keywords, " ")},
		"perPage":   {strconv.Itoa(maxResults)},
		"minPrice":  {strconv.FormatInt(bounds.MinPriceCents, 10)},
		"maxPrice":  {strconv.FormatInt(bounds.MaxPriceCents, 10)},
		"minReview": {strconv.Itoa(bounds.MinReviews)},
		"maxReview": {strconv.Itoa(bounds.MaxReviews)},
	}

	var env idsEnvelope
	if err := p.get(ctx, "/search", query, &env); err != nil {
		return RawIDsResponse{}, err
	}
	return RawIDsResponse{IDs: env.IDs, TokensLeft: env.TokensLeft}, nil
}

// TokensRemaining calls the lightweight token-status endpoint.
func (p *HTTPProvider) TokensRemaining(ctx context.Context) (int, error) {
	var env struct {
		TokensLeft int `json:"tokensLeft"`
	}
	if err := p.get(ctx, "/token", url.Values{}, &env); err != nil {
		return 0, err
	}
	return env.TokensLeft, nil
}

// Health calls the token-status endpoint and discards the body; a
// successful decode is sufficient evidence the API is reachable and the
// key is valid.
func (p *HTTPProvider) Health(ctx context.Context) error {
	_, err := p.TokensRemaining(ctx)
	return err
}
