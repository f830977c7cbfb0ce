// Package wikimedia provides a client for the Wikimedia pageview metrics API.
package wikimedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Semior001/topviews/app/metrics"
	"github.com/go-pkgz/requester"
	"github.com/go-pkgz/requester/middleware"
	"golang.org/x/exp/slog"
)

// DefaultBaseURL is the base URL of the pageview metrics API.
const DefaultBaseURL = "https://wikimedia.org/api/rest_v1/metrics/pageviews"

// Path layouts of dates in requests.
const (
	dayLayout   = "2006/01/02"
	monthLayout = "2006/01"
)

// Client makes requests to the pageview metrics API.
type Client struct {
	log     *slog.Logger
	cl      *requester.Requester
	baseURL string
}

// Opts defines options for the Client.
type Opts struct {
	BaseURL       string
	UserAgent     string
	MaxConcurrent int
	Middlewares   []middleware.RoundTripperHandler
}

// NewClient makes new Client.
func NewClient(lg *slog.Logger, cl http.Client, opts Opts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	mws := []middleware.RoundTripperHandler{middleware.JSON}
	if opts.UserAgent != "" {
		mws = append(mws, middleware.Header("User-Agent", opts.UserAgent))
	}
	if opts.MaxConcurrent > 0 {
		mws = append(mws, middleware.MaxConcurrent(opts.MaxConcurrent))
	}
	mws = append(mws, opts.Middlewares...)

	return &Client{
		log:     lg,
		cl:      requester.New(cl, mws...),
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
	}
}

// TopArticles returns the most viewed articles in the given country at the given day.
func (c *Client) TopArticles(ctx context.Context, country string, date time.Time) (ArticleList, error) {
	var list ArticleList
	p := fmt.Sprintf("top-per-country/%s/all-access/%s", country, date.Format(dayLayout))
	if err := c.get(ctx, "top-per-country", p, &list); err != nil {
		return ArticleList{}, err
	}
	list.Variant = VariantPerCountry
	return list, nil
}

// TopArticlesGlobal returns the most viewed articles of en.wikipedia at the given day.
func (c *Client) TopArticlesGlobal(ctx context.Context, date time.Time) (ArticleList, error) {
	var list ArticleList
	p := fmt.Sprintf("top/en.wikipedia/all-access/%s", date.Format(dayLayout))
	if err := c.get(ctx, "top", p, &list); err != nil {
		return ArticleList{}, err
	}
	list.Variant = VariantGlobal
	return list, nil
}

// TopCountries returns the countries with pageview data for the given month.
func (c *Client) TopCountries(ctx context.Context, month time.Time) (CountryList, error) {
	var list CountryList
	p := fmt.Sprintf("top-by-country/all-projects/all-access/%s", month.Format(monthLayout))
	if err := c.get(ctx, "top-by-country", p, &list); err != nil {
		return CountryList{}, err
	}
	return list, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, dst any) (err error) {
	u := c.baseURL + "/" + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := c.cl.Do(req)
	if err != nil {
		metrics.RecordUpstream(endpoint, "transport_error", time.Since(start))
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.WarnCtx(ctx, "failed to close response body", slog.Any("err", err))
		}
	}()

	metrics.RecordUpstream(endpoint, fmt.Sprint(resp.StatusCode), time.Since(start))

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !ok {
		return &StatusError{StatusCode: resp.StatusCode, URL: u}
	}

	if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
