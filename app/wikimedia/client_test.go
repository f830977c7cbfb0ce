package wikimedia

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-pkgz/requester/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
	"golang.org/x/time/rate"
)

func TestClient_TopArticles(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/top-per-country/US/all-access/2019/12/30", r.URL.Path)
		assert.Equal(t, "topviews-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{"items":[{"country":"US","access":"all-access",` +
			`"articles":[{"article":"asdf","project":"en.wikipedia","views_ceil":123,"rank":1}]}]}`))
		require.NoError(t, err)
	}))
	defer ts.Close()

	cl := NewClient(slog.Default(), http.Client{}, Opts{BaseURL: ts.URL, UserAgent: "topviews-test"})

	list, err := cl.TopArticles(context.Background(), "US", time.Date(2019, 12, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, ArticleList{
		Variant: VariantPerCountry,
		Items: []ArticleItem{{
			Country: "US",
			Access:  "all-access",
			Articles: []Article{{
				Article:   "asdf",
				Project:   "en.wikipedia",
				ViewsCeil: 123,
				Rank:      1,
			}},
		}},
	}, list)
	assert.Equal(t, int64(123), list.Items[0].Articles[0].ViewCount(list.Variant))
}

func TestClient_TopArticlesGlobal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/top/en.wikipedia/all-access/2020/01/05", r.URL.Path)
		_, err := w.Write([]byte(`{"items":[{"articles":[{"article":"Main_Page","views":1000}]}]}`))
		require.NoError(t, err)
	}))
	defer ts.Close()

	cl := NewClient(slog.Default(), http.Client{}, Opts{BaseURL: ts.URL + "/"})

	list, err := cl.TopArticlesGlobal(context.Background(), time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, VariantGlobal, list.Variant)
	assert.Equal(t, "views", list.Variant.ViewsField())
	assert.Equal(t, int64(1000), list.Items[0].Articles[0].ViewCount(list.Variant))
}

func TestClient_TopCountries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/top-by-country/all-projects/all-access/2019/11", r.URL.Path)
		_, err := w.Write([]byte(`{"items":[{"countries":[{"country":"US"},{"country":"JP"}]}]}`))
		require.NoError(t, err)
	}))
	defer ts.Close()

	cl := NewClient(slog.Default(), http.Client{}, Opts{BaseURL: ts.URL})

	list, err := cl.TopCountries(context.Background(), time.Date(2019, 11, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, CountryList{Items: []CountryItem{{
		Countries: []Country{{Country: "US"}, {Country: "JP"}},
	}}}, list)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		notFound bool
		msg      string
	}{
		{name: "not found", status: http.StatusNotFound, notFound: true, msg: "Request failed with status code 404"},
		{name: "server error", status: http.StatusInternalServerError, msg: "Request failed with status code 500"},
		{name: "bad request", status: http.StatusBadRequest, msg: "Request failed with status code 400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"type":"https://mediawiki.org/wiki/HyperSwitch/errors/not_found"}`))
			}))
			defer ts.Close()

			cl := NewClient(slog.Default(), http.Client{}, Opts{BaseURL: ts.URL})

			_, err := cl.TopArticles(context.Background(), "US", time.Now())
			require.Error(t, err)

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.notFound, IsNotFound(err))
			assert.Equal(t, tt.msg, Message(err))
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	cl := NewClient(slog.Default(), http.Client{}, Opts{BaseURL: ts.URL})

	_, err := cl.TopArticles(context.Background(), "US", time.Now())
	require.Error(t, err)
	assert.False(t, IsNotFound(err))

	msg := Message(err)
	assert.Contains(t, msg, `Get "`+ts.URL+"/top-per-country/US/all-access/")
	assert.NotContains(t, msg, "do request")
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: errors.New("boom"), want: "boom"},
		{name: "wrapped cause", err: fmt.Errorf("get top: %w", fmt.Errorf("decode: %w", errors.New("unexpected EOF"))),
			want: "unexpected EOF"},
		{name: "status", err: fmt.Errorf("get top: %w", &StatusError{StatusCode: 503, URL: "http://x/top"}),
			want: "Request failed with status code 503"},
		{name: "transport keeps url", err: fmt.Errorf("do request: %w",
			&url.Error{Op: "Get", URL: "http://x/top", Err: errors.New("connection refused")}),
			want: `Get "http://x/top": connection refused`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}

func TestClient_BadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":`))
	}))
	defer ts.Close()

	cl := NewClient(slog.Default(), http.Client{}, Opts{BaseURL: ts.URL})

	_, err := cl.TopCountries(context.Background(), time.Now())
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "decode response")
}

func TestRateLimit(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer ts.Close()

	// a limiter with no tokens and no refill rejects the wait immediately
	cl := NewClient(slog.Default(), http.Client{}, Opts{
		BaseURL:     ts.URL,
		Middlewares: []middleware.RoundTripperHandler{RateLimit(rate.NewLimiter(0, 0))},
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := cl.TopCountries(ctx, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wait for rate limiter")
	assert.Zero(t, calls)
}
