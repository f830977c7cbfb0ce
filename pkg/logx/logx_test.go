package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-pkgz/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	var res []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		rec := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		res = append(res, rec)
	}
	return res
}

func TestChain_RequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	lg := slog.New(&Chain{
		Middleware: []Middleware{RequestID()},
		Handler:    slog.HandlerOptions{}.NewJSONHandler(buf),
	})

	lg.InfoCtx(ContextWithRequestID(context.Background(), "req-1"), "with id")
	lg.With(slog.String("prefix", "web")).InfoCtx(context.Background(), "without id")

	recs := records(t, buf)
	require.Len(t, recs, 2)

	assert.Equal(t, "with id", recs[0]["msg"])
	assert.Equal(t, "req-1", recs[0]["request_id"])

	assert.Equal(t, "without id", recs[1]["msg"])
	assert.Equal(t, "web", recs[1]["prefix"])
	assert.NotContains(t, recs[1], "request_id")
}

func TestRequestIDFromContext(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := RequestIDFromContext(ContextWithRequestID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}

func TestLoggingRoundTripper(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "topviews (admin@example.com)", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer ts.Close()

	buf := &bytes.Buffer{}
	lg := slog.New(slog.HandlerOptions{Level: slog.LevelDebug}.NewJSONHandler(buf))

	cl := requester.New(http.Client{}, LoggingRoundTripper(lg, RoundTripperOpts{
		Level:         slog.LevelDebug,
		SecretHeaders: []string{"User-Agent"},
	}))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/top", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "topviews (admin@example.com)")

	resp, err := cl.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(body), "body must be readable after logging")

	recs := records(t, buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "request sent", recs[0]["msg"])
	assert.Equal(t, "response received", recs[1]["msg"])

	assert.NotContains(t, buf.String(), "admin@example.com")

	response := recs[1]["response"].(map[string]any)
	assert.EqualValues(t, http.StatusOK, response["StatusCode"])
	assert.Equal(t, `{"items":[]}`, response["ResponseBody"])
}

func TestLoggingRoundTripper_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close()

	buf := &bytes.Buffer{}
	lg := slog.New(slog.HandlerOptions{}.NewJSONHandler(buf))

	cl := requester.New(http.Client{}, LoggingRoundTripper(lg, RoundTripperOpts{Level: slog.LevelInfo}))

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = cl.Do(req)
	require.Error(t, err)

	recs := records(t, buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "request failed", recs[1]["msg"])
	assert.Contains(t, recs[1], "err")
}

func TestCopyAndTrim(t *testing.T) {
	long := strings.Repeat("a", trimBodyAt+10)

	rd, res := copyAndTrim(io.NopCloser(strings.NewReader(long)))
	assert.Equal(t, long[:trimBodyAt]+"...", res)

	full, err := io.ReadAll(rd)
	require.NoError(t, err)
	assert.Equal(t, long, string(full))

	rd, res = copyAndTrim(nil)
	assert.Nil(t, rd)
	assert.Empty(t, res)
}
