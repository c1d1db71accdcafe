package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{
		APIKey:       "test-key",
		APIURL:       server.URL,
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

// recordSleeps replaces the poller's suspension point so tests observe
// requested intervals instead of waiting them out.
func recordSleeps(c *Client) *[]time.Duration {
	sleeps := &[]time.Duration{}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return sleeps
}

func TestNewClientRequiresKeyForHostedService(t *testing.T) {
	t.Setenv("EMBERCRAWL_API_KEY", "")
	t.Setenv("EMBERCRAWL_API_URL", "")

	_, err := NewClient(ClientOptions{})
	require.ErrorIs(t, err, ErrValidation)

	// Self-hosted deployments may run without authentication.
	_, err = NewClient(ClientOptions{APIURL: "http://localhost:3002"})
	require.NoError(t, err)
}

func TestRetryOnBadGateway(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"success":true,"data":{"markdown":"hello"}}`))
	}))

	doc, err := client.Scrape(context.Background(), "https://example.com", nil)
	require.NoError(t, err)
	require.Equal(t, "hello", doc.Markdown)
	require.EqualValues(t, 3, hits.Load())
}

func TestRetryExhaustion(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream unavailable"}`))
	}))

	_, err := client.Scrape(context.Background(), "https://example.com", nil)
	require.ErrorIs(t, err, ErrAPI)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)

	// Default bound is the first attempt plus two retries.
	require.EqualValues(t, 3, hits.Load())
}

func TestRetryBackoffSchedule(t *testing.T) {
	if testing.Short() {
		t.Skip("observes multi-second retry delays")
	}

	var mu sync.Mutex
	var arrivals []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream unavailable"}`))
	}))
	t.Cleanup(server.Close)

	// A backoff above 1s pushes the second delay past resty's default
	// 2s wait ceiling, so a reintroduced clamp fails this test.
	backoff := 1200 * time.Millisecond
	client, err := NewClient(ClientOptions{
		APIKey:       "test-key",
		APIURL:       server.URL,
		RetryBackoff: backoff,
	})
	require.NoError(t, err)

	_, err = client.Scrape(context.Background(), "https://example.com", nil)
	require.ErrorIs(t, err, ErrAPI)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, arrivals, 3)
	delay1 := arrivals[1].Sub(arrivals[0])
	delay2 := arrivals[2].Sub(arrivals[1])
	require.GreaterOrEqual(t, delay1, backoff)
	require.GreaterOrEqual(t, delay2, 2*backoff)
}

func TestNoRetryOnServerError(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))

	_, err := client.Scrape(context.Background(), "https://example.com", nil)
	require.ErrorIs(t, err, ErrAPI)
	require.EqualValues(t, 1, hits.Load())
}

func TestResponseErrorMessages(t *testing.T) {
	for _, tc := range []struct {
		statusCode int
		contains   string
	}{
		{402, "Payment Required"},
		{403, "Website Not Supported"},
		{408, "Request Timeout"},
		{409, "Conflict"},
		{500, "Internal Server Error"},
		{418, "Status code 418"},
	} {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.statusCode)
			w.Write([]byte(`{"error":"the message","details":{"hint":"the details"}}`))
		}))

		_, err := client.Scrape(context.Background(), "https://example.com", nil)
		require.ErrorIs(t, err, ErrAPI)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, tc.statusCode, apiErr.StatusCode)
		require.Contains(t, apiErr.Error(), tc.contains)
		require.Contains(t, apiErr.Error(), "the message")
		require.Contains(t, apiErr.Error(), "the details")
	}
}

func TestResponseErrorDefaults(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{}`))
	}))

	_, err := client.Scrape(context.Background(), "https://example.com", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "No error message provided.", apiErr.Message)
	require.Equal(t, "No additional error details provided.", apiErr.Details)
}

func TestNonJSONErrorBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("<html>not json</html>"))
	}))

	_, err := client.Scrape(context.Background(), "https://example.com", nil)
	require.ErrorIs(t, err, ErrParse)
	require.False(t, errors.Is(err, ErrAPI))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, http.StatusBadRequest, parseErr.StatusCode)
}

func TestMergeExtraRejectsUnknownKeys(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	_, err := client.Scrape(context.Background(), "https://example.com", &ScrapeOptions{
		ExtraOptions: map[string]any{"zzz": 1, "aaa": 2, "waitFor": 100},
	})
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "unsupported parameter(s) for scrape: aaa, zzz")

	// Validation fires before any request is made.
	require.EqualValues(t, 0, hits.Load())
}
