package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartCrawl(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/crawl", r.URL.Path)
		require.Equal(t, "dedupe-key", r.Header.Get("x-idempotency-key"))

		body := decodeBody(t, r)
		require.Equal(t, "https://example.com", body["url"])
		require.Equal(t, "go-sdk@"+Version, body["origin"])
		require.EqualValues(t, 10, body["limit"])

		w.Write([]byte(`{"success":true,"id":"job-1","url":"https://api.test/v1/crawl/job-1"}`))
	}))

	job, err := client.StartCrawl(context.Background(), "https://example.com", &CrawlOptions{
		Limit:          10,
		IdempotencyKey: "dedupe-key",
	})
	require.NoError(t, err)
	require.Equal(t, "job-1", job.ID)
	require.Equal(t, "https://api.test/v1/crawl/job-1", job.URL)
}

func TestStartCrawlNoJobID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"quota exceeded"}`))
	}))

	_, err := client.StartCrawl(context.Background(), "https://example.com", nil)
	require.ErrorContains(t, err, "quota exceeded")
}

func TestCrawlEndToEnd(t *testing.T) {
	var statusHits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"success":true,"id":"job-1"}`))
			return
		}
		require.Equal(t, "/v1/crawl/job-1", r.URL.Path)
		if statusHits.Add(1) == 1 {
			w.Write([]byte(`{"success":true,"status":"scraping","completed":1,"total":2}`))
			return
		}
		w.Write([]byte(`{
			"success": true, "status": "completed",
			"completed": 2, "total": 2, "creditsUsed": 2,
			"data": [{"markdown":"a"},{"markdown":"b"}]
		}`))
	}))
	sleeps := recordSleeps(client)

	status, err := client.Crawl(context.Background(), "https://example.com", nil)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, status.Status)
	require.Len(t, status.Data, 2)
	require.EqualValues(t, 2, statusHits.Load())
	require.Len(t, *sleeps, 1)
}

func TestCrawlJobFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"success":true,"id":"job-1"}`))
			return
		}
		w.Write([]byte(`{"success":false,"status":"failed","error":"all pages blocked"}`))
	}))

	_, err := client.Crawl(context.Background(), "https://example.com", nil)
	require.ErrorIs(t, err, ErrJobFailed)

	var jobErr *JobFailedError
	require.ErrorAs(t, err, &jobErr)
	require.Equal(t, "job-1", jobErr.ID)
	require.Equal(t, StatusFailed, jobErr.Status)
	require.Equal(t, "all pages blocked", jobErr.Detail)
}

func TestCancelCrawl(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/v1/crawl/job-1", r.URL.Path)
		w.Write([]byte(`{"success":true,"status":"cancelled"}`))
	}))

	require.NoError(t, client.CancelCrawl(context.Background(), "job-1"))
}

func TestCancelCrawlRefused(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"job already finished"}`))
	}))

	err := client.CancelCrawl(context.Background(), "job-1")
	require.ErrorContains(t, err, "job already finished")
}

func TestStartBatchScrape(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/batch/scrape", r.URL.Path)
		body := decodeBody(t, r)
		require.Equal(t, []any{"https://a.test", "https://b.test"}, body["urls"])
		require.Equal(t, []any{"markdown"}, body["formats"])

		w.Write([]byte(`{"success":true,"id":"batch-1","invalidURLs":["not a url"]}`))
	}))

	job, err := client.StartBatchScrape(context.Background(),
		[]string{"https://a.test", "https://b.test"},
		&BatchScrapeOptions{
			ScrapeOptions: ScrapeOptions{Formats: []string{FormatMarkdown}},
		},
	)
	require.NoError(t, err)
	require.Equal(t, "batch-1", job.ID)
}

func TestStartBatchScrapeRequiresURLs(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	_, err := client.StartBatchScrape(context.Background(), nil, nil)
	require.ErrorIs(t, err, ErrValidation)
	require.EqualValues(t, 0, hits.Load())
}

func TestBatchScrapeEndToEnd(t *testing.T) {
	var statusHits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			body := decodeBody(t, r)
			require.Equal(t, []any{"https://a.test", "https://b.test"}, body["urls"])
			w.Write([]byte(`{"success":true,"id":"batch-1"}`))
			return
		}
		require.Equal(t, "/v1/batch/scrape/batch-1", r.URL.Path)
		if statusHits.Add(1) == 1 {
			w.Write([]byte(`{"success":true,"status":"scraping"}`))
			return
		}
		w.Write([]byte(`{
			"success": true, "status": "completed",
			"completed": 2, "total": 2,
			"data": [{"markdown":"docA"},{"markdown":"docB"}]
		}`))
	}))
	sleeps := recordSleeps(client)

	status, err := client.BatchScrape(context.Background(),
		[]string{"https://a.test", "https://b.test"}, nil)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, status.Status)
	require.Len(t, status.Data, 2)
	require.Equal(t, "docA", status.Data[0].Markdown)
	require.Equal(t, "docB", status.Data[1].Markdown)
	require.EqualValues(t, 2, statusHits.Load())
	require.Equal(t, []time.Duration{2 * time.Second}, *sleeps)
}
