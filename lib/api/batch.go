package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// BatchScrapeOptions configures a batch scrape job. The embedded
// ScrapeOptions apply to every URL in the batch.
type BatchScrapeOptions struct {
	ScrapeOptions
	Webhook *WebhookConfig `json:"webhook,omitempty"`

	PollInterval   time.Duration `json:"-"`
	IdempotencyKey string        `json:"-"`
}

var batchScrapeExtras = allowlist(
	"formats", "headers", "includeTags", "excludeTags", "onlyMainContent",
	"waitFor", "timeout", "location", "mobile", "skipTlsVerification",
	"removeBase64Images", "blockAds", "proxy", "extract", "jsonOptions",
	"actions", "changeTrackingOptions", "agent", "webhook",
)

// StartBatchScrape submits a batch scrape job for a set of URLs and
// returns its handle without waiting for completion.
func (c *Client) StartBatchScrape(ctx context.Context, urls []string, opts *BatchScrapeOptions) (*Job, error) {
	ctx, span := tracer.Start(ctx, "StartBatchScrape")
	defer span.End()

	if len(urls) == 0 {
		return nil, &ValidationError{Message: "at least one url is required"}
	}

	body, err := optionsToBody(opts)
	if err != nil {
		return nil, err
	}
	idempotencyKey := ""
	if opts != nil {
		if err := mergeExtra(body, opts.ExtraOptions, batchScrapeExtras, "batch scrape"); err != nil {
			return nil, err
		}
		idempotencyKey = opts.IdempotencyKey
	}
	body["urls"] = urls
	body["origin"] = origin()

	res, err := c.postJSON(ctx, "/v1/batch/scrape", body, 0, idempotencyKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch scrape submission failed")
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		err := c.responseError(res, "start batch scrape job")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var payload struct {
		Success     bool     `json:"success"`
		ID          string   `json:"id"`
		URL         string   `json:"url"`
		InvalidURLs []string `json:"invalidURLs"`
		Error       string   `json:"error"`
	}
	if err := decodeJSON(res, "start batch scrape job", &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		if payload.Error != "" {
			return nil, fmt.Errorf("failed to start batch scrape job: %s", payload.Error)
		}
		return nil, fmt.Errorf("failed to start batch scrape job: no job id returned")
	}
	return &Job{ID: payload.ID, URL: payload.URL, kind: jobBatchScrape}, nil
}

// BatchScrape submits a batch scrape job and blocks until it reaches a
// terminal state, returning the aggregated result.
func (c *Client) BatchScrape(ctx context.Context, urls []string, opts *BatchScrapeOptions) (*JobStatus, error) {
	ctx, span := tracer.Start(ctx, "BatchScrape")
	defer span.End()

	job, err := c.StartBatchScrape(ctx, urls, opts)
	if err != nil {
		return nil, err
	}
	var pollInterval time.Duration
	if opts != nil {
		pollInterval = opts.PollInterval
	}
	return c.waitForJob(ctx, jobBatchScrape, job.ID, pollInterval)
}

// BatchScrapeStatus checks a batch scrape job once, aggregating the
// page chain when the job has completed.
func (c *Client) BatchScrapeStatus(ctx context.Context, id string) (*JobStatus, error) {
	ctx, span := tracer.Start(ctx, "BatchScrapeStatus")
	defer span.End()
	return c.jobStatus(ctx, jobBatchScrape, id)
}

// BatchScrapeErrors lists per-URL errors and robots.txt-blocked URLs
// for a batch scrape job.
func (c *Client) BatchScrapeErrors(ctx context.Context, id string) (*JobErrors, error) {
	ctx, span := tracer.Start(ctx, "BatchScrapeErrors")
	defer span.End()
	return c.jobErrors(ctx, jobBatchScrape, id)
}
