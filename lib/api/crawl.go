package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// CrawlOptions configures a crawl job.
type CrawlOptions struct {
	IncludePaths           []string       `json:"includePaths,omitempty"`
	ExcludePaths           []string       `json:"excludePaths,omitempty"`
	MaxDepth               int            `json:"maxDepth,omitempty"`
	MaxDiscoveryDepth      int            `json:"maxDiscoveryDepth,omitempty"`
	Limit                  int            `json:"limit,omitempty"`
	AllowBackwardLinks     *bool          `json:"allowBackwardLinks,omitempty"`
	AllowExternalLinks     *bool          `json:"allowExternalLinks,omitempty"`
	IgnoreSitemap          *bool          `json:"ignoreSitemap,omitempty"`
	ScrapeOptions          *ScrapeOptions `json:"scrapeOptions,omitempty"`
	Webhook                *WebhookConfig `json:"webhook,omitempty"`
	DeduplicateSimilarURLs *bool          `json:"deduplicateSimilarURLs,omitempty"`
	IgnoreQueryParameters  *bool          `json:"ignoreQueryParameters,omitempty"`
	RegexOnFullURL         *bool          `json:"regexOnFullURL,omitempty"`
	Delay                  int            `json:"delay,omitempty"`

	// PollInterval is used by Crawl between status checks. A floor of
	// 2s is enforced regardless.
	PollInterval time.Duration `json:"-"`
	// IdempotencyKey lets the server deduplicate retried submissions.
	IdempotencyKey string         `json:"-"`
	ExtraOptions   map[string]any `json:"-"`
}

var crawlExtras = allowlist(
	"includePaths", "excludePaths", "maxDepth", "maxDiscoveryDepth",
	"limit", "allowBackwardLinks", "allowExternalLinks", "ignoreSitemap",
	"scrapeOptions", "webhook", "deduplicateSimilarURLs",
	"ignoreQueryParameters", "regexOnFullURL", "delay",
)

// StartCrawl submits a crawl job and returns its handle without
// waiting for completion.
func (c *Client) StartCrawl(ctx context.Context, url string, opts *CrawlOptions) (*Job, error) {
	ctx, span := tracer.Start(ctx, "StartCrawl")
	defer span.End()

	body, err := optionsToBody(opts)
	if err != nil {
		return nil, err
	}
	idempotencyKey := ""
	if opts != nil {
		if err := mergeExtra(body, opts.ExtraOptions, crawlExtras, "crawl"); err != nil {
			return nil, err
		}
		idempotencyKey = opts.IdempotencyKey
	}
	body["url"] = url
	body["origin"] = origin()

	res, err := c.postJSON(ctx, "/v1/crawl", body, 0, idempotencyKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "crawl submission failed")
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		err := c.responseError(res, "start crawl job")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var payload struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
		URL     string `json:"url"`
		Error   string `json:"error"`
	}
	if err := decodeJSON(res, "start crawl job", &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		if payload.Error != "" {
			return nil, fmt.Errorf("failed to start crawl job: %s", payload.Error)
		}
		return nil, fmt.Errorf("failed to start crawl job: no job id returned")
	}
	return &Job{ID: payload.ID, URL: payload.URL, kind: jobCrawl}, nil
}

// Crawl submits a crawl job and blocks until it reaches a terminal
// state, returning the aggregated result.
func (c *Client) Crawl(ctx context.Context, url string, opts *CrawlOptions) (*JobStatus, error) {
	ctx, span := tracer.Start(ctx, "Crawl")
	defer span.End()

	job, err := c.StartCrawl(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	var pollInterval time.Duration
	if opts != nil {
		pollInterval = opts.PollInterval
	}
	return c.waitForJob(ctx, jobCrawl, job.ID, pollInterval)
}

// CrawlStatus checks a crawl job once. When the job has completed the
// full page chain is fetched and aggregated.
func (c *Client) CrawlStatus(ctx context.Context, id string) (*JobStatus, error) {
	ctx, span := tracer.Start(ctx, "CrawlStatus")
	defer span.End()
	return c.jobStatus(ctx, jobCrawl, id)
}

// CrawlErrors lists per-URL errors and robots.txt-blocked URLs for a
// crawl job.
func (c *Client) CrawlErrors(ctx context.Context, id string) (*JobErrors, error) {
	ctx, span := tracer.Start(ctx, "CrawlErrors")
	defer span.End()
	return c.jobErrors(ctx, jobCrawl, id)
}

// CancelCrawl cancels a crawl job. An in-flight poller on the same job
// is not interrupted; it observes the cancelled status on its next
// query.
func (c *Client) CancelCrawl(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "CancelCrawl")
	defer span.End()

	res, err := c.deleteJSON(ctx, "/v1/crawl/"+id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if res.StatusCode() != http.StatusOK {
		err := c.responseError(res, "cancel crawl job")
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	var payload struct {
		Success bool   `json:"success"`
		Status  string `json:"status"`
		Error   string `json:"error"`
	}
	if err := decodeJSON(res, "cancel crawl job", &payload); err != nil {
		return err
	}
	if !payload.Success && payload.Status != StatusCancelled {
		if payload.Error != "" {
			return fmt.Errorf("failed to cancel crawl job: %s", payload.Error)
		}
		return fmt.Errorf("failed to cancel crawl job")
	}
	return nil
}
