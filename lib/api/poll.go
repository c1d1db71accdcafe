package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type jobKind int

const (
	jobCrawl jobKind = iota
	jobBatchScrape
)

func (k jobKind) path() string {
	switch k {
	case jobBatchScrape:
		return "/v1/batch/scrape"
	default:
		return "/v1/crawl"
	}
}

func (k jobKind) name() string {
	switch k {
	case jobBatchScrape:
		return "batch scrape"
	default:
		return "crawl"
	}
}

// minPollInterval bounds how hard a caller-supplied interval can hit
// the status endpoint.
const minPollInterval = 2 * time.Second

var inProgressStatuses = map[string]bool{
	StatusScraping: true,
	StatusActive:   true,
	StatusPaused:   true,
	StatusPending:  true,
	StatusQueued:   true,
	StatusWaiting:  true,
}

// waitForJob polls a job until it reaches a terminal state, then
// returns the aggregated result. It blocks the calling goroutine,
// suspending at each status query and each sleep; cancellation happens
// only through ctx.
func (c *Client) waitForJob(ctx context.Context, kind jobKind, id string, pollInterval time.Duration) (*JobStatus, error) {
	if pollInterval < minPollInterval {
		pollInterval = minPollInterval
	}
	action := fmt.Sprintf("check %s status", kind.name())
	statusURL := fmt.Sprintf("%s/%s", kind.path(), id)

	for {
		page, err := c.fetchStatusPage(ctx, statusURL, action)
		if err != nil {
			return nil, err
		}
		switch {
		case page.Status == StatusCompleted:
			return c.aggregatePages(ctx, page, action)
		case inProgressStatuses[page.Status]:
			if err := c.sleep(ctx, pollInterval); err != nil {
				return nil, err
			}
		default:
			return nil, &JobFailedError{ID: id, Status: page.Status, Detail: page.Error}
		}
	}
}

func (c *Client) fetchStatusPage(ctx context.Context, url, action string) (*statusPage, error) {
	res, err := c.getJSON(ctx, url)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		return nil, c.responseError(res, action)
	}
	var page statusPage
	if err := decodeJSON(res, action, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// aggregatePages walks the page chain starting from first, appending
// documents in page-fetch order. A failed page fetch stops pagination
// but does not fail the job: partial data beats total failure once the
// job itself has succeeded. Scalar fields come from the last fetched
// page.
func (c *Client) aggregatePages(ctx context.Context, first *statusPage, action string) (*JobStatus, error) {
	raws := first.Data
	page := first

	for page.Next != "" && len(page.Data) > 0 {
		res, err := c.getJSON(ctx, page.Next)
		if err != nil {
			slog.WarnContext(ctx, "pagination request failed, returning partial results",
				"next", page.Next, "err", err)
			break
		}
		if res.StatusCode() != http.StatusOK {
			slog.WarnContext(ctx, "failed to fetch next result page, returning partial results",
				"next", page.Next, "status_code", res.StatusCode())
			break
		}
		var next statusPage
		if err := decodeJSON(res, action, &next); err != nil {
			slog.WarnContext(ctx, "failed to parse next result page, returning partial results",
				"next", page.Next, "err", err)
			break
		}
		raws = append(raws, next.Data...)
		page = &next
	}

	docs, err := normalizeDocuments(raws, action)
	if err != nil {
		return nil, err
	}
	status := statusFromPage(page)
	status.Data = docs
	return status, nil
}

func statusFromPage(page *statusPage) *JobStatus {
	return &JobStatus{
		Status:      page.Status,
		Total:       page.Total,
		Completed:   page.Completed,
		CreditsUsed: page.CreditsUsed,
		ExpiresAt:   page.ExpiresAt,
		Next:        page.Next,
		Error:       page.Error,
	}
}

// jobStatus is a single status check: when the job has completed it
// walks the page chain, otherwise it returns the page as-is.
func (c *Client) jobStatus(ctx context.Context, kind jobKind, id string) (*JobStatus, error) {
	action := fmt.Sprintf("check %s status", kind.name())
	page, err := c.fetchStatusPage(ctx, fmt.Sprintf("%s/%s", kind.path(), id), action)
	if err != nil {
		return nil, err
	}
	if page.Status == StatusCompleted {
		return c.aggregatePages(ctx, page, action)
	}
	docs, err := normalizeDocuments(page.Data, action)
	if err != nil {
		return nil, err
	}
	status := statusFromPage(page)
	status.Data = docs
	return status, nil
}

func (c *Client) jobErrors(ctx context.Context, kind jobKind, id string) (*JobErrors, error) {
	action := fmt.Sprintf("check %s errors", kind.name())
	res, err := c.getJSON(ctx, fmt.Sprintf("%s/%s/errors", kind.path(), id))
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		return nil, c.responseError(res, action)
	}
	var out JobErrors
	if err := decodeJSON(res, action, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
