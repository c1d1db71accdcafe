package api

import (
	"encoding/json"
	"time"
)

// Job statuses reported by the service. Any status outside this set is
// treated as failure-terminal.
const (
	StatusScraping  = "scraping"
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusPending   = "pending"
	StatusQueued    = "queued"
	StatusWaiting   = "waiting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Content formats that can be requested from a scrape.
const (
	FormatMarkdown           = "markdown"
	FormatHTML               = "html"
	FormatRawHTML            = "rawHtml"
	FormatLinks              = "links"
	FormatScreenshot         = "screenshot"
	FormatScreenshotFullPage = "screenshot@fullPage"
	FormatExtract            = "extract"
	FormatJSON               = "json"
	FormatChangeTracking     = "changeTracking"
)

// Document is one scraped page in whatever formats were requested.
type Document struct {
	Markdown       string            `json:"markdown,omitempty"`
	HTML           string            `json:"html,omitempty"`
	RawHTML        string            `json:"rawHtml,omitempty"`
	Links          []string          `json:"links,omitempty"`
	Screenshot     string            `json:"screenshot,omitempty"`
	Extract        json.RawMessage   `json:"extract,omitempty"`
	JSON           json.RawMessage   `json:"json,omitempty"`
	ChangeTracking *ChangeTracking   `json:"changeTracking,omitempty"`
	Metadata       *DocumentMetadata `json:"metadata,omitempty"`
	Warning        string            `json:"warning,omitempty"`
}

type DocumentMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	SourceURL   string `json:"sourceURL,omitempty"`
	StatusCode  int    `json:"statusCode,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ChangeTracking is the change-detection sub-object attached to a
// document when the changeTracking format was requested.
type ChangeTracking struct {
	PreviousScrapeAt *time.Time      `json:"previousScrapeAt,omitempty"`
	ChangeStatus     string          `json:"changeStatus,omitempty"`
	Visibility       string          `json:"visibility,omitempty"`
	Diff             json.RawMessage `json:"diff,omitempty"`
	JSON             json.RawMessage `json:"json,omitempty"`
}

// Location configures the geographic origin of the scraper.
type Location struct {
	Country   string   `json:"country,omitempty"`
	Languages []string `json:"languages,omitempty"`
}

// JSONOptions configures LLM-backed structured extraction of a page.
type JSONOptions struct {
	Prompt       string `json:"prompt,omitempty"`
	Schema       any    `json:"schema,omitempty"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
	Agent        any    `json:"agent,omitempty"`
}

// Action is a browser action performed before scraping (wait, click,
// scroll, ...). The key set is defined by the service and open-ended,
// so actions are passed through as-is.
type Action map[string]any

// ChangeTrackingOptions configures the changeTracking format.
type ChangeTrackingOptions struct {
	Modes  []string `json:"modes,omitempty"`
	Schema any      `json:"schema,omitempty"`
	Prompt string   `json:"prompt,omitempty"`
}

// AgentOptions selects the browsing agent used for a scrape.
type AgentOptions struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

// WebhookConfig configures job progress notifications.
type WebhookConfig struct {
	URL      string            `json:"url"`
	Headers  map[string]string `json:"headers,omitempty"`
	Metadata map[string]any    `json:"metadata,omitempty"`
	Events   []string          `json:"events,omitempty"`
}

// Job is the handle returned when an asynchronous job is accepted.
type Job struct {
	ID string
	// URL is the status-check locator reported by the service.
	URL  string
	kind jobKind
}

// JobStatus is the (possibly aggregated) state of an asynchronous job.
// Data holds documents concatenated in page-fetch order; the scalar
// fields always reflect the last fetched page.
type JobStatus struct {
	Status      string
	Total       int
	Completed   int
	CreditsUsed int
	ExpiresAt   time.Time
	// Next is non-empty when pagination stopped before the end of the
	// page chain, either because a page fetch failed or because the
	// job is still running.
	Next  string
	Data  []*Document
	Error string
}

// JobErrors lists per-URL failures and robots.txt blocks for a job.
type JobErrors struct {
	Errors        []JobError `json:"errors"`
	RobotsBlocked []string   `json:"robotsBlocked"`
}

type JobError struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Error     string `json:"error"`
}

// SearchResult is the outcome of a search query.
type SearchResult struct {
	Documents []*Document
	Warning   string
}

// MapResult is the outcome of a site-map discovery.
type MapResult struct {
	Links []string `json:"links"`
}

// ExtractStatus is the state of a structured-extraction job.
type ExtractStatus struct {
	ID        string          `json:"id,omitempty"`
	Status    string          `json:"status,omitempty"`
	Success   bool            `json:"success,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Sources   json.RawMessage `json:"sources,omitempty"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// statusPage is one raw page of a job status response. Pages are
// chained through Next.
type statusPage struct {
	Success     bool              `json:"success"`
	Status      string            `json:"status"`
	Total       int               `json:"total"`
	Completed   int               `json:"completed"`
	CreditsUsed int               `json:"creditsUsed"`
	ExpiresAt   time.Time         `json:"expiresAt"`
	Next        string            `json:"next"`
	Data        []json.RawMessage `json:"data"`
	Error       string            `json:"error"`
}
