package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/codes"
)

// SearchOptions configures a search query.
type SearchOptions struct {
	Limit    int    `json:"limit,omitempty"`
	TBS      string `json:"tbs,omitempty"`
	Filter   string `json:"filter,omitempty"`
	Lang     string `json:"lang,omitempty"`
	Country  string `json:"country,omitempty"`
	Location string `json:"location,omitempty"`
	Timeout  int    `json:"timeout,omitempty"`
	// ScrapeOptions, when set, scrapes each search result.
	ScrapeOptions *ScrapeOptions `json:"scrapeOptions,omitempty"`

	ExtraOptions map[string]any `json:"-"`
}

var searchExtras = allowlist(
	"limit", "tbs", "filter", "lang", "country", "location", "timeout",
	"scrapeOptions",
)

// Search runs a web search and optionally scrapes each result.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) (*SearchResult, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()

	body, err := optionsToBody(opts)
	if err != nil {
		return nil, err
	}
	if opts != nil {
		if err := mergeExtra(body, opts.ExtraOptions, searchExtras, "search"); err != nil {
			return nil, err
		}
	}
	body["query"] = query
	body["origin"] = origin()

	timeoutMS := 0
	if opts != nil {
		timeoutMS = opts.Timeout
	}
	res, err := c.postJSON(ctx, "/v1/search", body, timeoutMS, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search request failed")
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		err := c.responseError(res, "search")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var payload struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
		Warning string            `json:"warning"`
		Error   string            `json:"error"`
	}
	if err := decodeJSON(res, "search", &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		if payload.Error != "" {
			return nil, fmt.Errorf("search failed: %s", payload.Error)
		}
		return nil, fmt.Errorf("search failed: malformed response: %s", res.String())
	}

	docs, err := normalizeDocuments(payload.Data, "search")
	if err != nil {
		return nil, err
	}
	return &SearchResult{Documents: docs, Warning: payload.Warning}, nil
}
