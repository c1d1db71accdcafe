package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/codes"
)

// ScrapeOptions configures a single-page scrape. Zero-valued fields
// are omitted from the request so the service applies its defaults.
type ScrapeOptions struct {
	Formats             []string               `json:"formats,omitempty"`
	Headers             map[string]string      `json:"headers,omitempty"`
	IncludeTags         []string               `json:"includeTags,omitempty"`
	ExcludeTags         []string               `json:"excludeTags,omitempty"`
	OnlyMainContent     *bool                  `json:"onlyMainContent,omitempty"`
	WaitFor             int                    `json:"waitFor,omitempty"`
	Timeout             int                    `json:"timeout,omitempty"`
	Location            *Location              `json:"location,omitempty"`
	Mobile              *bool                  `json:"mobile,omitempty"`
	SkipTLSVerification *bool                  `json:"skipTlsVerification,omitempty"`
	RemoveBase64Images  *bool                  `json:"removeBase64Images,omitempty"`
	BlockAds            *bool                  `json:"blockAds,omitempty"`
	Proxy               string                 `json:"proxy,omitempty"`
	Extract             *JSONOptions           `json:"extract,omitempty"`
	JSONOptions         *JSONOptions           `json:"jsonOptions,omitempty"`
	Actions             []Action               `json:"actions,omitempty"`
	ChangeTracking      *ChangeTrackingOptions `json:"changeTrackingOptions,omitempty"`
	Agent               *AgentOptions          `json:"agent,omitempty"`

	// ExtraOptions is merged into the request body last, for forward
	// compatibility with server options this SDK does not yet model.
	// Keys are validated against the operation's allow-list.
	ExtraOptions map[string]any `json:"-"`
}

var scrapeExtras = allowlist(
	"formats", "headers", "includeTags", "excludeTags", "onlyMainContent",
	"waitFor", "timeout", "location", "mobile", "skipTlsVerification",
	"removeBase64Images", "blockAds", "proxy", "extract", "jsonOptions",
	"actions", "changeTrackingOptions", "agent",
)

// Scrape fetches a single URL and returns its content in the requested
// formats.
func (c *Client) Scrape(ctx context.Context, url string, opts *ScrapeOptions) (*Document, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	body, err := scrapeBody(url, opts)
	if err != nil {
		return nil, err
	}
	timeoutMS := 0
	if opts != nil {
		timeoutMS = opts.Timeout
	}

	res, err := c.postJSON(ctx, "/v1/scrape", body, timeoutMS, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scrape request failed")
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		err := c.responseError(res, "scrape URL")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var payload struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := decodeJSON(res, "scrape URL", &payload); err != nil {
		return nil, err
	}
	if !payload.Success || payload.Data == nil {
		if payload.Error != "" {
			return nil, fmt.Errorf("failed to scrape URL: %s", payload.Error)
		}
		return nil, fmt.Errorf("failed to scrape URL: malformed response: %s", res.String())
	}

	doc, err := normalizeDocument(payload.Data)
	if err != nil {
		return nil, &ParseError{Action: "scrape URL", StatusCode: res.StatusCode(), Cause: err}
	}
	return doc, nil
}

func scrapeBody(url string, opts *ScrapeOptions) (map[string]any, error) {
	var body map[string]any
	var err error
	if opts == nil {
		body = map[string]any{}
	} else {
		body, err = optionsToBody(opts)
		if err != nil {
			return nil, err
		}
		if err := mergeExtra(body, opts.ExtraOptions, scrapeExtras, "scrape"); err != nil {
			return nil, err
		}
	}
	body["url"] = url
	body["origin"] = origin()
	return body, nil
}
