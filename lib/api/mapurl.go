package api

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/codes"
)

// MapOptions configures site-map URL discovery.
type MapOptions struct {
	Search            string `json:"search,omitempty"`
	IgnoreSitemap     *bool  `json:"ignoreSitemap,omitempty"`
	IncludeSubdomains *bool  `json:"includeSubdomains,omitempty"`
	SitemapOnly       *bool  `json:"sitemapOnly,omitempty"`
	Limit             int    `json:"limit,omitempty"`
	Timeout           int    `json:"timeout,omitempty"`

	ExtraOptions map[string]any `json:"-"`
}

var mapExtras = allowlist(
	"search", "ignoreSitemap", "includeSubdomains", "sitemapOnly",
	"limit", "timeout",
)

// MapURL discovers the URLs reachable under a site.
func (c *Client) MapURL(ctx context.Context, url string, opts *MapOptions) (*MapResult, error) {
	ctx, span := tracer.Start(ctx, "MapURL")
	defer span.End()

	body, err := optionsToBody(opts)
	if err != nil {
		return nil, err
	}
	if opts != nil {
		if err := mergeExtra(body, opts.ExtraOptions, mapExtras, "map"); err != nil {
			return nil, err
		}
	}
	body["url"] = url
	body["origin"] = origin()

	timeoutMS := 0
	if opts != nil {
		timeoutMS = opts.Timeout
	}
	res, err := c.postJSON(ctx, "/v1/map", body, timeoutMS, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "map request failed")
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		err := c.responseError(res, "map")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var payload struct {
		Success bool     `json:"success"`
		Links   []string `json:"links"`
		Error   string   `json:"error"`
	}
	if err := decodeJSON(res, "map", &payload); err != nil {
		return nil, err
	}
	if !payload.Success || payload.Links == nil {
		if payload.Error != "" {
			return nil, fmt.Errorf("map failed: %s", payload.Error)
		}
		return nil, fmt.Errorf("map failed: malformed response: %s", res.String())
	}
	return &MapResult{Links: payload.Links}, nil
}
