package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"embercrawl/lib/telemetry"

	"dario.cat/mergo"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("embercrawl/api")

// DefaultAPIURL is the hosted service endpoint. Self-hosted
// deployments override it through ClientOptions.APIURL or the
// EMBERCRAWL_API_URL environment variable.
const DefaultAPIURL = "https://api.embercrawl.dev"

const (
	defaultRetryCount   = 2
	defaultRetryBackoff = 500 * time.Millisecond
	// Added on top of a caller-supplied request timeout so the
	// server's own timeout fires first.
	transportTimeoutMargin = 5 * time.Second
)

type ClientOptions struct {
	// APIKey falls back to the EMBERCRAWL_API_KEY environment
	// variable. Required when talking to the hosted service.
	APIKey string
	// APIURL falls back to EMBERCRAWL_API_URL, then DefaultAPIURL.
	APIURL string
	// RetryCount is the number of additional attempts made when the
	// service answers 502, i.e. the total attempt bound is
	// RetryCount+1. Zero means the default of 2.
	RetryCount int
	// RetryBackoff is the base delay between retries; attempt k waits
	// RetryBackoff * 2^(k-1). Zero means the default of 500ms.
	RetryBackoff time.Duration
}

// Client talks to the Embercrawl REST and websocket APIs. All methods
// are safe for concurrent use; a single job, however, is tracked by at
// most one poller or watcher at a time.
type Client struct {
	apiURL string
	apiKey string
	http   *resty.Client

	// sleep is the poller's suspension point, replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(opts ClientOptions) (*Client, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("EMBERCRAWL_API_KEY")
	}
	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = os.Getenv("EMBERCRAWL_API_URL")
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if apiKey == "" && strings.Contains(apiURL, "api.embercrawl.dev") {
		return nil, &ValidationError{Message: "no API key provided"}
	}

	retryCount := opts.RetryCount
	if retryCount <= 0 {
		retryCount = defaultRetryCount
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	client := resty.New()
	client.SetBaseURL(apiURL)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("User-Agent", "embercrawl-go/"+Version)
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	// 502 is the load balancer's "retry me"; every other status goes
	// back to the caller untouched.
	client.SetRetryCount(retryCount)
	// resty clamps SetRetryAfter results to its max wait time (2s by
	// default), which would flatten the exponential schedule for any
	// backoff above 1s. Raise the ceiling past the last delay.
	client.SetRetryMaxWaitTime(backoff * time.Duration(1<<uint(retryCount)))
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		return err == nil && res != nil && res.StatusCode() == http.StatusBadGateway
	})
	client.SetRetryAfter(func(_ *resty.Client, res *resty.Response) (time.Duration, error) {
		attempt := 1
		if res != nil && res.Request != nil && res.Request.Attempt > 0 {
			attempt = res.Request.Attempt
		}
		return backoff * (1 << (attempt - 1)), nil
	})

	telemetry.InstrumentResty(client, "embercrawl/api")

	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		http:   client,
		sleep:  sleepContext,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// postJSON sends a job or scrape request. timeoutMS > 0 scopes the
// transport deadline to the server-side timeout hint plus a margin.
func (c *Client) postJSON(ctx context.Context, endpoint string, body map[string]any, timeoutMS int, idempotencyKey string) (*resty.Response, error) {
	if timeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutMS)*time.Millisecond+transportTimeoutMargin)
		defer cancel()
	}
	req := c.http.R().SetContext(ctx).SetBody(body)
	if idempotencyKey != "" {
		req.SetHeader("x-idempotency-key", idempotencyKey)
	}
	return req.Post(endpoint)
}

func (c *Client) getJSON(ctx context.Context, url string) (*resty.Response, error) {
	return c.http.R().SetContext(ctx).Get(url)
}

func (c *Client) deleteJSON(ctx context.Context, url string) (*resty.Response, error) {
	return c.http.R().SetContext(ctx).Delete(url)
}

func decodeJSON(res *resty.Response, action string, out any) error {
	if err := json.Unmarshal(res.Body(), out); err != nil {
		return &ParseError{Action: action, StatusCode: res.StatusCode(), Cause: err}
	}
	return nil
}

// responseError translates a non-2xx response into an APIError, or a
// ParseError when the error body itself is not JSON.
func (c *Client) responseError(res *resty.Response, action string) error {
	var body struct {
		Error   string          `json:"error"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return &ParseError{Action: action, StatusCode: res.StatusCode(), Cause: err}
	}
	message := body.Error
	if message == "" {
		message = "No error message provided."
	}
	details := strings.TrimSpace(string(body.Details))
	if details == "" || details == "null" {
		details = "No additional error details provided."
	}
	return &APIError{
		StatusCode: res.StatusCode(),
		Action:     action,
		Message:    message,
		Details:    details,
	}
}

// optionsToBody flattens a typed options struct into the wire body
// through its JSON tags.
func optionsToBody(opts any) (map[string]any, error) {
	body := map[string]any{}
	if opts == nil {
		return body, nil
	}
	raw, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// mergeExtra merges caller-supplied extra options into the body after
// the typed fields, rejecting keys the operation does not support so
// typos surface before the network call.
func mergeExtra(body map[string]any, extra map[string]any, allowed map[string]struct{}, op string) error {
	if len(extra) == 0 {
		return nil
	}
	var unknown []string
	for key := range extra {
		if _, ok := allowed[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &ValidationError{Message: fmt.Sprintf(
			"unsupported parameter(s) for %s: %s",
			op, strings.Join(unknown, ", "),
		)}
	}
	return mergo.Merge(&body, extra, mergo.WithOverride)
}

func allowlist(keys ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}
