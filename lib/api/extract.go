package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// ExtractOptions configures a structured-extraction job. At least one
// of Prompt or Schema is required, and at least one of URLs or Prompt.
type ExtractOptions struct {
	URLs               []string `json:"urls"`
	Prompt             string   `json:"prompt,omitempty"`
	Schema             any      `json:"schema,omitempty"`
	SystemPrompt       string   `json:"systemPrompt,omitempty"`
	AllowExternalLinks *bool    `json:"allowExternalLinks,omitempty"`
	EnableWebSearch    *bool    `json:"enableWebSearch,omitempty"`
	ShowSources        *bool    `json:"showSources,omitempty"`
	Agent              any      `json:"agent,omitempty"`

	IdempotencyKey string `json:"-"`
}

const extractPollInterval = 2 * time.Second

func validateExtract(opts *ExtractOptions) error {
	if opts == nil || (opts.Prompt == "" && opts.Schema == nil) {
		return &ValidationError{Message: "either prompt or schema is required"}
	}
	if len(opts.URLs) == 0 && opts.Prompt == "" {
		return &ValidationError{Message: "either urls or prompt is required"}
	}
	return nil
}

// StartExtract submits an extraction job and returns its initial
// status (carrying the job id) without waiting for completion.
func (c *Client) StartExtract(ctx context.Context, opts *ExtractOptions) (*ExtractStatus, error) {
	ctx, span := tracer.Start(ctx, "StartExtract")
	defer span.End()

	if err := validateExtract(opts); err != nil {
		return nil, err
	}
	schema, err := normalizeSchema(opts.Schema)
	if err != nil {
		return nil, err
	}

	body, err := optionsToBody(opts)
	if err != nil {
		return nil, err
	}
	if schema != nil {
		body["schema"] = schema
	}
	if body["urls"] == nil {
		body["urls"] = []string{}
	}
	body["origin"] = origin()

	res, err := c.postJSON(ctx, "/v1/extract", body, 0, opts.IdempotencyKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extract submission failed")
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		err := c.responseError(res, "start extract job")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var status ExtractStatus
	if err := decodeJSON(res, "start extract job", &status); err != nil {
		return nil, err
	}
	if !status.Success {
		if status.Error != "" {
			return nil, fmt.Errorf("failed to start extract job: %s", status.Error)
		}
		return nil, fmt.Errorf("failed to start extract job: malformed response: %s", res.String())
	}
	return &status, nil
}

// Extract submits an extraction job and blocks until it reaches a
// terminal state.
func (c *Client) Extract(ctx context.Context, opts *ExtractOptions) (*ExtractStatus, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	started, err := c.StartExtract(ctx, opts)
	if err != nil {
		return nil, err
	}
	if started.ID == "" {
		return nil, fmt.Errorf("extract job id not returned by the service")
	}

	for {
		status, err := c.ExtractStatus(ctx, started.ID)
		if err != nil {
			return nil, err
		}
		switch status.Status {
		case StatusCompleted:
			return status, nil
		case StatusFailed, StatusCancelled:
			return nil, &JobFailedError{ID: started.ID, Status: status.Status, Detail: status.Error}
		}
		if err := c.sleep(ctx, extractPollInterval); err != nil {
			return nil, err
		}
	}
}

// ExtractStatus checks an extraction job once.
func (c *Client) ExtractStatus(ctx context.Context, id string) (*ExtractStatus, error) {
	ctx, span := tracer.Start(ctx, "ExtractStatus")
	defer span.End()

	res, err := c.getJSON(ctx, "/v1/extract/"+id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		err := c.responseError(res, "check extract status")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	var status ExtractStatus
	if err := decodeJSON(res, "check extract status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}
