package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractValidation(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	for _, opts := range []*ExtractOptions{
		nil,
		{},
		{URLs: []string{"https://example.com"}},
		{Schema: map[string]any{"type": "object"}},
	} {
		_, err := client.StartExtract(context.Background(), opts)
		require.ErrorIs(t, err, ErrValidation)
	}

	// Validation failures never reach the network.
	require.EqualValues(t, 0, hits.Load())
}

func TestExtractEndToEnd(t *testing.T) {
	var statusHits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			require.Equal(t, "/v1/extract", r.URL.Path)
			body := decodeBody(t, r)
			require.Equal(t, []any{"https://example.com"}, body["urls"])
			require.Equal(t, "list all product names", body["prompt"])
			require.Equal(t, "go-sdk@"+Version, body["origin"])

			w.Write([]byte(`{"success":true,"id":"ext-1"}`))
			return
		}

		require.Equal(t, "/v1/extract/ext-1", r.URL.Path)
		if statusHits.Add(1) == 1 {
			w.Write([]byte(`{"success":true,"status":"processing"}`))
			return
		}
		w.Write([]byte(`{"success":true,"status":"completed","data":{"products":["anvil"]}}`))
	}))
	sleeps := recordSleeps(client)

	status, err := client.Extract(context.Background(), &ExtractOptions{
		URLs:   []string{"https://example.com"},
		Prompt: "list all product names",
	})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, status.Status)
	require.JSONEq(t, `{"products":["anvil"]}`, string(status.Data))
	require.Len(t, *sleeps, 1)
}

func TestExtractJobFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"success":true,"id":"ext-1"}`))
			return
		}
		w.Write([]byte(`{"success":true,"status":"failed","error":"model unavailable"}`))
	}))

	_, err := client.Extract(context.Background(), &ExtractOptions{
		Prompt: "anything",
	})
	require.ErrorIs(t, err, ErrJobFailed)
	require.ErrorContains(t, err, "model unavailable")
}

func TestStartExtractSchemaFromStruct(t *testing.T) {
	type productSchema struct {
		Type       string         `json:"type"`
		Properties map[string]any `json:"properties"`
	}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		schema, ok := body["schema"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, "object", schema["type"])

		w.Write([]byte(`{"success":true,"id":"ext-1"}`))
	}))

	status, err := client.StartExtract(context.Background(), &ExtractOptions{
		URLs: []string{"https://example.com"},
		Schema: productSchema{
			Type:       "object",
			Properties: map[string]any{"name": map[string]any{"type": "string"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "ext-1", status.ID)
}

func TestStartExtractRejectsBadSchema(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	}))

	_, err := client.StartExtract(context.Background(), &ExtractOptions{
		URLs:   []string{"https://example.com"},
		Schema: json.RawMessage(`{not json`),
	})
	require.ErrorIs(t, err, ErrValidation)
}
