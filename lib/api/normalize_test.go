package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDocumentFullPageScreenshot(t *testing.T) {
	doc, err := normalizeDocument(json.RawMessage(`{
		"markdown": "hello",
		"screenshot@fullPage": "data:image/png;base64,AAAA"
	}`))
	require.NoError(t, err)
	require.Equal(t, "hello", doc.Markdown)
	require.Equal(t, "data:image/png;base64,AAAA", doc.Screenshot)
}

func TestNormalizeDocumentPlainScreenshotWins(t *testing.T) {
	doc, err := normalizeDocument(json.RawMessage(`{
		"screenshot": "plain",
		"screenshot@fullPage": "full"
	}`))
	require.NoError(t, err)
	require.Equal(t, "plain", doc.Screenshot)
}

func TestNormalizeDocumentsBadEntry(t *testing.T) {
	_, err := normalizeDocuments([]json.RawMessage{
		json.RawMessage(`{"markdown":"ok"}`),
		json.RawMessage(`"not an object"`),
	}, "check crawl status")
	require.ErrorIs(t, err, ErrParse)
}

func TestNormalizeSchema(t *testing.T) {
	// Maps pass through untouched.
	m := map[string]any{"type": "object"}
	got, err := normalizeSchema(m)
	require.NoError(t, err)
	require.Equal(t, m, got)

	// nil stays nil so the field is omitted from the request.
	got, err = normalizeSchema(nil)
	require.NoError(t, err)
	require.Nil(t, got)

	// Structs are converted through their JSON form.
	got, err = normalizeSchema(struct {
		Type string `json:"type"`
	}{Type: "object"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"type": "object"}, got)

	// Non-serializable values are rejected before the network call.
	_, err = normalizeSchema(make(chan int))
	require.ErrorIs(t, err, ErrValidation)
}
