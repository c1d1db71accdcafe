package api

import "encoding/json"

// normalizeDocument reshapes a raw service document into the stable
// client-facing Document. It is a pure function called exactly once
// per document before the document is exposed to the caller.
func normalizeDocument(raw json.RawMessage) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	// A full-page screenshot comes back under a format-qualified key;
	// fold it into the plain screenshot field.
	if doc.Screenshot == "" {
		var alt struct {
			Screenshot string `json:"screenshot@fullPage"`
		}
		if err := json.Unmarshal(raw, &alt); err == nil && alt.Screenshot != "" {
			doc.Screenshot = alt.Screenshot
		}
	}
	return &doc, nil
}

func normalizeDocuments(raws []json.RawMessage, action string) ([]*Document, error) {
	docs := make([]*Document, 0, len(raws))
	for _, raw := range raws {
		doc, err := normalizeDocument(raw)
		if err != nil {
			return nil, &ParseError{Action: action, Cause: err}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// normalizeSchema accepts either a ready wire schema (a map) or any
// JSON-serializable Go value and returns the map form sent to the
// service.
func normalizeSchema(schema any) (any, error) {
	if schema == nil {
		return nil, nil
	}
	if m, ok := schema.(map[string]any); ok {
		return m, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, &ValidationError{Message: "schema is not JSON-serializable: " + err.Error()}
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ValidationError{Message: "schema is not a JSON value: " + err.Error()}
	}
	return out, nil
}
