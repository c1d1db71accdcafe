package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// EventKind enumerates the watcher event types. The set is closed:
// every inbound message maps to one of these.
type EventKind int

const (
	EventDocument EventKind = iota
	EventDone
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventDocument:
		return "document"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is delivered to listeners registered on a Watcher.
type Event struct {
	Kind   EventKind
	JobID  string
	Status string
	// Document is set for document events.
	Document *Document
	// Documents is a snapshot of everything accumulated so far, set
	// for done and error events. Listeners must treat it as read-only.
	Documents []*Document
	// Error is the server-reported message, set for error events.
	Error string
}

type Listener func(Event)

// Watcher is a live view of a running job, fed by the service's
// websocket stream. Messages are consumed by a single reader loop in
// strict arrival order, and each message is fully dispatched before
// the next one is read; that ordering is what makes catchup replay
// meaningful. There is no automatic reconnect: when the connection
// drops, create a new watcher and the server replays accumulated state
// through a catchup message.
type Watcher struct {
	jobID string
	conn  *websocket.Conn

	mu        sync.Mutex
	status    string
	documents []*Document

	onDocument []Listener
	onDone     []Listener
	onError    []Listener
}

// WatchCrawl opens a websocket session observing a crawl job.
func (c *Client) WatchCrawl(ctx context.Context, id string) (*Watcher, error) {
	return c.watch(ctx, jobCrawl, id)
}

// WatchBatchScrape opens a websocket session observing a batch scrape
// job.
func (c *Client) WatchBatchScrape(ctx context.Context, id string) (*Watcher, error) {
	return c.watch(ctx, jobBatchScrape, id)
}

func (c *Client) watch(ctx context.Context, kind jobKind, id string) (*Watcher, error) {
	wsURL, err := websocketURL(c.apiURL, kind.path()+"/"+id)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}
	conn, res, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if res != nil && res.Body != nil {
			res.Body.Close()
		}
		return nil, fmt.Errorf("failed to open %s watch for job %s: %w", kind.name(), id, err)
	}
	return &Watcher{
		jobID:  id,
		conn:   conn,
		status: StatusScraping,
	}, nil
}

func websocketURL(apiURL, path string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("cannot derive websocket URL from %q", apiURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String(), nil
}

// On registers a listener for an event kind. Listeners of a kind are
// invoked in registration order; a panicking listener is not recovered.
// Registration is not safe concurrently with Watch.
func (w *Watcher) On(kind EventKind, fn Listener) {
	switch kind {
	case EventDocument:
		w.onDocument = append(w.onDocument, fn)
	case EventDone:
		w.onDone = append(w.onDone, fn)
	case EventError:
		w.onError = append(w.onError, fn)
	}
}

// Status returns the last status observed on the stream.
func (w *Watcher) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Documents returns a snapshot of the documents accumulated so far.
func (w *Watcher) Documents() []*Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*Document(nil), w.documents...)
}

// Close tears down the websocket connection. It is the only
// cancellation primitive besides the context passed to Watch.
func (w *Watcher) Close() error {
	return w.conn.Close()
}

type watchMessage struct {
	Type  string          `json:"type"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// Watch consumes the stream until the connection closes, dispatching
// events synchronously from the calling goroutine. It returns nil on a
// clean close and the read error otherwise.
func (w *Watcher) Watch(ctx context.Context) error {
	defer w.conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			w.conn.Close()
		case <-done:
		}
	}()

	for {
		var msg watchMessage
		if err := w.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if err := w.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (w *Watcher) handleMessage(msg *watchMessage) error {
	switch msg.Type {
	case "done":
		w.setStatus(StatusCompleted)
		w.dispatch(Event{
			Kind:      EventDone,
			JobID:     w.jobID,
			Status:    StatusCompleted,
			Documents: w.Documents(),
		})
	case "error":
		w.setStatus(StatusFailed)
		w.dispatch(Event{
			Kind:      EventError,
			JobID:     w.jobID,
			Status:    StatusFailed,
			Documents: w.Documents(),
			Error:     msg.Error,
		})
	case "catchup":
		var payload struct {
			Status string            `json:"status"`
			Data   []json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return &ParseError{Action: "handle catchup message", Cause: err}
		}
		docs, err := normalizeDocuments(payload.Data, "handle catchup message")
		if err != nil {
			return err
		}
		w.mu.Lock()
		w.status = payload.Status
		w.documents = append(w.documents, docs...)
		all := append([]*Document(nil), w.documents...)
		w.mu.Unlock()
		// Replay the full accumulated history, not just the new
		// documents, so freshly attached listeners see everything.
		for _, doc := range all {
			w.dispatch(Event{Kind: EventDocument, JobID: w.jobID, Document: doc})
		}
	case "document":
		doc, err := normalizeDocument(msg.Data)
		if err != nil {
			return &ParseError{Action: "handle document message", Cause: err}
		}
		w.mu.Lock()
		w.documents = append(w.documents, doc)
		w.mu.Unlock()
		w.dispatch(Event{Kind: EventDocument, JobID: w.jobID, Document: doc})
	}
	return nil
}

func (w *Watcher) setStatus(status string) {
	w.mu.Lock()
	w.status = status
	w.mu.Unlock()
}

func (w *Watcher) dispatch(ev Event) {
	var listeners []Listener
	switch ev.Kind {
	case EventDocument:
		listeners = w.onDocument
	case EventDone:
		listeners = w.onDone
	case EventError:
		listeners = w.onError
	}
	for _, fn := range listeners {
		fn(ev)
	}
}
