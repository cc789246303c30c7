package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// eventStream writes text/event-stream frames and flushes after each one.
type eventStream struct {
	w http.ResponseWriter
	f http.Flusher
}

func newEventStream(w http.ResponseWriter) (*eventStream, bool) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	// reconnect hint for EventSource clients
	if _, err := fmt.Fprint(w, "retry: 3000\n\n"); err != nil {
		return nil, false
	}
	f.Flush()
	return &eventStream{w: w, f: f}, true
}

func (s *eventStream) send(name string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, b); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
