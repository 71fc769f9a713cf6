// Package inspector serves a live view of a running wizard session:
// an SSE event stream plus a small REST API over the session's
// checkpoint history. It is a host-side convenience with no influence
// on engine behavior — qaengine never imports it.
package inspector

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaevents"
	"github.com/BimaPangestu28/greentic-qa/pkg/qastate"
)

// Server is the inspector HTTP + SSE server.
type Server struct {
	bus         qaevents.Bus
	checkpoints qastate.Store
	mux         *http.ServeMux
	sseClients  map[*sseClient]bool
	sseMu       sync.Mutex
	startTime   time.Time
}

// sseClient represents a connected Server-Sent Events client.
type sseClient struct {
	send chan []byte
	done chan struct{}
}

// New creates a new inspector server backed by bus for live events and
// checkpoints for the session-resume listing. checkpoints may be nil
// if no checkpoint store is configured; the checkpoints endpoint then
// always reports an empty list.
func New(bus qaevents.Bus, checkpoints qastate.Store) *Server {
	s := &Server{
		bus:         bus,
		checkpoints: checkpoints,
		mux:         http.NewServeMux(),
		sseClients:  make(map[*sseClient]bool),
		startTime:   time.Now(),
	}

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/events", s.handleSSE)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/history", s.handleHistory)
	s.mux.HandleFunc("/api/checkpoints", s.handleCheckpoints)

	return s
}

// Start begins serving the inspector on the given port. Blocks until
// the HTTP server exits.
func (s *Server) Start(port int) error {
	ch := s.bus.Subscribe()
	go s.broadcastEvents(ch)

	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, s.mux)
}

// StartAsync starts the server in a goroutine and returns immediately.
func (s *Server) StartAsync(port int) {
	ch := s.bus.Subscribe()
	go s.broadcastEvents(ch)

	go func() {
		addr := fmt.Sprintf(":%d", port)
		http.ListenAndServe(addr, s.mux)
	}()
}

func (s *Server) broadcastEvents(ch <-chan qaevents.Event) {
	for ev := range ch {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}

		s.sseMu.Lock()
		for client := range s.sseClients {
			select {
			case client.send <- data:
			default:
				// Client is slow, drop the event.
			}
		}
		s.sseMu.Unlock()
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h1>qa inspector</h1>"+
		"<p>Live events: <a href=\"/events\">/events</a> (SSE)</p>"+
		"<p>Status: <a href=\"/api/status\">/api/status</a></p>"+
		"<p>History: <a href=\"/api/history\">/api/history</a></p>"+
		"</body></html>")
}

// handleSSE streams the event bus's live history and subsequent events
// as Server-Sent Events. No external WebSocket dependency is pulled in
// for this: SSE works in every browser over a plain HTTP response.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	client := &sseClient{
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}

	s.sseMu.Lock()
	s.sseClients[client] = true
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, client)
		s.sseMu.Unlock()
		close(client.done)
	}()

	for _, ev := range s.bus.History(time.Time{}) {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client.send:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	history := s.bus.History(time.Time{})
	renderCount := 0
	for _, ev := range history {
		if ev.Type == qaevents.EventRender {
			renderCount++
		}
	}

	writeJSON(w, map[string]any{
		"uptime":       time.Since(s.startTime).String(),
		"events":       len(history),
		"renders_done": renderCount,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.bus.History(time.Time{}))
}

func (s *Server) handleCheckpoints(w http.ResponseWriter, r *http.Request) {
	formID := r.URL.Query().Get("form_id")
	if s.checkpoints == nil || formID == "" {
		writeJSON(w, []any{})
		return
	}

	infos, err := s.checkpoints.List(formID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, infos)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(data)
}
