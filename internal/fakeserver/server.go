// Package fakeserver is an in-memory Goje server for tests. It serves the
// timer endpoints and the event stream but does not tick: tests move the
// timer with Push or the command endpoints.
package fakeserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goje-timer/goje-go/pkg/timer"
	"github.com/goje-timer/goje-go/pkg/transport"
)

// Request is a command received by the server.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

type event struct {
	name string
	data []byte
}

// Server is a fake Goje server. Its methods are safe for concurrent use.
type Server struct {
	router chi.Router

	mu           sync.Mutex
	snap         timer.Snapshot
	eventName    string
	streamStatus int
	noResponse   bool
	nextID       int
	clients      map[string]chan event
	requests     []Request
}

// New creates a server holding initial.
func New(initial timer.Snapshot) *Server {
	s := &Server{
		snap:      initial,
		eventName: "change",
		clients:   make(map[string]chan event),
	}

	r := chi.NewRouter()
	r.Get(transport.PathTimer, s.getTimer)
	r.Post(transport.PathTimer, s.command(func(body timer.Snapshot) timer.Snapshot { return body }))
	r.Post(transport.PathNextMode, s.command(timer.Snapshot.Next))
	r.Post(transport.PathPrevMode, s.command(timer.Snapshot.Prev))
	r.Post(transport.PathPause, s.command(timer.Snapshot.TogglePaused))
	r.Post(transport.PathReset, s.command(timer.Snapshot.Restarted))
	r.Get(transport.PathStream, s.stream)
	s.router = r
	return s
}

// Start serves s on a new httptest server. Close it when done.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Snapshot returns the current timer.
func (s *Server) Snapshot() timer.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// SetEventName changes the event name used for pushed snapshots.
func (s *Server) SetEventName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventName = name
}

// SetStreamStatus makes the stream endpoint answer with code instead of
// streaming. Zero restores streaming.
func (s *Server) SetStreamStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamStatus = code
}

// SetNoResponseBody makes commands answer 200 with an empty body.
func (s *Server) SetNoResponseBody(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noResponse = v
}

// Push replaces the timer and broadcasts it.
func (s *Server) Push(snap timer.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.broadcastLocked(s.eventName, s.encodeLocked())
}

// PushRaw broadcasts an arbitrary event without touching the timer.
func (s *Server) PushRaw(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastLocked(name, data)
}

// DropClients ends every open stream.
func (s *Server) DropClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.clients {
		delete(s.clients, id)
		close(ch)
	}
}

// Clients returns the number of open streams.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Requests returns the commands received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) encodeLocked() []byte {
	data, _ := json.Marshal(s.snap)
	return data
}

func (s *Server) broadcastLocked(name string, data []byte) {
	for _, ch := range s.clients {
		select {
		case ch <- event{name: name, data: data}:
		default:
		}
	}
}

func (s *Server) getTimer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data := s.encodeLocked()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, data)
}

// command decodes the posted snapshot, applies fn and broadcasts the result.
func (s *Server) command(fn func(timer.Snapshot) timer.Snapshot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})

		posted, err := timer.Decode(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.snap = fn(posted)
		data := s.encodeLocked()
		s.broadcastLocked(s.eventName, data)

		if s.noResponse {
			w.WriteHeader(http.StatusOK)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

// stream registers the client before flushing headers so no push between
// the 200 and the first read is lost. The current timer is sent first.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	if s.streamStatus != 0 {
		code := s.streamStatus
		s.mu.Unlock()
		http.Error(w, http.StatusText(code), code)
		return
	}
	id := uuid.NewString()
	ch := make(chan event, 64)
	s.clients[id] = ch
	ch <- event{name: s.eventName, data: s.encodeLocked()}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if cur, ok := s.clients[id]; ok && cur == ch {
			delete(s.clients, id)
		}
		s.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			s.mu.Lock()
			s.nextID++
			seq := s.nextID
			s.mu.Unlock()
			if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, ev.name, ev.data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, data []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}
