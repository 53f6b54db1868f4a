package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/aretw0/catena/pkg/domain"
)

// Event is the SSE payload describing a run or node transition.
type Event struct {
	Type   string `json:"type"`
	RunID  string `json:"run_id"`
	NodeID string `json:"node_id,omitempty"`
	Step   int    `json:"step,omitempty"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// StreamManager fans run events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
	closed      bool
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{subscribers: make(map[chan string]struct{})}
}

// Subscribe registers a buffered channel and returns it with its release func.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if sm.closed {
		close(ch)
		return ch, func() {}
	}
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// CloseAll ends every subscription and refuses new ones. Open SSE
// responses return, which lets http.Server.Shutdown complete.
func (sm *StreamManager) CloseAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.closed = true
	for ch := range sm.subscribers {
		delete(sm.subscribers, ch)
		close(ch)
	}
}

// Subscribers returns the number of active subscribers.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast sends msg to every subscriber. Slow subscribers miss messages.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (sm *StreamManager) publish(e Event) {
	if sm.Subscribers() == 0 {
		return
	}
	if b, err := json.Marshal(e); err == nil {
		sm.Broadcast(string(b))
	}
}

// Hooks returns lifecycle hooks publishing to the subscribers.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			sm.publish(Event{Type: "run_start", RunID: e.RunID})
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			ev := Event{Type: "node", RunID: e.RunID, NodeID: e.NodeID, Step: e.Step, Status: string(e.Status)}
			if e.Err != nil {
				ev.Error = e.Err.Error()
			}
			sm.publish(ev)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			ev := Event{Type: "run_end", RunID: e.RunID, Step: e.Steps}
			if e.Err != nil {
				ev.Error = e.Err.Error()
			}
			sm.publish(ev)
		},
	}
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
