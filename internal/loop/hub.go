package loop

import (
	"sync"
	"time"
)

// HubEventType identifies an event sent from the hub to a session.
type HubEventType int

const (
	EventServerShutdown HubEventType = iota
)

// HubEvent is sent from the hub to a registered session.
type HubEvent struct {
	Type HubEventType
}

// Handle is a session's registration with the hub.
type Handle struct {
	ID       int
	Username string
	Since    time.Time
	EventsCh chan HubEvent // Closed when the session is unregistered
}

// Hub tracks the live sessions of a server. Sessions play independent games;
// the hub only exists so the server can tell them it is going away.
type Hub struct {
	mu       sync.RWMutex
	sessions map[int]*Handle
	nextID   int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[int]*Handle),
		nextID:   1,
	}
}

// Register adds a session and returns its handle.
func (h *Hub) Register(username string) *Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	handle := &Handle{
		ID:       h.nextID,
		Username: username,
		Since:    time.Now(),
		EventsCh: make(chan HubEvent, 4),
	}
	h.nextID++
	h.sessions[handle.ID] = handle
	return handle
}

// Unregister removes a session and closes its event channel. Unknown IDs are ignored.
func (h *Hub) Unregister(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if handle, ok := h.sessions[id]; ok {
		close(handle.EventsCh)
		delete(h.sessions, id)
	}
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Shutdown notifies every session that the server is going away and waits
// for them to unregister, up to timeout. Reports whether all sessions left.
func (h *Hub) Shutdown(timeout time.Duration) bool {
	h.mu.RLock()
	for _, handle := range h.sessions {
		select {
		case handle.EventsCh <- HubEvent{Type: EventServerShutdown}:
		default:
		}
	}
	h.mu.RUnlock()

	deadline := time.After(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if h.Len() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-ticker.C:
		}
	}
}
