// Package observer streams every message the fortress processes to websocket clients.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dyluth/burrow/pkg/blackboard"
)

// subscriberBuffer is how many events a slow client may fall behind before events are dropped for it.
const subscriberBuffer = 256

// Event is one feed entry as sent to clients.
type Event struct {
	Kind    blackboard.MessageKind `json:"kind"`
	RunID   string                 `json:"run_id"`
	Total   uint64                 `json:"total"`
	Message blackboard.Message     `json:"message"`
}

// Hub fans fortress messages out to websocket subscribers. It implements
// fortress.Sink. Publishing never blocks the fortress: a full subscriber loses
// the event.
type Hub struct {
	runID string

	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[uint64]chan []byte
	nextID uint64
	closed bool
}

// NewHub creates a hub tagging events with runID.
func NewHub(runID string) *Hub {
	return &Hub{
		runID: runID,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[uint64]chan []byte),
	}
}

// Observe publishes msg to every subscriber.
func (h *Hub) Observe(_ context.Context, msg blackboard.Message, total uint64) error {
	data, err := json.Marshal(Event{
		Kind:    msg.Kind(),
		RunID:   h.runID,
		Total:   total,
		Message: msg,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal feed event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- data:
		default:
		}
	}
	return nil
}

// Subscribers reports the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) subscribe() (uint64, <-chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, nil, false
	}
	h.nextID++
	ch := make(chan []byte, subscriberBuffer)
	h.subs[h.nextID] = ch
	return h.nextID, ch, true
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Close ends every subscription. Connected clients receive a normal close frame.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Handler upgrades GET requests to a websocket and streams events until the
// client disconnects or the hub closes.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		id, events, ok := h.subscribe()
		if !ok {
			http.Error(rw, "observer closed", http.StatusServiceUnavailable)
			return
		}
		defer h.unsubscribe(id)

		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader loop: clients only send control frames; a read error means they left.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case b, ok := <-events:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "simulation stopped"),
						time.Now().Add(time.Second))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					log.Printf("[Observer] Dropping client %d: %v", id, err)
					return
				}
			}
		}
	}
}
