package http

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mrlokans/bookshelf/internal/library"
)

const (
	writeWait  = 2 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header (non-browser
// clients) and browser requests from the serving host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Event is one message on the library event stream.
type Event struct {
	Type   string        `json:"type"`
	Action string        `json:"action,omitempty"`
	State  library.State `json:"state"`
}

// eventClient owns the write side of one socket.
type eventClient struct {
	ws   *websocket.Conn
	send chan []byte
}

// watchers are the sockets listening to one store.
type watchers struct {
	clients     map[*websocket.Conn]*eventClient
	unsubscribe func()
}

// EventHub fans store changes out to websocket clients. It subscribes to a
// store while at least one client watches it. Each client has its own
// queue and writer goroutine; a client whose queue is full is dropped.
type EventHub struct {
	mu     sync.Mutex
	stores map[*library.Store]*watchers
}

func NewEventHub() *EventHub {
	return &EventHub{stores: make(map[*library.Store]*watchers)}
}

// Add registers ws as a watcher of store and queues the current state as
// its first event.
func (h *EventHub) Add(store *library.Store, ws *websocket.Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	w, ok := h.stores[store]
	if !ok {
		w = &watchers{clients: make(map[*websocket.Conn]*eventClient)}
		w.unsubscribe = store.Subscribe(func(change library.Change) {
			h.Broadcast(store, Event{Type: "change", Action: change.Action.Type(), State: change.After})
		})
		h.stores[store] = w
	}

	snapshot, err := json.Marshal(Event{Type: "snapshot", State: store.State()})
	if err != nil {
		if len(w.clients) == 0 {
			w.unsubscribe()
			delete(h.stores, store)
		}
		return err
	}

	c := &eventClient{ws: ws, send: make(chan []byte, sendBuffer)}
	c.send <- snapshot
	w.clients[ws] = c
	go h.writePump(store, c)
	return nil
}

// Remove drops ws and closes it.
func (h *EventHub) Remove(store *library.Store, ws *websocket.Conn) {
	h.mu.Lock()
	h.removeLocked(store, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *EventHub) removeLocked(store *library.Store, ws *websocket.Conn) {
	w, ok := h.stores[store]
	if !ok {
		return
	}
	c, ok := w.clients[ws]
	if !ok {
		return
	}
	delete(w.clients, ws)
	close(c.send)
	if len(w.clients) == 0 {
		w.unsubscribe()
		delete(h.stores, store)
	}
}

// Broadcast queues ev for every watcher of store. It never waits on a
// socket.
func (h *EventHub) Broadcast(store *library.Store, ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Events: failed to encode %s event: %v", ev.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	w, ok := h.stores[store]
	if !ok {
		return
	}
	for ws, c := range w.clients {
		select {
		case c.send <- b:
		default:
			log.Printf("Events: dropping slow client %s", ws.RemoteAddr())
			h.removeLocked(store, ws)
			_ = ws.Close()
		}
	}
}

// Count returns the number of connected sockets.
func (h *EventHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, w := range h.stores {
		n += len(w.clients)
	}
	return n
}

func (h *EventHub) writePump(store *library.Store, c *eventClient) {
	for b := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
			h.Remove(store, c.ws)
			// Drain until Remove has closed the queue.
			for range c.send {
			}
			return
		}
	}
}

// EventsHandler handles GET /api/library/events.
func EventsHandler(hub *EventHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := librarySession(c)

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		if err := hub.Add(session.Store, ws); err != nil {
			log.Printf("Events: failed to register client for %s: %v", session.UserID, err)
			_ = ws.Close()
			return
		}
		log.Printf("Events: client connected for %s", session.UserID)

		// Incoming messages are ignored; reading detects the close.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Remove(session.Store, ws)
		log.Printf("Events: client disconnected for %s", session.UserID)
	}
}
