// Package stream broadcasts live game events over websockets. Each
// subscriber follows one game; the hub fans every published event out
// to the sockets watching that game.
package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/app"
)

// subscriber is one websocket connection following a game.
type subscriber struct {
	gameID string
	send   chan []byte
}

// Hub routes published events to registered subscribers. Run drives
// the loop; Publish never blocks the caller.
type Hub struct {
	register   chan *subscriber
	unregister chan *subscriber
	events     chan app.Event
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub creates a hub. Callers start the loop with go Run.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		events:     make(chan app.Event, 64),
		done:       make(chan struct{}),
	}
}

// Run fans events out to subscribers until Stop.
func (h *Hub) Run() {
	subscribers := make(map[*subscriber]bool)
	for {
		select {
		case sub := <-h.register:
			subscribers[sub] = true

		case sub := <-h.unregister:
			if subscribers[sub] {
				delete(subscribers, sub)
				close(sub.send)
			}

		case event := <-h.events:
			payload, err := json.Marshal(event)
			if err != nil {
				log.Printf("stream: marshal event: %v", err)
				continue
			}
			for sub := range subscribers {
				if sub.gameID != event.GameID {
					continue
				}
				select {
				case sub.send <- payload:
				default:
					// Slow consumer; drop the socket rather than the loop.
					delete(subscribers, sub)
					close(sub.send)
				}
			}

		case <-h.done:
			for sub := range subscribers {
				delete(subscribers, sub)
				close(sub.send)
			}
			return
		}
	}
}

// Stop shuts the loop down and hangs up every subscriber.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Publish queues an event for fan-out. Events are dropped when the
// loop is saturated or stopped; the game's audit log stays the record.
func (h *Hub) Publish(event app.Event) {
	select {
	case h.events <- event:
	case <-h.done:
	default:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeGame upgrades the request to a websocket following one game.
func (h *Hub) ServeGame(gameID string, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stream: upgrade: %v", err)
		return
	}
	sub := &subscriber{gameID: gameID, send: make(chan []byte, 16)}
	select {
	case h.register <- sub:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go h.writePump(sub, conn)
	go h.readPump(sub, conn)
}

// writePump copies hub payloads to the socket until the subscriber is
// dropped.
func (h *Hub) writePump(sub *subscriber, conn *websocket.Conn) {
	defer conn.Close()
	for payload := range sub.send {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

// readPump discards client frames; the feed is one-way. Reading keeps
// close and ping handling alive and ends the subscription on error.
func (h *Hub) readPump(sub *subscriber, conn *websocket.Conn) {
	defer func() {
		select {
		case h.unregister <- sub:
		case <-h.done:
		}
		conn.Close()
	}()
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("stream: read: %v", err)
			}
			return
		}
	}
}
