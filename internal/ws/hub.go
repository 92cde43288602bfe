// internal/ws/hub.go
package ws

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/HenshawIII/chainfrenTivi/internal/models"
)

// Hub fans chat messages out to every open connection in a stream's room.
// Rooms are keyed by playback id and created lazily on first join.
type Hub struct {
	rooms      map[string]map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan outbound
}

type outbound struct {
	room    string
	payload []byte
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan outbound, 64),
	}
}

// Run owns the room bookkeeping. It must run in its own goroutine for the
// lifetime of the server; all map access happens on this goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			room := h.rooms[c.room]
			if room == nil {
				room = make(map[*client]bool)
				h.rooms[c.room] = room
			}
			room[c] = true

		case c := <-h.unregister:
			if room, ok := h.rooms[c.room]; ok {
				if _, ok := room[c]; ok {
					delete(room, c)
					close(c.send)
					if len(room) == 0 {
						delete(h.rooms, c.room)
					}
				}
			}

		case msg := <-h.broadcast:
			for c := range h.rooms[msg.room] {
				select {
				case c.send <- msg.payload:
				default:
					// Slow consumer; drop the connection rather than block
					// the whole room.
					delete(h.rooms[msg.room], c)
					close(c.send)
				}
			}
		}
	}
}

// Broadcast pushes a persisted chat message to everyone in its room.
func (h *Hub) Broadcast(msg *models.ChatMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logrus.WithError(err).Warn("Failed to encode chat message for broadcast")
		return
	}
	h.broadcast <- outbound{room: msg.StreamID, payload: payload}
}
