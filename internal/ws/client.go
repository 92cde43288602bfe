// internal/ws/client.go
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/HenshawIII/chainfrenTivi/internal/services"
	"github.com/HenshawIII/chainfrenTivi/internal/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced at the HTTP layer
	},
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	room   string
	wallet string
	sender string
	send   chan []byte
}

// inboundMessage is what a connected viewer sends down the socket.
type inboundMessage struct {
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

// ChatHandler upgrades GET /chat/:playbackId/ws connections and bridges them
// into the hub. Authentication rides on a token query parameter because
// browsers cannot set headers on websocket dials.
type ChatHandler struct {
	hub  *Hub
	chat *services.ChatService
}

func NewChatHandler(hub *Hub, chat *services.ChatService) *ChatHandler {
	return &ChatHandler{hub: hub, chat: chat}
}

func (h *ChatHandler) Serve(c *gin.Context) {
	playbackID := c.Param("playbackId")

	token := c.Query("token")
	if token == "" {
		utils.UnauthorizedResponse(c, "token required")
		return
	}
	claims, err := utils.ValidateJWT(token)
	if err != nil {
		utils.UnauthorizedResponse(c, "invalid token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	cl := &client{
		hub:    h.hub,
		conn:   conn,
		room:   playbackID,
		wallet: claims.WalletAddress,
		sender: claims.DisplayName,
		send:   make(chan []byte, 16),
	}

	h.hub.register <- cl

	go cl.writePump()
	go cl.readPump(h.chat)
}

func (c *client) readPump(chat *services.ChatService) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Debug("Websocket closed unexpectedly")
			}
			return
		}

		var in inboundMessage
		if err := json.Unmarshal(raw, &in); err != nil {
			continue
		}

		sender := in.Sender
		if sender == "" {
			sender = c.sender
		}

		msg, err := chat.SendMessage(context.Background(), c.room, c.wallet, &services.SendMessageRequest{
			Message: in.Message,
			Sender:  sender,
		})
		if err != nil {
			logrus.WithError(err).WithField("stream_id", c.room).Warn("Failed to persist chat message")
			continue
		}

		c.hub.Broadcast(msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
