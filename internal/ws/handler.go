package ws

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/websocket"
)

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

type subscribeMessage struct {
	Action string `json:"action"`
}

// HandleWebSocket upgrades the request and pins the connection to the
// authenticated user's channel. Clients only ever see their own events, so
// the subscribe message carries no channel of its own.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, ok := c.Get("user_id")
	uid, _ := userID.(string)
	if !ok || uid == "" {
		c.AbortWithStatus(401)
		return
	}

	websocket.Handler(func(conn *websocket.Conn) {
		client := NewClient(conn)
		go h.writer(client)
		h.reader(client, UserChannel(uid))
	}).ServeHTTP(c.Writer, c.Request)
}

func UserChannel(userID string) string {
	return "user:" + userID
}

func (h *Handler) reader(client *Client, channel string) {
	defer func() {
		h.hub.UnsubscribeAll(client)
		close(client.out)
		_ = client.conn.Close()
	}()

	for {
		var raw string
		if err := websocket.Message.Receive(client.conn, &raw); err != nil {
			return
		}
		var msg subscribeMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		if strings.ToLower(strings.TrimSpace(msg.Action)) != "subscribe" {
			continue
		}
		h.hub.Subscribe(channel, client)
	}
}

func (h *Handler) writer(client *Client) {
	for payload := range client.out {
		if err := websocket.Message.Send(client.conn, string(payload)); err != nil {
			return
		}
	}
}
