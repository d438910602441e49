package ws

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/giantgun/BareBtc/internal/stacks"
	"golang.org/x/net/websocket"
)

const (
	ChannelAccountState   = "account:state"
	ChannelAccountHistory = "account:history"
	ChannelPoolInfo       = "pool:info"
)

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

type subscribeMessage struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
	Address string `json:"address"`
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	websocket.Handler(func(conn *websocket.Conn) {
		client := NewClient(conn)
		go h.writer(client)
		h.reader(client)
	}).ServeHTTP(c.Writer, c.Request)
}

func (h *Handler) reader(client *Client) {
	defer func() {
		h.hub.UnsubscribeAll(client)
		client.close()
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
		topic := subscriptionTopic(msg)
		if topic == "" {
			continue
		}
		h.hub.Subscribe(topic, client)
	}
}

func (h *Handler) writer(client *Client) {
	for {
		select {
		case <-client.done:
			return
		case payload := <-client.out:
			if err := websocket.Message.Send(client.conn, string(payload)); err != nil {
				client.close()
				return
			}
		}
	}
}

func accountTopic(channel, address string) string {
	return channel + ":" + address
}

func subscriptionTopic(msg subscribeMessage) string {
	channel := strings.ToLower(strings.TrimSpace(msg.Channel))
	switch channel {
	case ChannelAccountState, ChannelAccountHistory:
		address := strings.ToUpper(strings.TrimSpace(msg.Address))
		if _, err := stacks.ParseAddress(address); err != nil {
			return ""
		}
		return accountTopic(channel, address)
	case ChannelPoolInfo:
		return ChannelPoolInfo
	default:
		return ""
	}
}
