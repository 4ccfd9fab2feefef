package ws

import (
	"encoding/json"
	"strconv"
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
	Action  string `json:"action"`
	Channel string `json:"channel"`
	LoanID  uint64 `json:"loanId"`
	Account string `json:"account"`
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
		_ = client.conn.Close()
	}()

	for {
		var raw string
		if err := websocket.Message.Receive(client.conn, &raw); err != nil {
			return
		}
		var msg subscribeMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			client.send(reply("error", "", "invalid_message"))
			continue
		}
		topic := subscriptionTopic(msg)
		if topic == "" {
			client.send(reply("error", "", "unknown_channel"))
			continue
		}
		switch strings.ToLower(strings.TrimSpace(msg.Action)) {
		case "subscribe":
			if err := h.hub.Subscribe(topic, client); err != nil {
				client.send(reply("error", topic, "too_many_channels"))
				continue
			}
			client.send(reply("subscribed", topic, ""))
		case "unsubscribe":
			h.hub.Unsubscribe(topic, client)
			client.send(reply("unsubscribed", topic, ""))
		default:
			client.send(reply("error", topic, "unknown_action"))
		}
	}
}

func reply(event, channel, errCode string) []byte {
	msg := map[string]string{"event": event}
	if channel != "" {
		msg["channel"] = channel
	}
	if errCode != "" {
		msg["error"] = errCode
	}
	out, _ := json.Marshal(msg)
	return out
}

func (h *Handler) writer(client *Client) {
	for payload := range client.out {
		if err := websocket.Message.Send(client.conn, string(payload)); err != nil {
			return
		}
	}
}

func subscriptionTopic(msg subscribeMessage) string {
	channel := strings.ToLower(strings.TrimSpace(msg.Channel))
	switch channel {
	case ChannelPoolActivity:
		return ChannelPoolActivity
	case "loan":
		if msg.LoanID == 0 {
			return ""
		}
		return loanChannel(msg.LoanID)
	case "account":
		account := strings.TrimSpace(msg.Account)
		if account == "" {
			return ""
		}
		return accountChannel(account)
	default:
		return ""
	}
}

func loanChannel(loanID uint64) string {
	return "loan:" + strconv.FormatUint(loanID, 10)
}

func accountChannel(account string) string {
	return "account:" + account
}
