package ws

import (
	"errors"
	"sync"
)

// MaxChannelsPerClient bounds how many channels one connection may follow.
const MaxChannelsPerClient = 32

var ErrTooManyChannels = errors.New("ws: too many channels")

// Hub routes payloads by channel name. Publish never blocks on a client.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{channels: map[string]map[*Client]struct{}{}}
}

func (h *Hub) Subscribe(channel string, client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.channels[channel]
	if ok {
		if _, dup := subs[client]; dup {
			return nil
		}
	}
	if client.channelCount() >= MaxChannelsPerClient {
		return ErrTooManyChannels
	}
	if !ok {
		subs = map[*Client]struct{}{}
		h.channels[channel] = subs
	}
	subs[client] = struct{}{}
	client.addChannel(channel)
	return nil
}

func (h *Hub) Unsubscribe(channel string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(channel, client)
	client.removeChannel(channel)
}

func (h *Hub) UnsubscribeAll(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, channel := range client.listChannels() {
		h.drop(channel, client)
		client.removeChannel(channel)
	}
}

func (h *Hub) drop(channel string, client *Client) {
	subs, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.channels, channel)
	}
}

// Publish snapshots the subscriber set and sends outside the lock.
func (h *Hub) Publish(channel string, payload []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.channels[channel]))
	for c := range h.channels[channel] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.send(payload)
	}
}

func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
