// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pubsub

import (
	"context"
	"log/slog"

	"github.com/coder/websocket"
)

// ActivityTopic carries the platform-wide "vote cast" ticker.
const ActivityTopic = "activity"

// Topic names for the two per-entity channels
func ElectionTopic(electionID string) string   { return "election:" + electionID }
func OrganizerTopic(organizerID string) string { return "organizer:" + organizerID }

type Message struct {
	Topic string
	Data  []byte
}

// Client is one subscriber connected via websocket
type Client struct {
	Hub   *Hub
	Conn  *websocket.Conn
	Send  chan []byte
	Topic string
}

// Hub fans messages out to every client subscribed to a topic. All maps
// are owned by the Run goroutine; other goroutines talk to it through
// the channels only.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Subscribe attaches a client for a topic and starts its write pump.
func (h *Hub) Subscribe(conn *websocket.Conn, topic string) *Client {
	c := &Client{
		Hub:   h,
		Conn:  conn,
		Send:  make(chan []byte, 16),
		Topic: topic,
	}
	select {
	case h.register <- c:
	case <-h.done:
		// Hub already shut down; close Send so the write pump exits at once
		close(c.Send)
	}
	go c.writePump()
	go c.readPump()
	return c
}

// Broadcast delivers data to every subscriber of topic. Never blocks the
// caller: slow clients are dropped rather than backing up the publisher.
func (h *Hub) Broadcast(topic string, data []byte) {
	select {
	case h.broadcast <- Message{Topic: topic, Data: data}:
	default:
		slog.Warn("hub broadcast queue full, dropping message", "topic", topic)
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// Closing done first releases any pump blocked on register or
			// unregister; nothing receives from those channels after this.
			close(h.done)
			for topic, subs := range h.clients {
				for c := range subs {
					close(c.Send)
				}
				delete(h.clients, topic)
			}
			return

		case client := <-h.register:
			subs := h.clients[client.Topic]
			if subs == nil {
				subs = make(map[*Client]bool)
				h.clients[client.Topic] = subs
			}
			subs[client] = true

		case client := <-h.unregister:
			subs := h.clients[client.Topic]
			if subs != nil {
				if _, ok := subs[client]; ok {
					delete(subs, client)
					close(client.Send)
					if len(subs) == 0 {
						delete(h.clients, client.Topic)
					}
				}
			}

		case message := <-h.broadcast:
			subs := h.clients[message.Topic]
			for c := range subs {
				select {
				case c.Send <- message.Data:

				default:
					close(c.Send)
					delete(subs, c)
				}
			}
		}
	}
}

// writePump sends messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer func() {
		c.Conn.Close(websocket.StatusNormalClosure, "")
	}()

	for m := range c.Send {
		err := c.Conn.Write(context.Background(), websocket.MessageText, m)
		if err != nil {
			slog.Warn("failed to write to subscriber", "topic", c.Topic, "error", err)
			break
		}
	}
}

// detach hands the client back to the hub, or gives up when the hub has
// already shut down (Run closes every Send channel itself on exit).
func (c *Client) detach() {
	select {
	case c.Hub.unregister <- c:
	case <-c.Hub.done:
	}
}

// readPump drains the connection so close frames are processed; the
// channels are one-way, so inbound payloads are discarded.
func (c *Client) readPump() {
	defer func() {
		c.detach()
		c.Conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, _, err := c.Conn.Read(context.Background())
		if err != nil {
			break
		}
	}
}
