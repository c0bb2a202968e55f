package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"stock_sim/internal/domain"
	"stock_sim/internal/infra"
	"stock_sim/internal/strategy"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// read-only feed, any origin may listen
		return true
	},
}

type outbound struct {
	channel string
	payload []byte
}

type subscription struct {
	client   *Client
	channels []string
	on       bool
}

// Hub fans market snapshots and alerts out to websocket clients.
// The client set and every subscription map are owned by the Run goroutine.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	done       chan struct{}

	metrics *infra.Metrics
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		done:       make(chan struct{}),
		metrics:    infra.GlobalMetrics,
	}
}

// Run starts the hub's main loop and closes every client when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.metrics.IncrementClients()
			slog.Info("ws client connected", slog.String("client", client.id), slog.Int("total", len(h.clients)))

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
				slog.Info("ws client disconnected", slog.String("client", client.id), slog.Int("total", len(h.clients)))
			}

		case sub := <-h.subscribe:
			if !h.clients[sub.client] {
				continue
			}
			for _, ch := range sub.channels {
				if sub.on {
					sub.client.subscriptions[ch] = true
				} else {
					delete(sub.client.subscriptions, ch)
				}
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if !client.subscriptions[msg.channel] {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					// Client send buffer full, disconnect
					slog.Warn("ws client too slow, dropping", slog.String("client", client.id))
					h.drop(client)
				}
			}
		}
	}
}

// drop must only be called from Run
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.metrics.DecrementClients()
}

// Publish queues data for every client subscribed to channel.
// It never blocks; when the hub is backed up the message is dropped.
func (h *Hub) Publish(channel string, data any) {
	payload, err := json.Marshal(WSMessage{Channel: channel, Data: data})
	if err != nil {
		slog.Error("ws marshal error", slog.String("channel", channel), slog.Any("error", err))
		return
	}

	select {
	case h.broadcast <- outbound{channel: channel, payload: payload}:
	default:
		h.metrics.RecordDropped()
		slog.Warn("ws broadcast queue full, dropping", slog.String("channel", channel))
	}
}

// OnSnapshot is the market observer
func (h *Hub) OnSnapshot(snap domain.Snapshot) {
	h.Publish(ChannelMarket, snap)
}

// OnAlert forwards fired alerts
func (h *Hub) OnAlert(ev domain.AlertEvent) {
	h.Publish(ChannelAlerts, ev)
}

// OnSignal forwards strategy actions to the signals channel
func (h *Hub) OnSignal(action strategy.Action) {
	h.Publish(ChannelSignals, action)
}

// Client represents a WebSocket connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string

	subscriptions map[string]bool // owned by Hub.Run
}

// readPump pumps subscription requests from the connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("ws read error", slog.String("client", c.id), slog.Any("error", err))
			}
			return
		}

		var req WSSubscribeRequest
		if err := json.Unmarshal(message, &req); err != nil {
			slog.Debug("ws invalid message", slog.String("client", c.id), slog.Any("error", err))
			continue
		}

		var on bool
		switch req.Op {
		case "subscribe":
			on = true
		case "unsubscribe":
			on = false
		default:
			slog.Debug("ws unknown op", slog.String("client", c.id), slog.String("op", req.Op))
			continue
		}

		select {
		case c.hub.subscribe <- subscription{client: c, channels: req.Channels, on: on}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// ServeWS upgrades the request and attaches the client to the hub
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade error", slog.Any("error", err))
		return
	}

	client := &Client{
		hub:           h,
		conn:          conn,
		send:          make(chan []byte, sendBuffer),
		id:            conn.RemoteAddr().String(),
		subscriptions: make(map[string]bool),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Start read and write pumps in separate goroutines
	go client.writePump()
	go client.readPump()
}
