package sse

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/pipegraph/logger"
)

// ClientBuffer is the number of frames queued per client before frames are
// dropped.
const ClientBuffer = 256

// Client is a connected SSE client.
type Client struct {
	id       string
	view     string
	metadata map[string]string
	events   chan []byte
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMetadata adds a metadata key-value pair to the client.
func WithMetadata(key, value string) ClientOption {
	return func(c *Client) { c.metadata[key] = value }
}

// WithReplay queues frames to be sent right after the connected event,
// typically the latest snapshot of the view.
func WithReplay(frames ...[]byte) ClientOption {
	return func(c *Client) {
		for _, f := range frames {
			if len(f) > 0 {
				c.Send(f)
			}
		}
	}
}

// ClientID returns a new client id for view.
func ClientID(view string) string {
	return view + ":" + uuid.NewString()
}

// NewClient creates a client. The view is the id prefix before the first
// colon.
func NewClient(id string, opts ...ClientOption) *Client {
	view, _, _ := strings.Cut(id, ":")
	c := &Client{
		id:       id,
		view:     view,
		metadata: make(map[string]string),
		events:   make(chan []byte, ClientBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ID() string                  { return c.id }
func (c *Client) View() string                { return c.view }
func (c *Client) Metadata() map[string]string { return c.metadata }
func (c *Client) Events() <-chan []byte       { return c.events }

// Send queues a frame. It returns false when the client is too slow.
func (c *Client) Send(data []byte) bool {
	select {
	case c.events <- data:
		return true
	default:
		logger.Get("sse").Warn("client channel full, dropping frame", logger.Fields("client_id", c.id))
		return false
	}
}

// Close closes the client's event channel.
func (c *Client) Close() {
	close(c.events)
}

// Message is a frame addressed to a glob pattern of client ids.
type Message struct {
	Pattern string
	Data    []byte
}

// Hub manages client connections and broadcasts.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
	log        *logger.Logger
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, ClientBuffer),
		done:       make(chan struct{}),
		log:        logger.Get("sse"),
	}
}

// Run is the hub event loop. It blocks until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", logger.Fields("client_id", client.id, "total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.Fields("client_id", client.id, "total_clients", total))

		case msg := <-h.broadcast:
			h.broadcastWithPattern(msg.Pattern, msg.Data)
		}
	}
}

// Stop shuts the hub down and closes every client. Safe to call more than
// once.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.Close()
		delete(h.clients, id)
	}
	h.log.Debug("all clients closed")
}

// Register adds a client. It returns false when the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client. It does nothing once the hub is stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastToPattern sends data to every client whose id matches pattern,
// for example "checkout:*".
func (h *Hub) BroadcastToPattern(pattern string, data []byte) {
	select {
	case h.broadcast <- &Message{Pattern: pattern, Data: data}:
	case <-h.done:
	}
}

func (h *Hub) broadcastWithPattern(pattern string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	matched := 0
	for id, client := range h.clients {
		ok, err := filepath.Match(pattern, id)
		if err != nil {
			h.log.Error("pattern match error", logger.Fields("pattern", pattern, "error", err.Error()))
			return
		}
		if ok && client.Send(data) {
			matched++
		}
	}
	h.log.Debug("broadcast sent", logger.Fields("pattern", pattern, "match_count", matched, "data_size", len(data)))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ViewClients returns the number of clients connected to view.
func (h *Hub) ViewClients(view string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.view == view {
			n++
		}
	}
	return n
}

// ClientIDs returns the ids of all connected clients.
func (h *Hub) ClientIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// Client returns a client by id, or nil.
func (h *Hub) Client(id string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[id]
}

var _ Broadcaster = (*Hub)(nil)
