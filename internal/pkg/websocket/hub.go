package websocket

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/yigit/feedsphere/internal/pkg/metrics"
)

// Event types pushed to live feed clients
const (
	EventMessageCreated = "message.created"
	EventCommentCreated = "comment.created"
)

// allAuthors is the subscription key of clients following the whole feed
const allAuthors = ""

// Hub maintains the set of active clients and broadcasts feed events to them
type Hub struct {
	// Registered clients organized by followed author; allAuthors follows everyone
	clients map[string]map[*Client]bool

	// Channel for events to fan out
	broadcast chan *Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed once Run has returned
	stopped  chan struct{}
	stopOnce sync.Once

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	// Logger for Hub operations
	logger zerolog.Logger
}

// Event is a feed change sent over WebSocket
type Event struct {
	// Type of event, one of the Event* constants
	Type string `json:"type"`

	// Author of the message or comment
	Author string `json:"author"`

	// The created message or comment
	Data interface{} `json:"data"`

	// Timestamp when the event was published
	Timestamp time.Time `json:"timestamp"`
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		clients:    make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run starts the hub, handling client registrations and broadcasts until done is closed
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)

		case <-done:
			h.closeAll()
			h.stopOnce.Do(func() { close(h.stopped) })
			return
		}
	}
}

// enqueue hands a register or unregister request to Run, giving up once the hub has stopped
func (h *Hub) enqueue(ch chan<- *Client, client *Client) bool {
	select {
	case ch <- client:
		return true
	case <-h.stopped:
		return false
	}
}

// registerClient registers a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.author]; !ok {
		h.clients[client.author] = make(map[*Client]bool)
	}
	h.clients[client.author][client] = true
	metrics.LiveFeedClients.Inc()

	h.logger.Info().
		Str("author", client.author).
		Str("addr", client.remoteAddr()).
		Msg("Client registered")
}

// unregisterClient unregisters a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(client)
}

// removeLocked drops a client; callers hold h.mu for writing
func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.author]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	metrics.LiveFeedClients.Dec()

	if len(clients) == 0 {
		delete(h.clients, client.author)
	}

	h.logger.Info().
		Str("author", client.author).
		Str("addr", client.remoteAddr()).
		Msg("Client unregistered")
}

// broadcastEvent sends an event to every client following its author or the whole feed
func (h *Hub) broadcastEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal event for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var slow []*Client
	sent := 0
	for _, key := range subscriptionKeys(event.Author) {
		for client := range h.clients[key] {
			select {
			case client.send <- data:
				sent++
			default:
				// Send buffer is full, the client is slow or gone
				slow = append(slow, client)
			}
		}
	}

	for _, client := range slow {
		h.removeLocked(client)
	}

	h.logger.Debug().
		Str("type", event.Type).
		Str("author", event.Author).
		Int("clientCount", sent).
		Msg("Event broadcasted")
}

func subscriptionKeys(author string) []string {
	if author == allAuthors {
		return []string{allAuthors}
	}
	return []string{allAuthors, author}
}

// closeAll disconnects every client
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// GetClientsCount returns the number of clients following an author, or the whole feed for ""
func (h *Hub) GetClientsCount(author string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[author])
}
