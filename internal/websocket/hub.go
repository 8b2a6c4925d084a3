// Package websocket pushes cancellation events to the browser tabs and
// terminals of the user they concern.
package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"subscription-cancel-be/internal/pkg/logger"
	"subscription-cancel-be/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel carries events between instances when redis is available.
const ClusterChannel = "cancel_cluster_events"

type clusterMessage struct {
	Origin  string          `json:"origin"`
	Email   string          `json:"email"`
	Message json.RawMessage `json:"message"`
}

type Hub struct {
	// Connected clients by lower-cased email. One user may have several.
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance delivery, may be nil.
	rdb *redis.Client
	// instanceID lets an instance skip its own cluster messages.
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Run serves register and unregister requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Email] = append(h.clients[client.Email], client)
			h.mu.Unlock()
			h.logger.Info(logger.ModuleWebSocket, "Client registered", map[string]interface{}{"email": client.Email})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.Email]
	for i, c := range clients {
		if c == client {
			h.clients[client.Email] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.Email]) == 0 {
		delete(h.clients, client.Email)
	}
}

// Count returns the number of connected clients for email.
func (h *Hub) Count(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[normalize(email)])
}

// Publish delivers event to the clients of the user named in its "email"
// field. Events without one are ignored.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	email, _ := event.Payload()["email"].(string)
	email = normalize(email)
	if email == "" {
		return nil
	}

	data, err := json.Marshal(map[string]interface{}{
		"type": "event",
		"data": events.Envelope(event),
	})
	if err != nil {
		return err
	}

	h.deliver(email, data)

	if h.rdb != nil {
		payload, err := json.Marshal(clusterMessage{Origin: h.instanceID, Email: email, Message: data})
		if err != nil {
			return err
		}
		return h.rdb.Publish(ctx, ClusterChannel, payload).Err()
	}
	return nil
}

// deliver never blocks: a client whose buffer is full is dropped. Sends
// happen under the read lock so remove cannot close a channel mid-send.
func (h *Hub) deliver(email string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[email] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn(logger.ModuleWebSocket, "Client send buffer full, dropping client", map[string]interface{}{"email": email})
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn(logger.ModuleWebSocket, "Cluster message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliver(payload.Email, payload.Message)
		}
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
