package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/adityarh/antarin/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisChannel = "antarin:order-events"

// Hub manages WebSocket connections and delivers order events to riders and
// drivers. Events go through Redis Pub/Sub so any instance can deliver to a
// client connected to another one.
type Hub struct {
	// userID -> set of connections (a user can have multiple devices)
	clients map[uuid.UUID]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	rdb *redis.Client
}

// NewHub creates a new WebSocket Hub
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
	}
}

// Run starts the Hub's event loop
func (h *Hub) Run(ctx context.Context) {
	go h.subscribeRedis(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Register queues a client for registration with the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.UserID]; !ok {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true
	log.Printf("✅ WS client connected: %s (connections: %d)", client.UserID, len(h.clients[client.UserID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.UserID]; ok {
		if _, present := clients[client]; present {
			delete(clients, client)
			close(client.send)
		}
		if len(clients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	log.Printf("❌ WS client disconnected: %s", client.UserID)
}

// SendToUser delivers an event to every connection of a user, on any instance
func (h *Hub) SendToUser(userID uuid.UUID, event *model.WSEvent) {
	payload, err := json.Marshal(&targetedEvent{TargetUserID: userID, Event: event})
	if err != nil {
		log.Printf("Error marshaling for Redis: %v", err)
		return
	}
	if err := h.rdb.Publish(context.Background(), redisChannel, payload).Err(); err != nil {
		log.Printf("Error publishing to Redis: %v", err)
	}
}

// targetedEvent wraps an event with its recipient for Redis Pub/Sub
type targetedEvent struct {
	TargetUserID uuid.UUID      `json:"target_user_id"`
	Event        *model.WSEvent `json:"event"`
}

// sendToLocalUser delivers an event to connections on this instance only
func (h *Hub) sendToLocalUser(userID uuid.UUID, event *model.WSEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[userID]
	if !ok {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}
	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Send buffer full, drop the connection
			close(client.send)
			delete(clients, client)
		}
	}
}

// subscribeRedis delivers cross-instance events to local clients
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	log.Println("📡 Redis Pub/Sub subscriber started")

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			var targeted targetedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &targeted); err != nil {
				log.Printf("Error unmarshaling Redis message: %v", err)
				continue
			}
			if targeted.TargetUserID != uuid.Nil && targeted.Event != nil {
				h.sendToLocalUser(targeted.TargetUserID, targeted.Event)
			}
		}
	}
}
