package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/redis/go-redis/v9"
)

const redisChannel = "staymate:events"

// Hub tracks the live WebSocket connections and fans events out to them.
// Redis Pub/Sub carries events across instances so any node can deliver to a
// user connected elsewhere.
type Hub struct {
	// userID -> set of connections (one user can have several tabs/devices)
	clients map[uuid.UUID]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	broadcast chan *model.WSEvent

	rdb *redis.Client

	// Called when a user gains their first or loses their last connection
	onStatusChange func(userID uuid.UUID, online bool)
}

// NewHub creates a new WebSocket Hub
func NewHub(rdb *redis.Client, onStatusChange func(userID uuid.UUID, online bool)) *Hub {
	return &Hub{
		clients:        make(map[uuid.UUID]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan *model.WSEvent, 256),
		rdb:            rdb,
		onStatusChange: onStatusChange,
	}
}

// Run starts the Hub's main event loop
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

		case event := <-h.broadcast:
			h.broadcastToLocal(event)
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
		// First connection for this user
		if h.onStatusChange != nil {
			go h.onStatusChange(client.UserID, true)
		}
		h.publishToRedis(&envelope{
			Event: &model.WSEvent{
				Type: model.WSEventOnline,
				Payload: model.OnlineEvent{
					UserID:   client.UserID,
					IsOnline: true,
				},
			},
		})
	}
	h.clients[client.UserID][client] = true
	log.Printf("✅ Client connected: %s (connections: %d)", client.UserID, len(h.clients[client.UserID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.UserID]; ok {
		// The delivery path may have dropped this client already; close the
		// send channel at most once.
		if _, present := clients[client]; present {
			delete(clients, client)
			close(client.send)
		}

		if len(clients) == 0 {
			// Last connection gone
			delete(h.clients, client.UserID)
			if h.onStatusChange != nil {
				go h.onStatusChange(client.UserID, false)
			}
			h.publishToRedis(&envelope{
				Event: &model.WSEvent{
					Type: model.WSEventOffline,
					Payload: model.OnlineEvent{
						UserID:   client.UserID,
						IsOnline: false,
					},
				},
			})
		}
	}
	log.Printf("❌ Client disconnected: %s", client.UserID)
}

// SendToUser sends an event to a specific user (all their connections,
// on every instance)
func (h *Hub) SendToUser(userID uuid.UUID, event *model.WSEvent) {
	h.publishToRedis(&envelope{
		TargetUserID: userID,
		Event:        event,
	})
}

// SendToUsers sends an event to multiple users
func (h *Hub) SendToUsers(userIDs []uuid.UUID, event *model.WSEvent) {
	for _, userID := range userIDs {
		h.SendToUser(userID, event)
	}
}

// sendToLocalUser delivers to every local connection of one user. Runs
// concurrently from the Redis subscriber and handler goroutines, and may
// drop slow clients from the map, so it takes the write lock.
func (h *Hub) sendToLocalUser(userID uuid.UUID, event *model.WSEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[userID]; ok {
		data, err := json.Marshal(event)
		if err != nil {
			log.Printf("Error marshaling event: %v", err)
			return
		}
		for client := range clients {
			select {
			case client.send <- data:
			default:
				// Send buffer full, drop the connection. Its pumps shut down
				// and the unregister path finishes the user-level cleanup.
				close(client.send)
				delete(clients, client)
			}
		}
	}
}

func (h *Hub) broadcastToLocal(event *model.WSEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling broadcast event: %v", err)
		return
	}

	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				close(client.send)
				delete(clients, client)
			}
		}
	}
}

// IsUserOnline checks if a user has any active connections on this instance
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// GetOnlineUserIDs returns all currently connected user IDs on this instance
func (h *Hub) GetOnlineUserIDs() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userIDs := make([]uuid.UUID, 0, len(h.clients))
	for userID := range h.clients {
		userIDs = append(userIDs, userID)
	}
	return userIDs
}

// envelope wraps an event with an optional target user for Redis Pub/Sub.
// A nil target means broadcast.
type envelope struct {
	TargetUserID uuid.UUID      `json:"target_user_id,omitempty"`
	Event        *model.WSEvent `json:"event"`
}

func (h *Hub) publishToRedis(data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling for Redis: %v", err)
		return
	}

	if err := h.rdb.Publish(context.Background(), redisChannel, jsonData).Err(); err != nil {
		log.Printf("Error publishing to Redis: %v", err)
	}
}

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
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("Error unmarshaling Redis message: %v", err)
				continue
			}

			if env.TargetUserID != uuid.Nil {
				h.sendToLocalUser(env.TargetUserID, env.Event)
			} else if env.Event != nil {
				h.broadcastToLocal(env.Event)
			}
		}
	}
}
