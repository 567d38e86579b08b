package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/minhqngo/staymate/internal/middleware"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/minhqngo/staymate/internal/service"
	"github.com/minhqngo/staymate/internal/ws"
	"github.com/minhqngo/staymate/pkg/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, validate origin
	},
}

// WSHandler handles WebSocket connections
type WSHandler struct {
	hub         *ws.Hub
	chatService *service.ChatService
	chatHandler *ChatHandler
	jwtManager  *auth.JWTManager
}

func NewWSHandler(hub *ws.Hub, chatService *service.ChatService, chatHandler *ChatHandler, jwtManager *auth.JWTManager) *WSHandler {
	return &WSHandler{
		hub:         hub,
		chatService: chatService,
		chatHandler: chatHandler,
		jwtManager:  jwtManager,
	}
}

// HandleWebSocket upgrades HTTP to WebSocket and manages the connection.
// Clients connect with: ws://host/ws?token=<jwt_token>
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	// Authenticate via query parameter (WebSocket can't use Authorization header)
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
		return
	}

	claims, err := h.jwtManager.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID, claims.Name)
	h.hub.Register(client)
	middleware.TrackWSConnection(1)

	log.Printf("✅ WS Connected: UserID=%s Name=%s", claims.UserID, claims.Name)

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleWSMessage)
		middleware.TrackWSConnection(-1)
	}()
}

// handleWSMessage processes incoming WebSocket messages from clients
func (h *WSHandler) handleWSMessage(client *ws.Client, event model.WSEvent) {
	log.Printf("📩 WS Received from %s (%s): %s", client.Name, client.UserID, event.Type)

	switch event.Type {
	case model.WSEventNewMessage:
		h.handleNewMessage(client, event)

	case model.WSEventTyping:
		h.handleTyping(client, event, model.WSEventTyping)

	case model.WSEventStopTyping:
		h.handleTyping(client, event, model.WSEventStopTyping)

	case model.WSEventMessageRead:
		h.handleMessageRead(client, event)

	default:
		log.Printf("Unknown WebSocket event type: %s", event.Type)
	}
}

// handleNewMessage persists a chat message sent over the socket and fans the
// identifier-level event out, same as the REST path.
func (h *WSHandler) handleNewMessage(client *ws.Client, event model.WSEvent) {
	payloadBytes, _ := json.Marshal(event.Payload)
	var payload struct {
		ConversationID uuid.UUID `json:"conversation_id"`
		Content        string    `json:"content"`
	}
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		log.Printf("Error parsing new_message payload: %v", err)
		return
	}
	if payload.Content == "" {
		return
	}

	msg, err := h.chatService.SendMessage(client.UserID, payload.ConversationID, payload.Content)
	if err != nil {
		log.Printf("Error saving message: %v", err)
		return
	}
	middleware.CountMessageSent()

	h.chatHandler.fanOutNewMessage(msg, client.UserID)
}

// handleTyping relays a typing indicator to the counterpart
func (h *WSHandler) handleTyping(client *ws.Client, event model.WSEvent, eventType string) {
	payloadBytes, _ := json.Marshal(event.Payload)
	var payload struct {
		ConversationID uuid.UUID `json:"conversation_id"`
	}
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return
	}

	otherID, err := h.chatService.OtherPartyID(payload.ConversationID, client.UserID)
	if err != nil {
		return
	}

	h.hub.SendToUser(otherID, &model.WSEvent{
		Type: eventType,
		Payload: model.TypingEvent{
			ConversationID: payload.ConversationID,
			UserID:         client.UserID,
			Name:           client.Name,
		},
	})
}

// handleMessageRead marks the conversation read and notifies the counterpart
func (h *WSHandler) handleMessageRead(client *ws.Client, event model.WSEvent) {
	payloadBytes, _ := json.Marshal(event.Payload)
	var payload struct {
		ConversationID uuid.UUID `json:"conversation_id"`
	}
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return
	}

	if err := h.chatService.MarkConversationRead(payload.ConversationID, client.UserID); err != nil {
		return
	}
	stamped, err := h.chatService.MarkReceipts(payload.ConversationID, client.UserID)
	if err != nil || stamped == 0 {
		return
	}

	otherID, err := h.chatService.OtherPartyID(payload.ConversationID, client.UserID)
	if err != nil {
		return
	}

	h.hub.SendToUser(otherID, &model.WSEvent{
		Type: model.WSEventMessageRead,
		Payload: model.MessageReadEvent{
			ConversationID: payload.ConversationID,
			ReaderID:       client.UserID,
		},
	})
}
