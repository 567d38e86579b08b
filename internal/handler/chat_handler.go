package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/middleware"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/minhqngo/staymate/internal/repository"
	"github.com/minhqngo/staymate/internal/service"
	"github.com/minhqngo/staymate/internal/ws"
	"github.com/minhqngo/staymate/pkg/notification"
	"gorm.io/gorm"
)

// ChatHandler handles conversation and message HTTP endpoints
type ChatHandler struct {
	chatService *service.ChatService
	hub         *ws.Hub
	notifSvc    *notification.NotificationService
}

func NewChatHandler(chatService *service.ChatService, hub *ws.Hub, notifSvc *notification.NotificationService) *ChatHandler {
	return &ChatHandler{chatService: chatService, hub: hub, notifSvc: notifSvc}
}

// ContactHost godoc
// @Summary Contact a host about a listing
// @Description Find the existing conversation for this listing, or create one. Returns conversation + latest messages.
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.ContactHostRequest true "Listing ID"
// @Success 200 {object} model.ContactHostResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /conversations/contact [post]
func (h *ChatHandler) ContactHost(c *gin.Context) {
	var req model.ContactHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	resp, err := h.chatService.ContactHost(userID, req.ListingID)
	if err != nil {
		h.answerChatError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetConversations godoc
// @Summary Get all conversations for the current user
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.ConversationSummary
// @Router /conversations [get]
func (h *ChatHandler) GetConversations(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	conversations, err := h.chatService.ListConversations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to get conversations"})
		return
	}

	c.JSON(http.StatusOK, conversations)
}

// GetConversation godoc
// @Summary Get a specific conversation
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.ConversationSummary
// @Router /conversations/{id} [get]
func (h *ChatHandler) GetConversation(c *gin.Context) {
	convID, userID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	conv, err := h.chatService.GetConversation(convID, userID)
	if err != nil {
		h.answerChatError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// SendMessage godoc
// @Summary Send a message to a conversation
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param body body model.SendMessageRequest true "Message content"
// @Success 201 {object} model.Message
// @Failure 403 {object} model.ErrorResponse
// @Failure 410 {object} model.ErrorResponse
// @Router /conversations/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	convID, userID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	msg, err := h.chatService.SendMessage(userID, convID, req.Content)
	if err != nil {
		h.answerChatError(c, err)
		return
	}
	middleware.CountMessageSent()

	go h.fanOutNewMessage(msg, userID)

	c.JSON(http.StatusCreated, msg)
}

// GetMessages godoc
// @Summary Get one page of message history
// @Description Newest page when no cursor is given; strictly older messages when `before` is set. Messages come back oldest first.
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param before query string false "RFC3339 cursor, exclusive upper bound"
// @Param limit query int false "Page size (default 30, max 100)"
// @Success 200 {object} model.MessagePage
// @Router /conversations/{id}/messages [get]
func (h *ChatHandler) GetMessages(c *gin.Context) {
	convID, userID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	var req model.MessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid query", Message: err.Error()})
		return
	}

	var before *time.Time
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339Nano, req.Before)
		if err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid cursor", Message: "before must be RFC3339"})
			return
		}
		before = &t
	}

	page, err := h.chatService.GetMessages(convID, userID, before, req.Limit)
	if err != nil {
		h.answerChatError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// MarkRead godoc
// @Summary Mark a conversation as read
// @Description Clears the conversation unread counter and stamps read receipts on inbound messages in one call.
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.SuccessResponse
// @Router /conversations/{id}/read [post]
func (h *ChatHandler) MarkRead(c *gin.Context) {
	convID, userID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	if err := h.chatService.MarkConversationRead(convID, userID); err != nil {
		h.answerChatError(c, err)
		return
	}

	stamped, err := h.chatService.MarkReceipts(convID, userID)
	if err != nil {
		h.answerChatError(c, err)
		return
	}

	if stamped > 0 {
		if otherID, err := h.chatService.OtherPartyID(convID, userID); err == nil {
			h.hub.SendToUser(otherID, &model.WSEvent{
				Type: model.WSEventMessageRead,
				Payload: model.MessageReadEvent{
					ConversationID: convID,
					ReaderID:       userID,
				},
			})
		}
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Conversation marked as read"})
}

// ToggleFlag godoc
// @Summary Toggle a conversation status flag
// @Description Flips one of is_pinned, is_starred, is_favorite, is_muted, is_blocked and returns the stored state.
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param flag path string true "Flag name"
// @Success 200 {object} model.ConversationSummary
// @Failure 400 {object} model.ErrorResponse
// @Router /conversations/{id}/flags/{flag} [patch]
func (h *ChatHandler) ToggleFlag(c *gin.Context) {
	convID, userID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	conv, err := h.chatService.ToggleFlag(convID, userID, c.Param("flag"))
	if err != nil {
		h.answerChatError(c, err)
		return
	}

	h.broadcastState(&conv.Conversation)
	c.JSON(http.StatusOK, conv)
}

// SetArchived godoc
// @Summary Archive or unarchive a conversation
// @Description Sets is_archived to the requested value. Safe to repeat.
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param body body handler.archiveRequest true "Target state"
// @Success 200 {object} model.ConversationSummary
// @Router /conversations/{id}/archive [put]
func (h *ChatHandler) SetArchived(c *gin.Context) {
	convID, userID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	var req archiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	conv, err := h.chatService.SetArchived(convID, userID, req.Archived)
	if err != nil {
		h.answerChatError(c, err)
		return
	}

	h.broadcastState(&conv.Conversation)
	c.JSON(http.StatusOK, conv)
}

type archiveRequest struct {
	Archived bool `json:"archived"`
}

// DeleteConversation godoc
// @Summary Delete a conversation
// @Description Soft delete. Permanent: the conversation cannot be reopened and the listing pairing cannot be recreated.
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.SuccessResponse
// @Router /conversations/{id} [delete]
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	convID, userID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	conv, err := h.chatService.DeleteConversation(convID, userID)
	if err != nil {
		h.answerChatError(c, err)
		return
	}

	h.broadcastState(conv)
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Conversation deleted"})
}

// GetUnreadCount godoc
// @Summary Get the total unread badge count
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UnreadResponse
// @Router /conversations/unread-count [get]
func (h *ChatHandler) GetUnreadCount(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	count, err := h.chatService.UnreadTotal(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to count unread messages"})
		return
	}

	c.JSON(http.StatusOK, model.UnreadResponse{Count: count})
}

// fanOutNewMessage pushes the identifier-level event to both parties and a
// push notification to the receiver. Muted conversations stay silent on FCM
// but still get the realtime event.
func (h *ChatHandler) fanOutNewMessage(msg *model.Message, senderID uuid.UUID) {
	event := &model.WSEvent{
		Type: model.WSEventNewMessage,
		Payload: model.MessageRef{
			MessageID:      msg.ID,
			ConversationID: msg.ConversationID,
			SenderID:       msg.SenderID,
			CreatedAt:      msg.CreatedAt,
		},
	}

	receiverID, err := h.chatService.OtherPartyID(msg.ConversationID, senderID)
	if err != nil {
		return
	}
	h.hub.SendToUsers([]uuid.UUID{senderID, receiverID}, event)

	summary, err := h.chatService.GetConversation(msg.ConversationID, senderID)
	if err != nil || summary.IsMuted {
		return
	}
	_ = h.notifSvc.SendMessageNotification(
		context.Background(),
		receiverID,
		msg.Sender.Name,
		summary.ListingTitle,
		msg.Content,
		msg.ConversationID,
	)
}

// broadcastState sends the full flag set to both parties so open views can
// react, including to deletion.
func (h *ChatHandler) broadcastState(conv *model.Conversation) {
	event := &model.WSEvent{
		Type: model.WSEventConversationUpdated,
		Payload: model.ConversationStateEvent{
			ConversationID: conv.ID,
			IsPinned:       conv.IsPinned,
			IsStarred:      conv.IsStarred,
			IsFavorite:     conv.IsFavorite,
			IsMuted:        conv.IsMuted,
			IsBlocked:      conv.IsBlocked,
			IsArchived:     conv.IsArchived,
			IsDeleted:      conv.IsDeleted,
		},
	}
	h.hub.SendToUsers([]uuid.UUID{conv.GuestID, conv.HostID}, event)
}

func (h *ChatHandler) pathIDs(c *gin.Context) (convID, userID uuid.UUID, ok bool) {
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid conversation ID"})
		return uuid.Nil, uuid.Nil, false
	}
	return convID, c.MustGet("user_id").(uuid.UUID), true
}

func (h *ChatHandler) answerChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConversationDeleted):
		c.JSON(http.StatusGone, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotParticipant), errors.Is(err, service.ErrConversationBlocked):
		c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrOwnListing), errors.Is(err, repository.ErrUnknownFlag):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrListingNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Internal server error"})
	}
}
