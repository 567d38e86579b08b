package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"gorm.io/gorm"
)

// MessageRepository handles database operations for Message
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message. Messages are immutable afterwards; the only
// later write is the one-shot read_at stamp in MarkInboundRead.
func (r *MessageRepository) Create(msg *model.Message) error {
	return r.db.Create(msg).Error
}

// FindByID finds a message by ID with its sender's display fields
func (r *MessageRepository) FindByID(id uuid.UUID) (*model.Message, error) {
	var msg model.Message
	err := r.db.
		Preload("Sender").
		Where("id = ?", id).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListPage returns one page of a conversation's history. Rows are fetched
// newest-first, limited, then reversed to chronological order. A non-nil
// cursor bounds the page to rows strictly older than it. The id is the
// secondary sort key so exact created_at ties page deterministically.
//
// hasMore is the short-final-page heuristic: a full page is assumed to have
// older siblings. A short last page of exactly `limit` rows therefore reads
// as "more", costing one extra empty fetch; that approximation is the
// documented contract, not a bug.
func (r *MessageRepository) ListPage(conversationID uuid.UUID, before *time.Time, limit int) (*model.MessagePage, error) {
	messages := []model.Message{}
	query := r.db.
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)

	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}

	// Reverse to ascending created_at for display
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &model.MessagePage{
		Messages: messages,
		HasMore:  len(messages) == limit,
	}, nil
}

// LastMessage returns the most recent message in a conversation
func (r *MessageRepository) LastMessage(conversationID uuid.UUID) (*model.Message, error) {
	var msg model.Message
	err := r.db.
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkInboundRead stamps read_at on every unread message the viewer received
// in one batched UPDATE. Outbound messages and already-read messages are
// untouched. Returns the number of rows stamped.
func (r *MessageRepository) MarkInboundRead(conversationID, viewerID uuid.UUID) (int64, error) {
	res := r.db.Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND read_at IS NULL", conversationID, viewerID).
		Update("read_at", time.Now())
	return res.RowsAffected, res.Error
}

// CountUnreadForUser returns the viewer's unread total across all their
// non-deleted conversations. This backs the navigation badge and is
// re-queried wholesale on any insert; cheap at homestay message volumes.
func (r *MessageRepository) CountUnreadForUser(viewerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.guest_id = ? OR conversations.host_id = ?)", viewerID, viewerID).
		Where("conversations.is_deleted = ?", false).
		Where("messages.sender_id != ? AND messages.read_at IS NULL", viewerID).
		Count(&count).Error
	return count, err
}
