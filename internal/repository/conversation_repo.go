package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"gorm.io/gorm"
)

// ErrUnknownFlag is returned when a caller names a column outside the
// conversation flag set.
var ErrUnknownFlag = errors.New("unknown conversation flag")

// conversationFlags is the closed set of toggleable status columns
var conversationFlags = map[string]bool{
	"is_pinned":   true,
	"is_starred":  true,
	"is_favorite": true,
	"is_muted":    true,
	"is_blocked":  true,
	"is_archived": true,
}

// ConversationRepository handles database operations for Conversation
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a new conversation row
func (r *ConversationRepository) Create(conv *model.Conversation) error {
	return r.db.Create(conv).Error
}

// FindByID finds a conversation with listing and both participants loaded
func (r *ConversationRepository) FindByID(id uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.
		Preload("Listing").
		Preload("Guest").
		Preload("Host").
		Where("id = ?", id).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindByTriple finds the conversation for a (listing, guest, host) triple.
// Deleted rows count: the triple stays occupied so a guest cannot spawn a
// fresh conversation around a deletion.
func (r *ConversationRepository) FindByTriple(listingID, guestID, hostID uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.
		Preload("Listing").
		Preload("Guest").
		Preload("Host").
		Where("listing_id = ? AND guest_id = ? AND host_id = ?", listingID, guestID, hostID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListForUser returns the viewer's conversations on either side of the
// marketplace, excluding deleted ones, newest activity first.
func (r *ConversationRepository) ListForUser(viewerID uuid.UUID) ([]model.Conversation, error) {
	var conversations []model.Conversation
	err := r.db.
		Preload("Listing").
		Preload("Guest").
		Preload("Host").
		Where("(guest_id = ? OR host_id = ?) AND is_deleted = ?", viewerID, viewerID, false).
		Order("updated_at DESC").
		Find(&conversations).Error
	return conversations, err
}

// SetFlag persists one boolean status column. The column must be in the
// toggleable flag set; is_deleted has its own one-way path.
func (r *ConversationRepository) SetFlag(id uuid.UUID, column string, value bool) error {
	if !conversationFlags[column] {
		return ErrUnknownFlag
	}
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", id).
		Update(column, value).Error
}

// MarkDeleted sets the terminal is_deleted flag. There is no reverse path.
func (r *ConversationRepository) MarkDeleted(id uuid.UUID) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
}

// MarkRead clears the conversation-level unread bookkeeping in one update.
// Per-message read_at stamps are a separate concern (MessageRepository).
func (r *ConversationRepository) MarkRead(id uuid.UUID) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_read":      true,
			"unread_count": 0,
		}).Error
}

// BumpOnNewMessage records message arrival on the conversation row: activity
// timestamp for inbox sorting, plus the receiver-side unread aggregate.
func (r *ConversationRepository) BumpOnNewMessage(id uuid.UUID) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"updated_at":   time.Now(),
			"unread_count": gorm.Expr("unread_count + 1"),
			"is_read":      false,
		}).Error
}
