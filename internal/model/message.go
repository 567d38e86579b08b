package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a chat message inside a conversation. Messages are immutable
// once created and strictly ordered by created_at; the id breaks exact
// timestamp ties. read_at is set at most once, by the non-sender, when the
// conversation is viewed. There are no update or delete paths.
type Message struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID  `json:"conversation_id" gorm:"type:uuid;index;not null"`
	SenderID       uuid.UUID  `json:"sender_id" gorm:"type:uuid;index;not null"`
	Content        string     `json:"content" gorm:"type:text;not null"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index"` // sole ordering and pagination key
	ReadAt         *time.Time `json:"read_at"`                 // NULL = unread by the receiving party

	// Relations
	Sender       User         `json:"sender" gorm:"foreignKey:SenderID"`
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID"`
}

// BeforeCreate assigns the id; the schema default only backstops raw SQL inserts
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MessagePage is one page of a conversation's history in chronological
// order. HasMore uses the short-final-page heuristic: a full page is assumed
// to have older siblings, a short one is assumed to be the last. That is an
// approximation, not an exact count, and is the documented contract.
type MessagePage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

// OldestCreatedAt returns the pagination cursor for the next older page,
// or nil for an empty page.
func (p *MessagePage) OldestCreatedAt() *time.Time {
	if len(p.Messages) == 0 {
		return nil
	}
	t := p.Messages[0].CreatedAt
	return &t
}
