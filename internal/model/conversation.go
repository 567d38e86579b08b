package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is the scoped container of messages between exactly one guest
// and one host about one listing. At most one row exists per
// (listing, guest, host) triple; existence is checked before insert and the
// unique index backstops the race.
type Conversation struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ListingID uuid.UUID `json:"listing_id" gorm:"type:uuid;not null;uniqueIndex:idx_listing_guest_host"`
	GuestID   uuid.UUID `json:"guest_id" gorm:"type:uuid;not null;uniqueIndex:idx_listing_guest_host;index"`
	HostID    uuid.UUID `json:"host_id" gorm:"type:uuid;not null;uniqueIndex:idx_listing_guest_host;index"`

	// Status flags are independent booleans; none are mutually exclusive.
	IsPinned   bool `json:"is_pinned" gorm:"default:false"`
	IsStarred  bool `json:"is_starred" gorm:"default:false"`
	IsFavorite bool `json:"is_favorite" gorm:"default:false"`
	IsMuted    bool `json:"is_muted" gorm:"default:false"`
	IsBlocked  bool `json:"is_blocked" gorm:"default:false"`
	IsArchived bool `json:"is_archived" gorm:"default:false"`
	// IsDeleted is terminal: once set, the conversation is permanently inert.
	// Rows are soft-deleted only, never removed.
	IsDeleted bool `json:"is_deleted" gorm:"default:false;index"`

	UnreadCount int  `json:"unread_count" gorm:"default:0;check:unread_count >= 0"`
	IsRead      bool `json:"is_read" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"` // bumped on every new message

	// Relations
	Listing     Listing  `json:"listing" gorm:"foreignKey:ListingID"`
	Guest       User     `json:"guest" gorm:"foreignKey:GuestID"`
	Host        User     `json:"host" gorm:"foreignKey:HostID"`
	LastMessage *Message `json:"last_message,omitempty" gorm:"-"` // populated manually
}

// BeforeCreate assigns the id; the schema default only backstops raw SQL inserts
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// OtherParty returns the displayed counterpart for a viewer: the guest when
// the viewer is the host, otherwise the host. Computed per conversation,
// never assumed globally.
func (c *Conversation) OtherParty(viewerID uuid.UUID) Participant {
	if viewerID == c.HostID {
		return c.Guest.ToParticipant()
	}
	return c.Host.ToParticipant()
}

// HasParticipant checks whether a user is one of the two parties
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return userID == c.GuestID || userID == c.HostID
}
