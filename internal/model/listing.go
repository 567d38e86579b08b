package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Listing is a room or home a host offers for homestay
type Listing struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	HostID      uuid.UUID `json:"host_id" gorm:"type:uuid;not null;index"`
	Title       string    `json:"title" gorm:"size:150;not null"`
	Description string    `json:"description" gorm:"type:text"`
	RoomType    string    `json:"room_type" gorm:"size:30;default:'private_room'"` // entire_place, private_room, shared_room
	Address     string    `json:"address" gorm:"size:255"`
	City        string    `json:"city" gorm:"size:100;index"`
	Country     string    `json:"country" gorm:"size:100"`

	NightlyPrice float64 `json:"nightly_price"`
	Currency     string  `json:"currency" gorm:"size:10;default:'USD'"`
	Capacity     int     `json:"capacity" gorm:"default:1"`
	Bedrooms     int     `json:"bedrooms" gorm:"default:1"`

	Amenities datatypes.JSON `json:"amenities" gorm:"type:jsonb"` // array of amenity names
	Images    datatypes.JSON `json:"images" gorm:"type:jsonb"`    // array of blob-store URLs, max 10

	IsActive  bool           `json:"is_active" gorm:"default:true;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Host User `json:"host" gorm:"foreignKey:HostID"`
}

// BeforeCreate assigns the id; the schema default only backstops raw SQL inserts
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// MaxListingImages caps how many image URLs a listing may carry
const MaxListingImages = 10

// SavedListing is a guest's bookmark on a listing
type SavedListing struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_listing"`
	ListingID uuid.UUID `json:"listing_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_listing"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User    User    `json:"-" gorm:"foreignKey:UserID"`
	Listing Listing `json:"listing" gorm:"foreignKey:ListingID"`
}

// BeforeCreate assigns the id; the schema default only backstops raw SQL inserts
func (s *SavedListing) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
