package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthProvider defines how the user authenticates
type AuthProvider string

const (
	AuthProviderEmail  AuthProvider = "email"
	AuthProviderGoogle AuthProvider = "google"
)

// UserRole defines which side of the marketplace the user is on
type UserRole string

const (
	UserRoleHost  UserRole = "host"
	UserRoleGuest UserRole = "guest"
)

// User represents a registered host or guest with multi-provider authentication
type User struct {
	ID              uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string       `json:"name" gorm:"size:100;not null"`
	Email           string       `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password        string       `json:"-" gorm:"size:255"` // NULL for Google OAuth users
	Avatar          string       `json:"avatar" gorm:"size:500;default:''"`
	Role            UserRole     `json:"role" gorm:"type:varchar(10);default:'guest';index"`
	AuthProvider    AuthProvider `json:"auth_provider" gorm:"type:varchar(20);default:'email'"`
	GoogleID        *string      `json:"-" gorm:"uniqueIndex;size:255"`
	EmailVerifiedAt *time.Time   `json:"email_verified_at" gorm:"type:timestamptz"` // NULL = not verified

	// Role-specific profile blocks. Exactly one of the two is meaningful,
	// selected by Role; requests use per-variant DTOs so neither side ever
	// submits the other's fields.
	Host  HostProfile  `json:"host_profile" gorm:"embedded;embeddedPrefix:host_"`
	Guest GuestProfile `json:"guest_profile" gorm:"embedded;embeddedPrefix:guest_"`

	// User Settings
	Theme                 string `json:"theme" gorm:"size:20;default:'system'"`
	IsNotificationEnabled bool   `json:"is_notification_enabled" gorm:"default:true"`
	Language              string `json:"language" gorm:"size:10;default:'en'"`

	IsOnline  bool           `json:"is_online" gorm:"default:false"`
	LastSeen  *time.Time     `json:"last_seen"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns the id; the schema default only backstops raw SQL inserts
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HostProfile carries the fields a host fills in during profile setup
type HostProfile struct {
	Bio       string `json:"bio,omitempty" gorm:"type:text"`
	City      string `json:"city,omitempty" gorm:"size:100"`
	Country   string `json:"country,omitempty" gorm:"size:100"`
	Languages string `json:"languages,omitempty" gorm:"size:255"` // comma separated
}

// GuestProfile carries the fields a guest fills in during profile setup
type GuestProfile struct {
	Bio           string `json:"bio,omitempty" gorm:"type:text"`
	Occupation    string `json:"occupation,omitempty" gorm:"size:100"`
	PreferredCity string `json:"preferred_city,omitempty" gorm:"size:100"`
}

// IsEmailVerified checks if the user's email has been verified
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// UserResponse is the safe version of User for API responses
type UserResponse struct {
	ID                    uuid.UUID     `json:"id"`
	Name                  string        `json:"name"`
	Email                 string        `json:"email"`
	Avatar                string        `json:"avatar"`
	Role                  UserRole      `json:"role"`
	AuthProvider          AuthProvider  `json:"auth_provider"`
	EmailVerified         bool          `json:"email_verified"`
	IsOnline              bool          `json:"is_online"`
	Theme                 string        `json:"theme"`
	IsNotificationEnabled bool          `json:"is_notification_enabled"`
	Language              string        `json:"language"`
	HostProfile           *HostProfile  `json:"host_profile,omitempty"`
	GuestProfile          *GuestProfile `json:"guest_profile,omitempty"`
	LastSeen              *time.Time    `json:"last_seen"`
}

// ToResponse converts User to safe UserResponse
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:                    u.ID,
		Name:                  u.Name,
		Email:                 u.Email,
		Avatar:                u.Avatar,
		Role:                  u.Role,
		AuthProvider:          u.AuthProvider,
		EmailVerified:         u.IsEmailVerified(),
		IsOnline:              u.IsOnline,
		Theme:                 u.Theme,
		IsNotificationEnabled: u.IsNotificationEnabled,
		Language:              u.Language,
		LastSeen:              u.LastSeen,
	}
	switch u.Role {
	case UserRoleHost:
		host := u.Host
		resp.HostProfile = &host
	case UserRoleGuest:
		guest := u.Guest
		resp.GuestProfile = &guest
	}
	return resp
}

// Participant is the display identity of a conversation party
type Participant struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

// ToParticipant reduces a User to its conversation display identity
func (u *User) ToParticipant() Participant {
	return Participant{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
