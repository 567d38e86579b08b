package model

import (
	"time"

	"github.com/google/uuid"
)

// ========== Auth DTOs ==========

type RegisterRequest struct {
	Name     string   `json:"name" binding:"required,min=2,max=100"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=6"`
	Role     UserRole `json:"role" binding:"required,oneof=host guest"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type GoogleLoginRequest struct {
	IDToken string   `json:"id_token" binding:"required"` // Google ID token from frontend
	Role    UserRole `json:"role" binding:"omitempty,oneof=host guest"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ========== OTP DTOs ==========

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type OTPSentResponse struct {
	Message   string `json:"message"`
	Email     string `json:"email"`
	ExpiresIn int    `json:"expires_in"` // seconds until code expires
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// ========== Profile DTOs ==========

// ProfileSetupRequest is a tagged union: Variant selects which profile block
// must be present, and each block validates independently. A host request
// never carries guest fields and vice versa.
type ProfileSetupRequest struct {
	Variant UserRole           `json:"variant" binding:"required,oneof=host guest"`
	Host    *HostProfileInput  `json:"host,omitempty"`
	Guest   *GuestProfileInput `json:"guest,omitempty"`
}

type HostProfileInput struct {
	Bio       string `json:"bio" binding:"required,max=2000"`
	City      string `json:"city" binding:"required,max=100"`
	Country   string `json:"country" binding:"required,max=100"`
	Languages string `json:"languages" binding:"max=255"`
}

type GuestProfileInput struct {
	Bio           string `json:"bio" binding:"max=2000"`
	Occupation    string `json:"occupation" binding:"max=100"`
	PreferredCity string `json:"preferred_city" binding:"required,max=100"`
}

type UpdateProfileRequest struct {
	Name   string `json:"name" binding:"max=100"`
	Avatar string `json:"avatar" binding:"max=500"`
}

type UpdateSettingsRequest struct {
	Theme                 string `json:"theme" binding:"omitempty,oneof=light dark system"`
	IsNotificationEnabled *bool  `json:"is_notification_enabled"`
	Language              string `json:"language" binding:"omitempty,len=2"`
}

type RegisterDeviceRequest struct {
	FCMToken   string `json:"fcm_token" binding:"required"`
	DeviceType string `json:"device_type" binding:"required"`
}

// ========== Listing DTOs ==========

type CreateListingRequest struct {
	Title        string   `json:"title" binding:"required,min=3,max=150"`
	Description  string   `json:"description" binding:"max=5000"`
	RoomType     string   `json:"room_type" binding:"required,oneof=entire_place private_room shared_room"`
	Address      string   `json:"address" binding:"max=255"`
	City         string   `json:"city" binding:"required,max=100"`
	Country      string   `json:"country" binding:"required,max=100"`
	NightlyPrice float64  `json:"nightly_price" binding:"required,gt=0"`
	Currency     string   `json:"currency" binding:"omitempty,len=3"`
	Capacity     int      `json:"capacity" binding:"omitempty,min=1,max=20"`
	Bedrooms     int      `json:"bedrooms" binding:"omitempty,min=0,max=20"`
	Amenities    []string `json:"amenities" binding:"max=50"`
	Images       []string `json:"images" binding:"max=10,dive,url"`
}

type UpdateListingRequest struct {
	Title        *string  `json:"title" binding:"omitempty,min=3,max=150"`
	Description  *string  `json:"description" binding:"omitempty,max=5000"`
	RoomType     *string  `json:"room_type" binding:"omitempty,oneof=entire_place private_room shared_room"`
	Address      *string  `json:"address" binding:"omitempty,max=255"`
	City         *string  `json:"city" binding:"omitempty,max=100"`
	Country      *string  `json:"country" binding:"omitempty,max=100"`
	NightlyPrice *float64 `json:"nightly_price" binding:"omitempty,gt=0"`
	Capacity     *int     `json:"capacity" binding:"omitempty,min=1,max=20"`
	Bedrooms     *int     `json:"bedrooms" binding:"omitempty,min=0,max=20"`
	Amenities    []string `json:"amenities" binding:"omitempty,max=50"`
	Images       []string `json:"images" binding:"omitempty,max=10,dive,url"`
	IsActive     *bool    `json:"is_active"`
}

type ListingFilter struct {
	City     string  `form:"city"`
	Country  string  `form:"country"`
	MaxPrice float64 `form:"max_price"`
	MinPrice float64 `form:"min_price"`
	RoomType string  `form:"room_type"`
	Limit    int     `form:"limit,default=20"`
	Offset   int     `form:"offset"`
}

// ========== Conversation DTOs ==========

type ContactHostRequest struct {
	ListingID uuid.UUID `json:"listing_id" binding:"required"`
}

// ContactHostResponse returns the (possibly pre-existing) conversation plus
// its most recent message page. IsNew reports whether the row was created by
// this call.
type ContactHostResponse struct {
	Conversation ConversationSummary `json:"conversation"`
	Messages     MessagePage         `json:"messages"`
	IsNew        bool                `json:"is_new"`
}

// ConversationSummary is one denormalized inbox entry: the conversation row
// joined with listing title, the viewer's counterpart and the last message.
type ConversationSummary struct {
	Conversation
	ListingTitle string      `json:"listing_title"`
	OtherParty   Participant `json:"other_party"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=4000"`
}

type MessageListRequest struct {
	Before string `form:"before"` // RFC3339 cursor: strictly-older-than bound
	Limit  int    `form:"limit,default=30"`
}

type UnreadResponse struct {
	Count int64 `json:"count"`
}

// ========== WebSocket Event DTOs ==========

type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocket event types
const (
	WSEventNewMessage          = "new_message"
	WSEventConversationUpdated = "conversation_updated"
	WSEventMessageRead         = "message_read"
	WSEventTyping              = "typing"
	WSEventStopTyping          = "stop_typing"
	WSEventOnline              = "online"
	WSEventOffline             = "offline"
)

// MessageRef is the identifier-level payload of a new_message event. The
// feed deliberately omits joined sender data; consumers re-fetch the full
// row before display.
type MessageRef struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationStateEvent carries the full flag set of a conversation row
// after an update, so an open view can catch deletion-by-flag.
type ConversationStateEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	IsPinned       bool      `json:"is_pinned"`
	IsStarred      bool      `json:"is_starred"`
	IsFavorite     bool      `json:"is_favorite"`
	IsMuted        bool      `json:"is_muted"`
	IsBlocked      bool      `json:"is_blocked"`
	IsArchived     bool      `json:"is_archived"`
	IsDeleted      bool      `json:"is_deleted"`
}

type TypingEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
}

type OnlineEvent struct {
	UserID   uuid.UUID `json:"user_id"`
	IsOnline bool      `json:"is_online"`
}

type MessageReadEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	ReaderID       uuid.UUID `json:"reader_id"`
}

// ========== Upload DTOs ==========

type UploadResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
