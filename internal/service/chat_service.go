package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/minhqngo/staymate/internal/repository"
	"gorm.io/gorm"
)

// Conversation flag names accepted by ToggleFlag
const (
	FlagPinned   = "is_pinned"
	FlagStarred  = "is_starred"
	FlagFavorite = "is_favorite"
	FlagMuted    = "is_muted"
	FlagBlocked  = "is_blocked"
)

var (
	// ErrConversationDeleted marks the terminal state: a deleted conversation
	// is permanently inert. Not a fault; handlers answer 410.
	ErrConversationDeleted = errors.New("conversation is deleted")
	// ErrConversationBlocked rejects sends into a blocked conversation
	ErrConversationBlocked = errors.New("conversation is blocked")
	// ErrNotParticipant rejects access by anyone but the two parties
	ErrNotParticipant = errors.New("you are not a participant of this conversation")
	// ErrOwnListing rejects a host contacting themselves about their listing
	ErrOwnListing = errors.New("cannot contact yourself about your own listing")
	// ErrListingNotFound marks a missing or inactive contact target
	ErrListingNotFound = errors.New("listing not found")
)

const defaultPageSize = 30

// ChatService owns conversation state, message history and unread
// bookkeeping for the messaging subsystem.
type ChatService struct {
	convRepo    *repository.ConversationRepository
	msgRepo     *repository.MessageRepository
	listingRepo *repository.ListingRepository
}

func NewChatService(
	convRepo *repository.ConversationRepository,
	msgRepo *repository.MessageRepository,
	listingRepo *repository.ListingRepository,
) *ChatService {
	return &ChatService{
		convRepo:    convRepo,
		msgRepo:     msgRepo,
		listingRepo: listingRepo,
	}
}

// ContactHost finds or creates the conversation for (listing, guest, host).
// At most one conversation exists per triple: an existing row is reused, a
// deleted one stays terminal rather than being replaced.
func (s *ChatService) ContactHost(guestID, listingID uuid.UUID) (*model.ContactHostResponse, error) {
	listing, err := s.listingRepo.FindByID(listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if listing.HostID == guestID {
		return nil, ErrOwnListing
	}

	conv, err := s.convRepo.FindByTriple(listingID, guestID, listing.HostID)
	if err == nil {
		if conv.IsDeleted {
			return nil, ErrConversationDeleted
		}
		page, err := s.msgRepo.ListPage(conv.ID, nil, defaultPageSize)
		if err != nil {
			return nil, err
		}
		return &model.ContactHostResponse{
			Conversation: s.summarize(conv, guestID),
			Messages:     *page,
			IsNew:        false,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	newConv := &model.Conversation{
		ListingID: listingID,
		GuestID:   guestID,
		HostID:    listing.HostID,
		IsRead:    true,
	}
	if err := s.convRepo.Create(newConv); err != nil {
		return nil, err
	}

	// Reload with relations
	conv, err = s.convRepo.FindByID(newConv.ID)
	if err != nil {
		return nil, err
	}

	return &model.ContactHostResponse{
		Conversation: s.summarize(conv, guestID),
		Messages:     model.MessagePage{Messages: []model.Message{}, HasMore: false},
		IsNew:        true,
	}, nil
}

// ListConversations assembles the viewer's inbox: every non-deleted
// conversation they participate in, joined with listing title, counterpart
// identity and last-message preview, newest activity first. The
// pinned-then-starred presentation order is a view concern and applied by
// the consumer (chatview.SortConversations).
func (s *ChatService) ListConversations(viewerID uuid.UUID) ([]model.ConversationSummary, error) {
	conversations, err := s.convRepo.ListForUser(viewerID)
	if err != nil {
		return nil, err
	}

	result := []model.ConversationSummary{}
	for i := range conversations {
		result = append(result, s.summarize(&conversations[i], viewerID))
	}
	return result, nil
}

// GetConversation returns one conversation for a participant. A deleted
// conversation answers the terminal state instead.
func (s *ChatService) GetConversation(convID, viewerID uuid.UUID) (*model.ConversationSummary, error) {
	conv, err := s.load(convID, viewerID)
	if err != nil {
		return nil, err
	}
	summary := s.summarize(conv, viewerID)
	return &summary, nil
}

// ToggleFlag negates one of the five toggleable status flags and returns the
// conversation as persisted. The flip is applied to the returned state only
// after the write succeeds; a failed write leaves the stored flag untouched,
// so callers never observe drift.
func (s *ChatService) ToggleFlag(convID, viewerID uuid.UUID, flag string) (*model.ConversationSummary, error) {
	conv, err := s.load(convID, viewerID)
	if err != nil {
		return nil, err
	}

	var current bool
	switch flag {
	case FlagPinned:
		current = conv.IsPinned
	case FlagStarred:
		current = conv.IsStarred
	case FlagFavorite:
		current = conv.IsFavorite
	case FlagMuted:
		current = conv.IsMuted
	case FlagBlocked:
		current = conv.IsBlocked
	default:
		return nil, repository.ErrUnknownFlag
	}

	if err := s.convRepo.SetFlag(convID, flag, !current); err != nil {
		return nil, err
	}

	conv, err = s.convRepo.FindByID(convID)
	if err != nil {
		return nil, err
	}
	summary := s.summarize(conv, viewerID)
	return &summary, nil
}

// SetArchived writes is_archived unconditionally, so repeated archive or
// unarchive calls are idempotent.
func (s *ChatService) SetArchived(convID, viewerID uuid.UUID, archived bool) (*model.ConversationSummary, error) {
	conv, err := s.load(convID, viewerID)
	if err != nil {
		return nil, err
	}

	if err := s.convRepo.SetFlag(conv.ID, "is_archived", archived); err != nil {
		return nil, err
	}

	conv, err = s.convRepo.FindByID(convID)
	if err != nil {
		return nil, err
	}
	summary := s.summarize(conv, viewerID)
	return &summary, nil
}

// DeleteConversation moves a conversation to its terminal state. The only
// transition is active -> deleted; there is no way back through the API.
func (s *ChatService) DeleteConversation(convID, viewerID uuid.UUID) (*model.Conversation, error) {
	conv, err := s.load(convID, viewerID)
	if err != nil {
		return nil, err
	}

	if err := s.convRepo.MarkDeleted(conv.ID); err != nil {
		return nil, err
	}
	conv.IsDeleted = true
	return conv, nil
}

// MarkConversationRead clears the conversation-level unread bookkeeping in a
// single combined update. Deliberately coarse: it does not stamp individual
// messages, that is MarkReceipts' job. The two run together when a view
// opens and the redundancy is intentional.
func (s *ChatService) MarkConversationRead(convID, viewerID uuid.UUID) error {
	conv, err := s.load(convID, viewerID)
	if err != nil {
		return err
	}
	return s.convRepo.MarkRead(conv.ID)
}

// SendMessage appends an immutable message and records the arrival on the
// conversation row (activity bump + unread increment). Deleted and blocked
// conversations refuse the send; a failed insert leaves no phantom message.
func (s *ChatService) SendMessage(senderID, convID uuid.UUID, content string) (*model.Message, error) {
	conv, err := s.load(convID, senderID)
	if err != nil {
		return nil, err
	}
	if conv.IsBlocked {
		return nil, ErrConversationBlocked
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := s.msgRepo.Create(msg); err != nil {
		return nil, err
	}

	if err := s.convRepo.BumpOnNewMessage(conv.ID); err != nil {
		return nil, err
	}

	// Reload with sender display fields
	return s.msgRepo.FindByID(msg.ID)
}

// GetMessages returns one chronological page of history for a participant.
// An absent cursor yields the most recent page; a cursor bounds the page to
// strictly older rows.
func (s *ChatService) GetMessages(convID, viewerID uuid.UUID, before *time.Time, limit int) (*model.MessagePage, error) {
	if _, err := s.load(convID, viewerID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}
	return s.msgRepo.ListPage(convID, before, limit)
}

// MarkReceipts stamps read_at on the viewer's unread inbound messages in one
// batched update. Fire-and-forget relative to rendering: callers do not wait
// for it before showing the window.
func (s *ChatService) MarkReceipts(convID, viewerID uuid.UUID) (int64, error) {
	if _, err := s.load(convID, viewerID); err != nil {
		return 0, err
	}
	return s.msgRepo.MarkInboundRead(convID, viewerID)
}

// UnreadTotal returns the viewer's unread badge count across all
// conversations.
func (s *ChatService) UnreadTotal(viewerID uuid.UUID) (int64, error) {
	return s.msgRepo.CountUnreadForUser(viewerID)
}

// OtherPartyID resolves the receiver of an event in a conversation
func (s *ChatService) OtherPartyID(convID, senderID uuid.UUID) (uuid.UUID, error) {
	conv, err := s.convRepo.FindByID(convID)
	if err != nil {
		return uuid.Nil, err
	}
	if senderID == conv.HostID {
		return conv.GuestID, nil
	}
	return conv.HostID, nil
}

// load fetches a conversation and enforces the two access invariants shared
// by every operation: participant-only, and deleted-is-terminal.
func (s *ChatService) load(convID, viewerID uuid.UUID) (*model.Conversation, error) {
	conv, err := s.convRepo.FindByID(convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(viewerID) {
		return nil, ErrNotParticipant
	}
	if conv.IsDeleted {
		return nil, ErrConversationDeleted
	}
	return conv, nil
}

// summarize joins a conversation with its last message and resolves the
// counterpart for the viewer.
func (s *ChatService) summarize(conv *model.Conversation, viewerID uuid.UUID) model.ConversationSummary {
	if last, err := s.msgRepo.LastMessage(conv.ID); err == nil {
		conv.LastMessage = last
	}
	return model.ConversationSummary{
		Conversation: *conv,
		ListingTitle: conv.Listing.Title,
		OtherParty:   conv.OtherParty(viewerID),
	}
}
