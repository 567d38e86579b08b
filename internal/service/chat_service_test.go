package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/minhqngo/staymate/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Listing{},
		&model.SavedListing{},
		&model.Conversation{},
		&model.Message{},
	))
	return db
}

func newChatService(t *testing.T) (*ChatService, *gorm.DB) {
	db := setupTestDB(t)
	return NewChatService(
		repository.NewConversationRepository(db),
		repository.NewMessageRepository(db),
		repository.NewListingRepository(db),
	), db
}

func createTestUser(t *testing.T, db *gorm.DB, name string, role model.UserRole) *model.User {
	t.Helper()
	now := time.Now()
	user := &model.User{
		Name:            name,
		Email:           fmt.Sprintf("%s-%s@staymate.local", name, uuid.NewString()[:8]),
		Role:            role,
		AuthProvider:    model.AuthProviderEmail,
		EmailVerifiedAt: &now,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestListing(t *testing.T, db *gorm.DB, host *model.User, title string) *model.Listing {
	t.Helper()
	listing := &model.Listing{
		HostID:       host.ID,
		Title:        title,
		RoomType:     "private_room",
		City:         "Lisbon",
		Country:      "Portugal",
		NightlyPrice: 42,
		Currency:     "USD",
		Capacity:     2,
		IsActive:     true,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

// The models must migrate on a fresh database without Postgres-only DDL;
// ids come from the BeforeCreate hooks, not from a column default.
func TestModelsMigrateAndAssignIDs(t *testing.T) {
	db := setupTestDB(t)

	host := createTestUser(t, db, "Marta", model.UserRoleHost)
	listing := createTestListing(t, db, host, "Fresh schema")

	assert.NotEqual(t, uuid.Nil, host.ID)
	assert.NotEqual(t, uuid.Nil, listing.ID)

	guest := createTestUser(t, db, "Ken", model.UserRoleGuest)
	conv := &model.Conversation{ListingID: listing.ID, GuestID: guest.ID, HostID: host.ID}
	require.NoError(t, db.Create(conv).Error)
	assert.NotEqual(t, uuid.Nil, conv.ID)
}

type chatFixture struct {
	svc     *ChatService
	db      *gorm.DB
	host    *model.User
	guest   *model.User
	listing *model.Listing
	convID  uuid.UUID
}

func newChatFixture(t *testing.T) *chatFixture {
	svc, db := newChatService(t)
	host := createTestUser(t, db, "Marta", model.UserRoleHost)
	guest := createTestUser(t, db, "Ken", model.UserRoleGuest)
	listing := createTestListing(t, db, host, "Quiet room near the river")

	resp, err := svc.ContactHost(guest.ID, listing.ID)
	require.NoError(t, err)
	require.True(t, resp.IsNew)

	return &chatFixture{
		svc:     svc,
		db:      db,
		host:    host,
		guest:   guest,
		listing: listing,
		convID:  resp.Conversation.ID,
	}
}

// insertMessage writes a message with an explicit timestamp, bypassing the
// service so tests control ordering exactly.
func (f *chatFixture) insertMessage(t *testing.T, senderID uuid.UUID, content string, at time.Time) *model.Message {
	t.Helper()
	msg := &model.Message{
		ConversationID: f.convID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      at,
	}
	require.NoError(t, f.db.Create(msg).Error)
	return msg
}

// ==================== ContactHost ====================

func TestContactHostCreatesAtMostOneConversation(t *testing.T) {
	svc, db := newChatService(t)
	host := createTestUser(t, db, "Marta", model.UserRoleHost)
	guest := createTestUser(t, db, "Ken", model.UserRoleGuest)
	listing := createTestListing(t, db, host, "Loft with a view")

	first, err := svc.ContactHost(guest.ID, listing.ID)
	require.NoError(t, err)
	assert.True(t, first.IsNew)
	assert.Empty(t, first.Messages.Messages)

	second, err := svc.ContactHost(guest.ID, listing.ID)
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.Conversation.ID, second.Conversation.ID)

	var count int64
	db.Model(&model.Conversation{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestContactHostResolvesParties(t *testing.T) {
	f := newChatFixture(t)

	resp, err := f.svc.ContactHost(f.guest.ID, f.listing.ID)
	require.NoError(t, err)

	assert.Equal(t, f.guest.ID, resp.Conversation.GuestID)
	assert.Equal(t, f.host.ID, resp.Conversation.HostID)
	assert.Equal(t, f.listing.Title, resp.Conversation.ListingTitle)
	assert.Equal(t, f.host.ID, resp.Conversation.OtherParty.ID, "guest's counterpart is the host")
}

func TestContactHostRejectsOwnListing(t *testing.T) {
	svc, db := newChatService(t)
	host := createTestUser(t, db, "Marta", model.UserRoleHost)
	listing := createTestListing(t, db, host, "My own place")

	_, err := svc.ContactHost(host.ID, listing.ID)
	assert.ErrorIs(t, err, ErrOwnListing)
}

func TestContactHostMissingListing(t *testing.T) {
	svc, db := newChatService(t)
	guest := createTestUser(t, db, "Ken", model.UserRoleGuest)

	_, err := svc.ContactHost(guest.ID, uuid.New())
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestContactHostDeletedConversationStaysTerminal(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.DeleteConversation(f.convID, f.guest.ID)
	require.NoError(t, err)

	_, err = f.svc.ContactHost(f.guest.ID, f.listing.ID)
	assert.ErrorIs(t, err, ErrConversationDeleted)

	var count int64
	f.db.Model(&model.Conversation{}).Count(&count)
	assert.EqualValues(t, 1, count, "no replacement row may appear")
}

// ==================== Flags ====================

func TestToggleFlagFlipsAndPersists(t *testing.T) {
	f := newChatFixture(t)

	conv, err := f.svc.ToggleFlag(f.convID, f.guest.ID, FlagPinned)
	require.NoError(t, err)
	assert.True(t, conv.IsPinned)

	conv, err = f.svc.ToggleFlag(f.convID, f.guest.ID, FlagPinned)
	require.NoError(t, err)
	assert.False(t, conv.IsPinned)

	// Each flag is independent
	conv, err = f.svc.ToggleFlag(f.convID, f.host.ID, FlagMuted)
	require.NoError(t, err)
	assert.True(t, conv.IsMuted)
	assert.False(t, conv.IsPinned)
	assert.False(t, conv.IsStarred)
}

func TestToggleFlagUnknownName(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.ToggleFlag(f.convID, f.guest.ID, "is_deleted")
	assert.ErrorIs(t, err, repository.ErrUnknownFlag)

	_, err = f.svc.ToggleFlag(f.convID, f.guest.ID, "unread_count")
	assert.ErrorIs(t, err, repository.ErrUnknownFlag)
}

func TestSetArchivedIsIdempotent(t *testing.T) {
	f := newChatFixture(t)

	for i := 0; i < 3; i++ {
		conv, err := f.svc.SetArchived(f.convID, f.guest.ID, true)
		require.NoError(t, err)
		assert.True(t, conv.IsArchived)
	}

	conv, err := f.svc.SetArchived(f.convID, f.guest.ID, false)
	require.NoError(t, err)
	assert.False(t, conv.IsArchived)
}

// ==================== Delete ====================

func TestDeleteConversationIsTerminal(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.DeleteConversation(f.convID, f.host.ID)
	require.NoError(t, err)

	_, err = f.svc.GetConversation(f.convID, f.host.ID)
	assert.ErrorIs(t, err, ErrConversationDeleted)

	_, err = f.svc.SendMessage(f.guest.ID, f.convID, "anyone there?")
	assert.ErrorIs(t, err, ErrConversationDeleted)

	_, err = f.svc.ToggleFlag(f.convID, f.guest.ID, FlagPinned)
	assert.ErrorIs(t, err, ErrConversationDeleted)

	_, err = f.svc.DeleteConversation(f.convID, f.host.ID)
	assert.ErrorIs(t, err, ErrConversationDeleted)

	list, err := f.svc.ListConversations(f.guest.ID)
	require.NoError(t, err)
	assert.Empty(t, list, "deleted conversations leave the inbox")
}

// ==================== Access control ====================

func TestConversationParticipantOnly(t *testing.T) {
	f := newChatFixture(t)
	outsider := createTestUser(t, f.db, "Pat", model.UserRoleGuest)

	_, err := f.svc.GetConversation(f.convID, outsider.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.svc.SendMessage(outsider.ID, f.convID, "hi")
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.svc.MarkReceipts(f.convID, outsider.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

// ==================== Messages ====================

func TestSendMessageBumpsConversation(t *testing.T) {
	f := newChatFixture(t)

	msg, err := f.svc.SendMessage(f.guest.ID, f.convID, "is the room free next week?")
	require.NoError(t, err)
	assert.Equal(t, f.guest.Name, msg.Sender.Name, "returned row carries sender display fields")
	assert.Nil(t, msg.ReadAt)

	conv, err := f.svc.GetConversation(f.convID, f.host.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, conv.UnreadCount)
	assert.False(t, conv.IsRead)
	require.NotNil(t, conv.LastMessage)
	assert.Equal(t, msg.ID, conv.LastMessage.ID)
}

func TestSendMessageBlockedConversation(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.ToggleFlag(f.convID, f.host.ID, FlagBlocked)
	require.NoError(t, err)

	_, err = f.svc.SendMessage(f.guest.ID, f.convID, "hello?")
	assert.ErrorIs(t, err, ErrConversationBlocked)
}

func TestGetMessagesPaginatesWithoutDuplicates(t *testing.T) {
	f := newChatFixture(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 45; i++ {
		f.insertMessage(t, f.guest.ID, fmt.Sprintf("msg-%02d", i), base.Add(time.Duration(i)*time.Minute))
	}

	page1, err := f.svc.GetMessages(f.convID, f.host.ID, nil, 20)
	require.NoError(t, err)
	require.Len(t, page1.Messages, 20)
	assert.True(t, page1.HasMore)
	assert.Equal(t, "msg-25", page1.Messages[0].Content, "first page holds the newest rows, oldest first")
	assert.Equal(t, "msg-44", page1.Messages[19].Content)

	cursor := page1.OldestCreatedAt()
	require.NotNil(t, cursor)
	page2, err := f.svc.GetMessages(f.convID, f.host.ID, cursor, 20)
	require.NoError(t, err)
	require.Len(t, page2.Messages, 20)
	assert.True(t, page2.HasMore)
	assert.Equal(t, "msg-05", page2.Messages[0].Content)
	assert.Equal(t, "msg-24", page2.Messages[19].Content)

	cursor = page2.OldestCreatedAt()
	page3, err := f.svc.GetMessages(f.convID, f.host.ID, cursor, 20)
	require.NoError(t, err)
	require.Len(t, page3.Messages, 5)
	assert.False(t, page3.HasMore)
	assert.Equal(t, "msg-00", page3.Messages[0].Content)

	// No id appears twice across the walk
	seen := map[uuid.UUID]bool{}
	for _, page := range []*model.MessagePage{page1, page2, page3} {
		for _, m := range page.Messages {
			assert.False(t, seen[m.ID], "duplicate message %s", m.Content)
			seen[m.ID] = true
		}
	}
	assert.Len(t, seen, 45)
}

func TestGetMessagesCursorIsIdempotent(t *testing.T) {
	f := newChatFixture(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		f.insertMessage(t, f.guest.ID, fmt.Sprintf("msg-%02d", i), base.Add(time.Duration(i)*time.Minute))
	}

	page1, err := f.svc.GetMessages(f.convID, f.host.ID, nil, 10)
	require.NoError(t, err)
	cursor := page1.OldestCreatedAt()

	again, err := f.svc.GetMessages(f.convID, f.host.ID, cursor, 10)
	require.NoError(t, err)
	repeat, err := f.svc.GetMessages(f.convID, f.host.ID, cursor, 10)
	require.NoError(t, err)

	require.Len(t, again.Messages, 10)
	for i := range again.Messages {
		assert.Equal(t, again.Messages[i].ID, repeat.Messages[i].ID, "same cursor yields the same page")
	}
}

// ==================== Read receipts and unread ====================

func TestMarkReceiptsStampsInboundOnly(t *testing.T) {
	f := newChatFixture(t)
	base := time.Now().Add(-time.Hour)

	inbound := []*model.Message{
		f.insertMessage(t, f.guest.ID, "hi", base),
		f.insertMessage(t, f.guest.ID, "anyone home?", base.Add(time.Minute)),
		f.insertMessage(t, f.guest.ID, "still there?", base.Add(2*time.Minute)),
	}
	outbound := []*model.Message{
		f.insertMessage(t, f.host.ID, "yes, hello!", base.Add(3*time.Minute)),
		f.insertMessage(t, f.host.ID, "what dates?", base.Add(4*time.Minute)),
	}

	stamped, err := f.svc.MarkReceipts(f.convID, f.host.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stamped)

	for _, m := range inbound {
		var got model.Message
		require.NoError(t, f.db.First(&got, "id = ?", m.ID).Error)
		assert.NotNil(t, got.ReadAt)
	}
	for _, m := range outbound {
		var got model.Message
		require.NoError(t, f.db.First(&got, "id = ?", m.ID).Error)
		assert.Nil(t, got.ReadAt, "own messages must not be stamped")
	}

	// Second pass has nothing left to stamp
	stamped, err = f.svc.MarkReceipts(f.convID, f.host.ID)
	require.NoError(t, err)
	assert.Zero(t, stamped)
}

func TestMarkConversationReadClearsCounters(t *testing.T) {
	f := newChatFixture(t)
	_, err := f.svc.SendMessage(f.guest.ID, f.convID, "ping")
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkConversationRead(f.convID, f.host.ID))

	conv, err := f.svc.GetConversation(f.convID, f.host.ID)
	require.NoError(t, err)
	assert.Zero(t, conv.UnreadCount)
	assert.True(t, conv.IsRead)
}

func TestUnreadTotalSkipsDeletedConversations(t *testing.T) {
	f := newChatFixture(t)
	base := time.Now().Add(-time.Hour)
	f.insertMessage(t, f.guest.ID, "one", base)
	f.insertMessage(t, f.guest.ID, "two", base.Add(time.Minute))

	// A second conversation about another listing
	listing2 := createTestListing(t, f.db, f.host, "Second listing")
	resp, err := f.svc.ContactHost(f.guest.ID, listing2.ID)
	require.NoError(t, err)
	_, err = f.svc.SendMessage(f.guest.ID, resp.Conversation.ID, "three")
	require.NoError(t, err)

	total, err := f.svc.UnreadTotal(f.host.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	_, err = f.svc.DeleteConversation(f.convID, f.host.ID)
	require.NoError(t, err)

	total, err = f.svc.UnreadTotal(f.host.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "deleted conversations drop out of the badge")
}

// ==================== Inbox ====================

func TestListConversationsNewestActivityFirst(t *testing.T) {
	f := newChatFixture(t)

	listing2 := createTestListing(t, f.db, f.host, "Second listing")
	resp2, err := f.svc.ContactHost(f.guest.ID, listing2.ID)
	require.NoError(t, err)

	_, err = f.svc.SendMessage(f.guest.ID, f.convID, "older thread bump")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = f.svc.SendMessage(f.guest.ID, resp2.Conversation.ID, "newest activity")
	require.NoError(t, err)

	list, err := f.svc.ListConversations(f.host.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, resp2.Conversation.ID, list[0].ID)
	assert.Equal(t, f.convID, list[1].ID)

	// Each entry resolves the counterpart for the viewer
	for _, c := range list {
		assert.Equal(t, f.guest.ID, c.OtherParty.ID)
		require.NotNil(t, c.LastMessage)
	}
}
