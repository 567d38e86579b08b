package chatview

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFlagClient struct {
	rows        map[uuid.UUID]model.ConversationSummary
	failWith    error
	toggleCalls int
	deleteCalls int
}

func newFakeFlagClient() *fakeFlagClient {
	return &fakeFlagClient{rows: make(map[uuid.UUID]model.ConversationSummary)}
}

func (c *fakeFlagClient) ToggleFlag(_ context.Context, id uuid.UUID, flag string) (*model.ConversationSummary, error) {
	c.toggleCalls++
	if c.failWith != nil {
		return nil, c.failWith
	}
	row := c.rows[id]
	switch flag {
	case "is_pinned":
		row.IsPinned = !row.IsPinned
	case "is_starred":
		row.IsStarred = !row.IsStarred
	case "is_favorite":
		row.IsFavorite = !row.IsFavorite
	case "is_muted":
		row.IsMuted = !row.IsMuted
	case "is_blocked":
		row.IsBlocked = !row.IsBlocked
	}
	c.rows[id] = row
	return &row, nil
}

func (c *fakeFlagClient) SetArchived(_ context.Context, id uuid.UUID, archived bool) (*model.ConversationSummary, error) {
	if c.failWith != nil {
		return nil, c.failWith
	}
	row := c.rows[id]
	row.IsArchived = archived
	c.rows[id] = row
	return &row, nil
}

func (c *fakeFlagClient) Delete(_ context.Context, id uuid.UUID) error {
	c.deleteCalls++
	if c.failWith != nil {
		return c.failWith
	}
	row := c.rows[id]
	row.IsDeleted = true
	c.rows[id] = row
	return nil
}

func seedState(client *fakeFlagClient, store *StateStore) model.ConversationSummary {
	summary := model.ConversationSummary{
		Conversation: model.Conversation{ID: uuid.New()},
		ListingTitle: "Sunny loft near the old town",
	}
	client.rows[summary.ID] = summary
	store.Put(summary)
	return summary
}

func TestStateStoreToggleConfirmsBeforeApplying(t *testing.T) {
	client := newFakeFlagClient()
	store := NewStateStore(client)
	summary := seedState(client, store)

	updated, err := store.Toggle(context.Background(), summary.ID, "is_pinned")
	require.NoError(t, err)
	assert.True(t, updated.IsPinned)

	got, ok := store.Get(summary.ID)
	require.True(t, ok)
	assert.True(t, got.IsPinned, "store must adopt the confirmed row")
}

func TestStateStoreFailedToggleLeavesNoDrift(t *testing.T) {
	client := newFakeFlagClient()
	store := NewStateStore(client)
	summary := seedState(client, store)
	client.failWith = errors.New("network down")

	_, err := store.Toggle(context.Background(), summary.ID, "is_starred")
	require.Error(t, err)

	got, _ := store.Get(summary.ID)
	assert.False(t, got.IsStarred, "local flag must not move on a failed write")
	assert.Equal(t, 1, client.toggleCalls)
}

func TestStateStoreArchiveIsIdempotent(t *testing.T) {
	client := newFakeFlagClient()
	store := NewStateStore(client)
	summary := seedState(client, store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		updated, err := store.Archive(ctx, summary.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.IsArchived)
	}

	updated, err := store.Archive(ctx, summary.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsArchived)
}

func TestStateStoreDeleteIsTerminal(t *testing.T) {
	client := newFakeFlagClient()
	store := NewStateStore(client)
	summary := seedState(client, store)
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, summary.ID))

	_, err := store.Toggle(ctx, summary.ID, "is_pinned")
	assert.ErrorIs(t, err, ErrStateDeleted)
	_, err = store.Archive(ctx, summary.ID, true)
	assert.ErrorIs(t, err, ErrStateDeleted)
	assert.ErrorIs(t, store.Delete(ctx, summary.ID), ErrStateDeleted)
	assert.Equal(t, 1, client.deleteCalls, "the server must not be asked twice")
}

func TestStateStoreUnknownConversation(t *testing.T) {
	store := NewStateStore(newFakeFlagClient())

	_, err := store.Toggle(context.Background(), uuid.New(), "is_pinned")
	assert.ErrorIs(t, err, ErrStateUnknown)
}

func TestStateStoreMarkDeletedFromFeed(t *testing.T) {
	client := newFakeFlagClient()
	store := NewStateStore(client)
	summary := seedState(client, store)

	store.MarkDeleted(summary.ID)

	_, err := store.Toggle(context.Background(), summary.ID, "is_muted")
	assert.ErrorIs(t, err, ErrStateDeleted)
	assert.Zero(t, client.toggleCalls)
}
