package chatview

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryWith(title string, pinned, starred bool, updated time.Time) model.ConversationSummary {
	return model.ConversationSummary{
		Conversation: model.Conversation{
			ID:        uuid.New(),
			IsPinned:  pinned,
			IsStarred: starred,
			UpdatedAt: updated,
		},
		ListingTitle: title,
	}
}

func titles(list []model.ConversationSummary) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.ListingTitle
	}
	return out
}

func TestSortConversationsPinnedStarredRecency(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// A is starred and most recent, B is pinned but older, C is neither
	a := summaryWith("A", false, true, now)
	b := summaryWith("B", true, false, now.Add(-2*time.Hour))
	c := summaryWith("C", false, false, now.Add(-time.Hour))

	list := []model.ConversationSummary{a, b, c}
	SortConversations(list)

	assert.Equal(t, []string{"B", "A", "C"}, titles(list))
}

func TestSortConversationsStarOrdersWithinPinnedGroup(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// The starred key beats recency inside the pinned group
	pinnedStarredOld := summaryWith("pinned-starred-old", true, true, now.Add(-time.Hour))
	pinnedNew := summaryWith("pinned-new", true, false, now)
	plain := summaryWith("plain", false, false, now.Add(time.Hour))

	list := []model.ConversationSummary{pinnedNew, pinnedStarredOld, plain}
	SortConversations(list)

	assert.Equal(t, []string{"pinned-starred-old", "pinned-new", "plain"}, titles(list))
}

func TestSortConversationsRecencyWithinGroup(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	older := summaryWith("older", true, false, now.Add(-time.Hour))
	newer := summaryWith("newer", true, false, now)
	plain := summaryWith("plain", false, false, now.Add(time.Hour))

	list := []model.ConversationSummary{older, newer, plain}
	SortConversations(list)

	assert.Equal(t, []string{"newer", "older", "plain"}, titles(list))
}

func TestSortConversationsStableOnTies(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	first := summaryWith("first", false, false, now)
	second := summaryWith("second", false, false, now)

	list := []model.ConversationSummary{first, second}
	SortConversations(list)

	assert.Equal(t, []string{"first", "second"}, titles(list))
}

func TestInboxAutoSelectsExactlyOnce(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	in := NewInbox()

	// Empty load selects nothing and does not burn the auto-select
	in.SetConversations(nil)
	assert.Equal(t, uuid.Nil, in.Selected())

	top := summaryWith("top", true, false, now)
	other := summaryWith("other", false, false, now)
	in.SetConversations([]model.ConversationSummary{other, top})
	assert.Equal(t, top.ID, in.Selected(), "first non-empty load selects the sorted top")

	// A manual selection survives refreshes, even when sorting would put
	// another conversation on top
	require.True(t, in.Select(other.ID))
	in.SetConversations([]model.ConversationSummary{other, top})
	assert.Equal(t, other.ID, in.Selected())

	// A vanished selection clears but is not auto-replaced
	in.SetConversations([]model.ConversationSummary{top})
	assert.Equal(t, uuid.Nil, in.Selected())
}

func TestInboxSelectUnknownIgnored(t *testing.T) {
	in := NewInbox()
	in.SetConversations([]model.ConversationSummary{summaryWith("only", false, false, time.Now())})
	selected := in.Selected()

	assert.False(t, in.Select(uuid.New()))
	assert.Equal(t, selected, in.Selected())
}
