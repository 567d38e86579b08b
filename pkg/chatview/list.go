package chatview

import (
	"sort"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
)

// SortConversations orders an inbox in place by the multi-key contract:
// is_pinned descending, then is_starred descending, then latest activity.
// Starred therefore also orders within the pinned group. The sort is stable
// so equal entries keep their server order.
func SortConversations(conversations []model.ConversationSummary) {
	sort.SliceStable(conversations, func(i, j int) bool {
		a, b := conversations[i], conversations[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		if a.IsStarred != b.IsStarred {
			return a.IsStarred
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
}

// Inbox is the conversation list pane. It keeps the sorted list and the
// current selection, and selects the top conversation automatically exactly
// once, on the first non-empty load; later refreshes never steal the
// selection.
type Inbox struct {
	conversations []model.ConversationSummary
	selected      uuid.UUID
	autoSelected  bool
}

// NewInbox creates an empty inbox
func NewInbox() *Inbox {
	return &Inbox{}
}

// SetConversations replaces the list, sorts it, drops the selection if the
// selected conversation disappeared, and performs the one-time auto-select.
func (in *Inbox) SetConversations(conversations []model.ConversationSummary) {
	in.conversations = conversations
	SortConversations(in.conversations)

	if in.selected != uuid.Nil && !in.contains(in.selected) {
		in.selected = uuid.Nil
	}

	if !in.autoSelected && in.selected == uuid.Nil && len(in.conversations) > 0 {
		in.selected = in.conversations[0].ID
		in.autoSelected = true
	}
}

// Select makes a conversation the current one. Unknown ids are ignored.
func (in *Inbox) Select(conversationID uuid.UUID) bool {
	if !in.contains(conversationID) {
		return false
	}
	in.selected = conversationID
	return true
}

// Selected returns the current selection, or uuid.Nil
func (in *Inbox) Selected() uuid.UUID {
	return in.selected
}

// Conversations returns the sorted list
func (in *Inbox) Conversations() []model.ConversationSummary {
	return in.conversations
}

func (in *Inbox) contains(id uuid.UUID) bool {
	for _, c := range in.conversations {
		if c.ID == id {
			return true
		}
	}
	return false
}
