// Package chatview holds the client-side view state of the messaging UI: the
// message window of an open conversation, the realtime feed that keeps it
// current, the conversation flag store and the inbox ordering. It talks to
// the API through small fetcher interfaces so tests can drive it without a
// server.
package chatview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
)

// LoadOlderThreshold is the scroll distance from the top, in scroll units,
// under which the window fetches the next older page.
const LoadOlderThreshold = 50

// ErrWindowTerminal is returned once the conversation backing a window has
// been deleted. The window stays empty and inert from then on.
var ErrWindowTerminal = errors.New("conversation window is terminal")

// PageFetcher loads one chronological page of messages.
type PageFetcher interface {
	FetchPage(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) (*model.MessagePage, error)
}

// Window is the message history of one open conversation: an ascending slice
// of messages, deduplicated by id, growing older at the front via cursor
// pagination and newer at the back via the realtime feed.
type Window struct {
	mu             sync.Mutex
	conversationID uuid.UUID
	fetcher        PageFetcher
	pageSize       int

	messages []model.Message
	seen     map[uuid.UUID]struct{}
	hasMore  bool
	loading  bool
	terminal bool
}

// NewWindow creates an empty window for a conversation
func NewWindow(fetcher PageFetcher, conversationID uuid.UUID, pageSize int) *Window {
	if pageSize <= 0 {
		pageSize = 30
	}
	return &Window{
		conversationID: conversationID,
		fetcher:        fetcher,
		pageSize:       pageSize,
		seen:           make(map[uuid.UUID]struct{}),
	}
}

// ConversationID returns the conversation this window renders
func (w *Window) ConversationID() uuid.UUID {
	return w.conversationID
}

// LoadInitial fetches the most recent page, replacing any current content
func (w *Window) LoadInitial(ctx context.Context) error {
	w.mu.Lock()
	if w.terminal {
		w.mu.Unlock()
		return ErrWindowTerminal
	}
	if w.loading {
		w.mu.Unlock()
		return nil
	}
	w.loading = true
	w.mu.Unlock()

	page, err := w.fetcher.FetchPage(ctx, w.conversationID, nil, w.pageSize)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false
	if err != nil {
		return err
	}

	w.messages = nil
	w.seen = make(map[uuid.UUID]struct{})
	for _, m := range page.Messages {
		w.messages = append(w.messages, m)
		w.seen[m.ID] = struct{}{}
	}
	w.hasMore = page.HasMore
	return nil
}

// LoadOlder fetches the page strictly older than the oldest loaded message
// and prepends it. A load already in flight, an exhausted history or a
// terminal window all make it a no-op. Returns how many messages were added.
func (w *Window) LoadOlder(ctx context.Context) (int, error) {
	w.mu.Lock()
	if w.terminal {
		w.mu.Unlock()
		return 0, ErrWindowTerminal
	}
	if w.loading || !w.hasMore || len(w.messages) == 0 {
		w.mu.Unlock()
		return 0, nil
	}
	w.loading = true
	cursor := w.messages[0].CreatedAt
	w.mu.Unlock()

	page, err := w.fetcher.FetchPage(ctx, w.conversationID, &cursor, w.pageSize)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false
	if err != nil {
		return 0, err
	}

	added := 0
	prefix := make([]model.Message, 0, len(page.Messages))
	for _, m := range page.Messages {
		if _, dup := w.seen[m.ID]; dup {
			continue
		}
		prefix = append(prefix, m)
		w.seen[m.ID] = struct{}{}
		added++
	}
	w.messages = append(prefix, w.messages...)
	w.hasMore = page.HasMore
	return added, nil
}

// MaybeLoadOlder triggers LoadOlder when the viewport is within
// LoadOlderThreshold of the top. Returns how many messages were added.
func (w *Window) MaybeLoadOlder(ctx context.Context, distanceFromTop float64) (int, error) {
	if distanceFromTop > LoadOlderThreshold {
		return 0, nil
	}
	return w.LoadOlder(ctx)
}

// Append adds a newly arrived message to the bottom of the window. A message
// already present (by id) or one belonging to another conversation is
// dropped. Reports whether the window changed.
func (w *Window) Append(msg model.Message) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.terminal || msg.ConversationID != w.conversationID {
		return false
	}
	if _, dup := w.seen[msg.ID]; dup {
		return false
	}
	w.messages = append(w.messages, msg)
	w.seen[msg.ID] = struct{}{}
	return true
}

// MarkDeleted clears the window and makes it permanently inert
func (w *Window) MarkDeleted() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = nil
	w.seen = make(map[uuid.UUID]struct{})
	w.hasMore = false
	w.terminal = true
}

// Terminal reports whether the backing conversation has been deleted
func (w *Window) Terminal() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.terminal
}

// HasMore reports whether older history remains to be fetched
func (w *Window) HasMore() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hasMore
}

// Messages returns a copy of the window content, oldest first
func (w *Window) Messages() []model.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.Message, len(w.messages))
	copy(out, w.messages)
	return out
}

// Len returns the number of loaded messages
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

// ScrollAnchor preserves the reader's position across a prepend. Measure the
// content height before inserting older messages, then apply the returned
// correction to the scroll offset afterwards.
type ScrollAnchor struct {
	before   float64
	measured bool
}

// Measure records the content height before a prepend
func (a *ScrollAnchor) Measure(contentHeight float64) {
	a.before = contentHeight
	a.measured = true
}

// Correction returns the scroll offset delta that keeps the previously
// visible message in place. Without a prior Measure it returns 0.
func (a *ScrollAnchor) Correction(contentHeight float64) float64 {
	if !a.measured {
		return 0
	}
	a.measured = false
	return contentHeight - a.before
}
