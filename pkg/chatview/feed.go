package chatview

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
)

// MessageFetcher loads one full message row by id. The realtime feed carries
// identifier-level payloads only, so every delivery goes through this before
// it reaches the window.
type MessageFetcher interface {
	FetchMessage(ctx context.Context, messageID uuid.UUID) (*model.Message, error)
}

// Event is one realtime delivery handed to a Feed
type Event struct {
	Type    string
	Message *model.MessageRef
	State   *model.ConversationStateEvent
}

// Feed keeps one Window current. Deliveries go into a buffered channel and a
// single consumer goroutine applies them in arrival order, so the window
// never sees concurrent mutations from the realtime path.
type Feed struct {
	window  *Window
	fetcher MessageFetcher

	events chan Event
	done   chan struct{}
	once   sync.Once

	// Called after a message lands in the window, for re-render and
	// read-receipt hooks. May be nil.
	OnAppend func(msg model.Message)
	// Called when the conversation reaches its terminal state. May be nil.
	OnDeleted func(conversationID uuid.UUID)
}

// NewFeed creates a feed bound to a window
func NewFeed(window *Window, fetcher MessageFetcher) *Feed {
	return &Feed{
		window:  window,
		fetcher: fetcher,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}
}

// Start launches the consumer goroutine. It runs until Close or ctx is done.
func (f *Feed) Start(ctx context.Context) {
	go f.consume(ctx)
}

// Deliver hands an event to the consumer. A closed feed or a full buffer
// drops the event; the window re-syncs on its next LoadInitial.
func (f *Feed) Deliver(ev Event) bool {
	select {
	case <-f.done:
		return false
	default:
	}
	select {
	case f.events <- ev:
		return true
	default:
		log.Printf("⚠️ Feed buffer full, dropping %s event", ev.Type)
		return false
	}
}

// Close detaches the feed. Idempotent.
func (f *Feed) Close() {
	f.once.Do(func() { close(f.done) })
}

func (f *Feed) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.done:
			return
		case ev := <-f.events:
			f.apply(ctx, ev)
		}
	}
}

func (f *Feed) apply(ctx context.Context, ev Event) {
	switch ev.Type {
	case model.WSEventNewMessage:
		if ev.Message == nil || ev.Message.ConversationID != f.window.ConversationID() {
			return
		}
		// The ref has no sender join; fetch the full row before display
		msg, err := f.fetcher.FetchMessage(ctx, ev.Message.MessageID)
		if err != nil {
			log.Printf("⚠️ Failed to fetch message %s: %v", ev.Message.MessageID, err)
			return
		}
		if f.window.Append(*msg) && f.OnAppend != nil {
			f.OnAppend(*msg)
		}

	case model.WSEventConversationUpdated:
		if ev.State == nil || ev.State.ConversationID != f.window.ConversationID() {
			return
		}
		if ev.State.IsDeleted {
			f.window.MarkDeleted()
			if f.OnDeleted != nil {
				f.OnDeleted(ev.State.ConversationID)
			}
			f.Close()
		}
	}
}
