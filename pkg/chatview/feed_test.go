package chatview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessageFetcher struct {
	mu       sync.Mutex
	messages map[uuid.UUID]model.Message
	calls    int
}

func newFakeMessageFetcher() *fakeMessageFetcher {
	return &fakeMessageFetcher{messages: make(map[uuid.UUID]model.Message)}
}

func (f *fakeMessageFetcher) put(msg model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[msg.ID] = msg
}

func (f *fakeMessageFetcher) FetchMessage(_ context.Context, id uuid.UUID) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	msg := f.messages[id]
	return &msg, nil
}

func newMessageRef(msg model.Message) *model.MessageRef {
	return &model.MessageRef{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		CreatedAt:      msg.CreatedAt,
	}
}

func TestFeedDeliversFetchedMessage(t *testing.T) {
	convID := uuid.New()
	w := NewWindow(&fakePageFetcher{}, convID, 20)
	fetcher := newFakeMessageFetcher()
	feed := NewFeed(w, fetcher)
	defer feed.Close()
	feed.Start(context.Background())

	msg := model.Message{ID: uuid.New(), ConversationID: convID, Content: "is the room free in May?", CreatedAt: time.Now()}
	fetcher.put(msg)

	require.True(t, feed.Deliver(Event{Type: model.WSEventNewMessage, Message: newMessageRef(msg)}))

	require.Eventually(t, func() bool { return w.Len() == 1 }, time.Second, 5*time.Millisecond)
	got := w.Messages()[0]
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, msg.Content, got.Content, "window must hold the re-fetched full row")
}

func TestFeedDeduplicatesRedeliveries(t *testing.T) {
	convID := uuid.New()
	w := NewWindow(&fakePageFetcher{}, convID, 20)
	fetcher := newFakeMessageFetcher()
	feed := NewFeed(w, fetcher)
	defer feed.Close()
	feed.Start(context.Background())

	first := model.Message{ID: uuid.New(), ConversationID: convID, Content: "a", CreatedAt: time.Now()}
	second := model.Message{ID: uuid.New(), ConversationID: convID, Content: "b", CreatedAt: time.Now()}
	fetcher.put(first)
	fetcher.put(second)

	feed.Deliver(Event{Type: model.WSEventNewMessage, Message: newMessageRef(first)})
	feed.Deliver(Event{Type: model.WSEventNewMessage, Message: newMessageRef(first)})
	feed.Deliver(Event{Type: model.WSEventNewMessage, Message: newMessageRef(second)})

	require.Eventually(t, func() bool { return w.Len() == 2 }, time.Second, 5*time.Millisecond)

	ids := map[uuid.UUID]bool{}
	for _, m := range w.Messages() {
		ids[m.ID] = true
	}
	assert.Len(t, ids, 2)
}

func TestFeedIgnoresForeignConversation(t *testing.T) {
	convID := uuid.New()
	w := NewWindow(&fakePageFetcher{}, convID, 20)
	fetcher := newFakeMessageFetcher()
	feed := NewFeed(w, fetcher)
	defer feed.Close()
	feed.Start(context.Background())

	stray := model.Message{ID: uuid.New(), ConversationID: uuid.New(), Content: "stray", CreatedAt: time.Now()}
	mine := model.Message{ID: uuid.New(), ConversationID: convID, Content: "mine", CreatedAt: time.Now()}
	fetcher.put(stray)
	fetcher.put(mine)

	feed.Deliver(Event{Type: model.WSEventNewMessage, Message: newMessageRef(stray)})
	feed.Deliver(Event{Type: model.WSEventNewMessage, Message: newMessageRef(mine)})

	require.Eventually(t, func() bool { return w.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, mine.ID, w.Messages()[0].ID)
}

func TestFeedDeletionClearsAndTerminatesWindow(t *testing.T) {
	convID := uuid.New()
	w := NewWindow(&fakePageFetcher{history: makeHistory(convID, 5)}, convID, 20)
	require.NoError(t, w.LoadInitial(context.Background()))
	require.Equal(t, 5, w.Len())

	fetcher := newFakeMessageFetcher()
	feed := NewFeed(w, fetcher)
	var deletedID uuid.UUID
	feed.OnDeleted = func(id uuid.UUID) { deletedID = id }
	feed.Start(context.Background())

	feed.Deliver(Event{
		Type: model.WSEventConversationUpdated,
		State: &model.ConversationStateEvent{
			ConversationID: convID,
			IsDeleted:      true,
		},
	})

	require.Eventually(t, func() bool { return w.Terminal() }, time.Second, 5*time.Millisecond)
	assert.Zero(t, w.Len())
	assert.Equal(t, convID, deletedID)

	// The feed closed itself; later deliveries are refused
	msg := model.Message{ID: uuid.New(), ConversationID: convID}
	fetcher.put(msg)
	assert.False(t, feed.Deliver(Event{Type: model.WSEventNewMessage, Message: newMessageRef(msg)}))
}

func TestFeedNonDeleteUpdateKeepsWindow(t *testing.T) {
	convID := uuid.New()
	w := NewWindow(&fakePageFetcher{history: makeHistory(convID, 3)}, convID, 20)
	require.NoError(t, w.LoadInitial(context.Background()))

	feed := NewFeed(w, newFakeMessageFetcher())
	defer feed.Close()
	feed.Start(context.Background())

	feed.Deliver(Event{
		Type: model.WSEventConversationUpdated,
		State: &model.ConversationStateEvent{
			ConversationID: convID,
			IsPinned:       true,
		},
	})

	time.Sleep(50 * time.Millisecond)
	assert.False(t, w.Terminal())
	assert.Equal(t, 3, w.Len())
}
