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

// fakePageFetcher serves pages out of an in-memory ascending history, with
// the same semantics as the server: the newest rows strictly older than the
// cursor, in chronological order, HasMore when the page came back full.
type fakePageFetcher struct {
	mu       sync.Mutex
	history  []model.Message
	calls    int
	failWith error
}

func (f *fakePageFetcher) FetchPage(_ context.Context, _ uuid.UUID, before *time.Time, limit int) (*model.MessagePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failWith != nil {
		return nil, f.failWith
	}

	eligible := make([]model.Message, 0, len(f.history))
	for _, m := range f.history {
		if before == nil || m.CreatedAt.Before(*before) {
			eligible = append(eligible, m)
		}
	}
	if len(eligible) > limit {
		eligible = eligible[len(eligible)-limit:]
	}
	return &model.MessagePage{
		Messages: eligible,
		HasMore:  len(eligible) == limit,
	}, nil
}

func makeHistory(conversationID uuid.UUID, n int) []model.Message {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	msgs := make([]model.Message, n)
	for i := range msgs {
		msgs[i] = model.Message{
			ID:             uuid.New(),
			ConversationID: conversationID,
			SenderID:       uuid.New(),
			Content:        "hello",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
	}
	return msgs
}

func assertAscending(t *testing.T, msgs []model.Message) {
	t.Helper()
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt),
			"messages out of order at index %d", i)
	}
}

func TestWindowLoadInitial(t *testing.T) {
	convID := uuid.New()
	fetcher := &fakePageFetcher{history: makeHistory(convID, 45)}
	w := NewWindow(fetcher, convID, 20)

	require.NoError(t, w.LoadInitial(context.Background()))

	msgs := w.Messages()
	require.Len(t, msgs, 20)
	assertAscending(t, msgs)
	// The page holds the newest 20
	assert.Equal(t, fetcher.history[44].ID, msgs[19].ID)
	assert.Equal(t, fetcher.history[25].ID, msgs[0].ID)
	assert.True(t, w.HasMore())
}

func TestWindowLoadOlderWalksHistoryWithoutDuplicates(t *testing.T) {
	convID := uuid.New()
	fetcher := &fakePageFetcher{history: makeHistory(convID, 45)}
	w := NewWindow(fetcher, convID, 20)
	ctx := context.Background()

	require.NoError(t, w.LoadInitial(ctx))

	added, err := w.LoadOlder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, added)
	assert.True(t, w.HasMore())

	added, err = w.LoadOlder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, added)
	assert.False(t, w.HasMore())

	msgs := w.Messages()
	require.Len(t, msgs, 45)
	assertAscending(t, msgs)
	seen := map[uuid.UUID]bool{}
	for _, m := range msgs {
		assert.False(t, seen[m.ID], "duplicate message %s", m.ID)
		seen[m.ID] = true
	}

	// Exhausted history: further loads are no-ops
	added, err = w.LoadOlder(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestWindowLoadOlderInFlightGuard(t *testing.T) {
	convID := uuid.New()
	inner := &fakePageFetcher{history: makeHistory(convID, 60)}
	gate := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once

	fetcher := pageFetcherFunc(func(ctx context.Context, id uuid.UUID, before *time.Time, limit int) (*model.MessagePage, error) {
		if before != nil {
			once.Do(func() { close(entered) })
			<-gate
		}
		return inner.FetchPage(ctx, id, before, limit)
	})
	w := NewWindow(fetcher, convID, 20)
	ctx := context.Background()
	require.NoError(t, w.LoadInitial(ctx))

	done := make(chan int)
	go func() {
		added, _ := w.LoadOlder(ctx)
		done <- added
	}()
	<-entered

	// Second call while the first is in flight must be a no-op
	added, err := w.LoadOlder(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)

	close(gate)
	assert.Equal(t, 20, <-done)
}

type pageFetcherFunc func(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) (*model.MessagePage, error)

func (f pageFetcherFunc) FetchPage(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) (*model.MessagePage, error) {
	return f(ctx, conversationID, before, limit)
}

func TestWindowAppendDeduplicates(t *testing.T) {
	convID := uuid.New()
	w := NewWindow(&fakePageFetcher{}, convID, 20)

	msg := model.Message{ID: uuid.New(), ConversationID: convID, Content: "hi", CreatedAt: time.Now()}
	assert.True(t, w.Append(msg))
	assert.False(t, w.Append(msg), "same id must be dropped")
	assert.Equal(t, 1, w.Len())

	other := model.Message{ID: uuid.New(), ConversationID: uuid.New(), Content: "stray"}
	assert.False(t, w.Append(other), "foreign conversation must be dropped")
	assert.Equal(t, 1, w.Len())
}

func TestWindowMarkDeletedIsTerminal(t *testing.T) {
	convID := uuid.New()
	fetcher := &fakePageFetcher{history: makeHistory(convID, 10)}
	w := NewWindow(fetcher, convID, 20)
	ctx := context.Background()
	require.NoError(t, w.LoadInitial(ctx))
	require.Equal(t, 10, w.Len())

	w.MarkDeleted()

	assert.True(t, w.Terminal())
	assert.Zero(t, w.Len())
	assert.ErrorIs(t, w.LoadInitial(ctx), ErrWindowTerminal)
	_, err := w.LoadOlder(ctx)
	assert.ErrorIs(t, err, ErrWindowTerminal)
	assert.False(t, w.Append(model.Message{ID: uuid.New(), ConversationID: convID}))
}

func TestWindowMaybeLoadOlderThreshold(t *testing.T) {
	convID := uuid.New()
	fetcher := &fakePageFetcher{history: makeHistory(convID, 45)}
	w := NewWindow(fetcher, convID, 20)
	ctx := context.Background()
	require.NoError(t, w.LoadInitial(ctx))
	callsAfterInitial := fetcher.calls

	added, err := w.MaybeLoadOlder(ctx, LoadOlderThreshold+1)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Equal(t, callsAfterInitial, fetcher.calls, "above threshold must not fetch")

	added, err = w.MaybeLoadOlder(ctx, LoadOlderThreshold)
	require.NoError(t, err)
	assert.Equal(t, 20, added)
}

func TestScrollAnchorCorrection(t *testing.T) {
	var anchor ScrollAnchor

	// Without a measurement the correction is zero
	assert.Zero(t, anchor.Correction(500))

	anchor.Measure(400)
	assert.InDelta(t, 250, anchor.Correction(650), 0.001)

	// The measurement is consumed
	assert.Zero(t, anchor.Correction(900))
}
