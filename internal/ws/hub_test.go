package ws

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/stretchr/testify/assert"
)

func typingEvent(userID uuid.UUID) *model.WSEvent {
	return &model.WSEvent{
		Type: model.WSEventTyping,
		Payload: model.TypingEvent{
			ConversationID: uuid.New(),
			UserID:         userID,
			Name:           "Marta",
		},
	}
}

// A client whose send buffer is full gets dropped exactly once, even when
// deliveries race, and the eventual unregister for it is a no-op.
func TestHubDropsSlowClientExactlyOnce(t *testing.T) {
	hub := NewHub(nil, nil)
	userID := uuid.New()

	fast := NewClient(hub, nil, userID, "fast")
	slow := NewClient(hub, nil, userID, "slow")
	hub.clients[userID] = map[*Client]bool{fast: true, slow: true}

	for len(slow.send) < cap(slow.send) {
		slow.send <- []byte("backlog")
	}

	ev := typingEvent(userID)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.sendToLocalUser(userID, ev)
		}()
	}
	wg.Wait()

	hub.mu.RLock()
	_, slowPresent := hub.clients[userID][slow]
	_, fastPresent := hub.clients[userID][fast]
	hub.mu.RUnlock()

	assert.False(t, slowPresent, "slow client is dropped")
	assert.True(t, fastPresent, "fast client keeps its registration")
	assert.Equal(t, 8, len(fast.send), "fast client received every delivery")

	// The dropped client's pumps shut down and unregister it later; the
	// second removal must not close the send channel again.
	hub.removeClient(slow)

	assert.True(t, hub.IsUserOnline(userID), "the surviving connection keeps the user online")
}

// Broadcast deliveries reach every connected client of every user.
func TestHubBroadcastReachesAllLocalClients(t *testing.T) {
	hub := NewHub(nil, nil)
	alice := uuid.New()
	bob := uuid.New()

	a := NewClient(hub, nil, alice, "alice")
	b := NewClient(hub, nil, bob, "bob")
	hub.clients[alice] = map[*Client]bool{a: true}
	hub.clients[bob] = map[*Client]bool{b: true}

	hub.broadcastToLocal(typingEvent(alice))

	assert.Equal(t, 1, len(a.send))
	assert.Equal(t, 1, len(b.send))
}
