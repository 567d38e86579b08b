package chatview

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
)

// ErrStateDeleted rejects any operation on a conversation the store knows to
// be deleted. Deletion is terminal on the client just as on the server.
var ErrStateDeleted = errors.New("conversation is deleted")

// ErrStateUnknown is returned for a conversation the store has never seen
var ErrStateUnknown = errors.New("conversation not in store")

// FlagClient is the remote half of the state store: every flag change is
// confirmed by the server before the local copy moves.
type FlagClient interface {
	ToggleFlag(ctx context.Context, conversationID uuid.UUID, flag string) (*model.ConversationSummary, error)
	SetArchived(ctx context.Context, conversationID uuid.UUID, archived bool) (*model.ConversationSummary, error)
	Delete(ctx context.Context, conversationID uuid.UUID) error
}

// StateStore holds the flag state of every conversation the client has
// loaded. All writes are pessimistic: the server answers first, then the
// store adopts the row the server returned. A failed call leaves the local
// state exactly as it was, so the UI never shows a flag the server does not
// have.
type StateStore struct {
	mu     sync.RWMutex
	client FlagClient
	states map[uuid.UUID]model.ConversationSummary
}

// NewStateStore creates an empty store
func NewStateStore(client FlagClient) *StateStore {
	return &StateStore{
		client: client,
		states: make(map[uuid.UUID]model.ConversationSummary),
	}
}

// Put inserts or replaces a conversation's state, as fetched from the server
func (s *StateStore) Put(summary model.ConversationSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[summary.ID] = summary
}

// Get returns a copy of a conversation's state
func (s *StateStore) Get(conversationID uuid.UUID) (model.ConversationSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[conversationID]
	return st, ok
}

// All returns a copy of every tracked conversation
func (s *StateStore) All() []model.ConversationSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ConversationSummary, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st)
	}
	return out
}

// Toggle flips one flag through the server. The local copy changes only
// after the server confirms; on error nothing moves.
func (s *StateStore) Toggle(ctx context.Context, conversationID uuid.UUID, flag string) (model.ConversationSummary, error) {
	if err := s.guard(conversationID); err != nil {
		return model.ConversationSummary{}, err
	}

	updated, err := s.client.ToggleFlag(ctx, conversationID, flag)
	if err != nil {
		return model.ConversationSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[conversationID] = *updated
	return *updated, nil
}

// Archive writes the archived flag to an explicit value, so repeating the
// call is harmless.
func (s *StateStore) Archive(ctx context.Context, conversationID uuid.UUID, archived bool) (model.ConversationSummary, error) {
	if err := s.guard(conversationID); err != nil {
		return model.ConversationSummary{}, err
	}

	updated, err := s.client.SetArchived(ctx, conversationID, archived)
	if err != nil {
		return model.ConversationSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[conversationID] = *updated
	return *updated, nil
}

// Delete moves a conversation to its terminal state. After a confirmed
// delete every further operation on the id answers ErrStateDeleted.
func (s *StateStore) Delete(ctx context.Context, conversationID uuid.UUID) error {
	if err := s.guard(conversationID); err != nil {
		return err
	}

	if err := s.client.Delete(ctx, conversationID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[conversationID]
	st.IsDeleted = true
	s.states[conversationID] = st
	return nil
}

// MarkDeleted records a deletion observed on the realtime feed
func (s *StateStore) MarkDeleted(conversationID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[conversationID]; ok {
		st.IsDeleted = true
		s.states[conversationID] = st
	}
}

func (s *StateStore) guard(conversationID uuid.UUID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[conversationID]
	if !ok {
		return ErrStateUnknown
	}
	if st.IsDeleted {
		return ErrStateDeleted
	}
	return nil
}
