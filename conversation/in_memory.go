package conversation

import (
	"fmt"
	"sync"
)

// InMemoryStore is a volatile Store implementation keeping conversations in
// a process local map. It is safe for concurrent access. Returned
// conversations are clones so callers cannot mutate internal state.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	byUser        map[string][]string
}

// NewInMemoryStore constructs an empty in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		conversations: make(map[string]*Conversation),
		byUser:        make(map[string][]string),
	}
}

// Create stores a new empty conversation for a user. Creating an id that
// already exists is an error; conversations are never silently overwritten.
func (s *InMemoryStore) Create(id, userID string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.conversations[id]; exists {
		return nil, fmt.Errorf("conversation %q already exists", id)
	}
	conv := NewConversation(id, userID)
	s.conversations[id] = conv
	s.byUser[userID] = append(s.byUser[userID], id)
	return conv.Clone(), nil
}

// Get returns the conversation (clone) or ErrNotFound.
func (s *InMemoryStore) Get(id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return conv.Clone(), nil
}

// AppendMessage adds a message to an existing conversation.
func (s *InMemoryStore) AppendMessage(id string, m Message) error {
	s.mu.RLock()
	conv, ok := s.conversations[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	conv.Append(m)
	return nil
}

// ListByUser returns the user's conversations (clones) in creation order.
func (s *InMemoryStore) ListByUser(userID string) ([]*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byUser[userID]
	out := make([]*Conversation, 0, len(ids))
	for _, id := range ids {
		if conv, ok := s.conversations[id]; ok {
			out = append(out, conv.Clone())
		}
	}
	return out, nil
}
