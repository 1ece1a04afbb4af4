// Package conversation defines the per-user conversation persistence
// collaborator. The orchestration core does not write conversations itself;
// the façade hands finished exchanges to a Store. The in-memory
// implementation here is suitable for tests and ephemeral servers; durable
// backends implement the same Store interface.
package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one persisted turn of a conversation. Agent replies carry the
// agent id and the status of the orchestration slot that produced them.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	AgentID   string    `json:"agent_id,omitempty"`
	Content   string    `json:"content"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message stamped with a fresh id and UTC timestamp.
func NewMessage(role, agentID, content, status string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		AgentID:   agentID,
		Content:   content,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}

// Conversation is an ordered message history owned by one user.
type Conversation struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Title    string    `json:"title,omitempty"`
	Messages []Message `json:"messages"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
	mu       sync.RWMutex
}

// NewConversation creates an empty conversation for a user.
func NewConversation(id, userID string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{ID: id, UserID: userID, Messages: []Message{}, Created: now, Updated: now}
}

// Append adds a message to the history updating the Updated timestamp.
func (c *Conversation) Append(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Messages = append(c.Messages, m)
	c.Updated = time.Now().UTC()
}

// History returns a defensive copy of the message slice.
func (c *Conversation) History() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.Messages))
	copy(out, c.Messages)
	return out
}

// Clone returns a deep copy of the conversation safe for independent mutation.
func (c *Conversation) Clone() *Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := &Conversation{
		ID:       c.ID,
		UserID:   c.UserID,
		Title:    c.Title,
		Messages: make([]Message, len(c.Messages)),
		Created:  c.Created,
		Updated:  c.Updated,
	}
	copy(clone.Messages, c.Messages)
	return clone
}

// ErrNotFound is returned when a conversation id is absent from the store.
var ErrNotFound = fmt.Errorf("conversation not found")

// Store persists conversations and their message history.
type Store interface {
	Create(id, userID string) (*Conversation, error)
	Get(id string) (*Conversation, error)
	AppendMessage(id string, m Message) error
	ListByUser(userID string) ([]*Conversation, error)
}
