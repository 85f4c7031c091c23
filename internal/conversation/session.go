// ABOUTME: Session storage for per-chat conversation state
// ABOUTME: In-memory implementation guarded by a mutex; sessions do not survive restarts

package conversation

import "sync"

// SessionStore holds the pending State of each chat.
// Implementations are safe for concurrent use.
type SessionStore interface {
	Get(chatID int64) (State, bool)
	Set(chatID int64, state State)
	Delete(chatID int64)
}

// MemorySessions is a SessionStore backed by a map.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[int64]State
}

var _ SessionStore = (*MemorySessions)(nil)

// NewMemorySessions creates an empty session store.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[int64]State)}
}

// Get returns the chat's state; ok is false when the chat is idle.
func (m *MemorySessions) Get(chatID int64) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.sessions[chatID]
	return state, ok
}

// Set stores state for the chat. Storing Idle deletes the session.
func (m *MemorySessions) Set(chatID int64, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state.IsIdle() {
		delete(m.sessions, chatID)
		return
	}
	m.sessions[chatID] = state
}

// Delete removes the chat's session.
func (m *MemorySessions) Delete(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

// Len returns the number of chats with a pending command.
func (m *MemorySessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
