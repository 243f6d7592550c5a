// Package session holds the per-upload working state: the raw table, its
// cleaned twin, which of the two is active, and the running conversation.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/KaramelBytes/autoanalyst/internal/ai"
	"github.com/KaramelBytes/autoanalyst/internal/table"
)

// Session is the state behind one uploaded dataset. A new upload replaces the
// whole session, conversation included.
type Session struct {
	mu sync.Mutex

	ID string

	raw     *table.Table
	cleaned *table.Table
	// useCleaned selects which table queries and views operate on.
	useCleaned bool

	cls table.Classification

	conversation []ai.Message

	apiKey string
}

// New builds a session around a freshly loaded table. Cleaning happens once,
// up front, so toggling between raw and cleaned views is instant.
func New(t *table.Table) *Session {
	s := &Session{
		ID:      uuid.NewString(),
		raw:     t,
		cleaned: table.Clean(t),
	}
	s.cls = table.Classify(s.Active())
	return s
}

// Active returns the table queries run against: cleaned when cleaning is
// enabled, raw otherwise.
func (s *Session) Active() *table.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.useCleaned {
		return s.cleaned
	}
	return s.raw
}

// Raw returns the table exactly as uploaded.
func (s *Session) Raw() *table.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw
}

// Cleaned returns the deduplicated, filled table.
func (s *Session) Cleaned() *table.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleaned
}

// SetCleaning toggles whether the cleaned table is active and reclassifies
// columns against the newly active table.
func (s *Session) SetCleaning(on bool) {
	s.mu.Lock()
	s.useCleaned = on
	active := s.raw
	if on {
		active = s.cleaned
	}
	s.cls = table.Classify(active)
	s.mu.Unlock()
}

// CleaningEnabled reports whether queries run against the cleaned table.
func (s *Session) CleaningEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.useCleaned
}

// Classification returns the column partition of the active table.
func (s *Session) Classification() table.Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cls
}

// SetAPIKey stores the chat credential for this session.
func (s *Session) SetAPIKey(key string) {
	s.mu.Lock()
	s.apiKey = key
	s.mu.Unlock()
}

// APIKey returns the stored chat credential, empty when none was provided.
func (s *Session) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey
}

// Append adds a message to the conversation log.
func (s *Session) Append(role, content string) {
	s.mu.Lock()
	s.conversation = append(s.conversation, ai.Message{Role: role, Content: content})
	s.mu.Unlock()
}

// Conversation returns a copy of the conversation log in order.
func (s *Session) Conversation() []ai.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ai.Message, len(s.conversation))
	copy(out, s.conversation)
	return out
}

func (s *Session) String() string {
	return fmt.Sprintf("session %s (%s)", s.ID, s.Raw().Name)
}
