package internal

import (
	"fmt"
	"sync"
)

// MemoryMirror is an in-memory TranscriptMirror for tests and dry-run
// simulation. Entries keep insertion order; refs are sequential.
type MemoryMirror struct {
	mu      sync.Mutex
	entries []TranscriptEntry
	nextRef int
	// FailAppends makes every Append return an error, for failure-path tests.
	FailAppends bool
}

// NewMemoryMirror creates an empty in-memory mirror
func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{}
}

// Append stores the entry and returns a generated ref
func (m *MemoryMirror) Append(entry TranscriptEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAppends {
		return "", fmt.Errorf("append disabled")
	}
	m.nextRef++
	entry.Ref = fmt.Sprintf("mem-%d", m.nextRef)
	m.entries = append(m.entries, entry)
	return entry.Ref, nil
}

// Edit rewrites a stored entry's text
func (m *MemoryMirror) Edit(ref, text string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].Ref == ref {
			m.entries[i].Text = text
			return true, nil
		}
	}
	return false, nil
}

// Delete removes a stored entry
func (m *MemoryMirror) Delete(ref string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].Ref == ref {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListTagged returns the entries for one conversation in insertion order
func (m *MemoryMirror) ListTagged(key ConversationKey) ([]TranscriptEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []TranscriptEntry
	for _, e := range m.entries {
		if e.Conversation == key.String() {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len returns the number of stored entries across all conversations
func (m *MemoryMirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// RecordingNotifier captures notifications for tests
type RecordingNotifier struct {
	mu      sync.Mutex
	Notices []string
}

// Notify records the notification
func (n *RecordingNotifier) Notify(level NotifyLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notices = append(n.Notices, fmt.Sprintf("%d:%s", level, message))
}

// Count returns the number of recorded notifications
func (n *RecordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Notices)
}

// CreateTestParticipant creates a participant with full talkativeness
func CreateTestParticipant(id, name string) Participant {
	return Participant{ID: id, DisplayName: name, Talkativeness: 100}
}

// CreateTestRoster creates the three-participant roster used across tests
func CreateTestRoster() []Participant {
	return []Participant{
		CreateTestParticipant("p1", "Alice"),
		CreateTestParticipant("p2", "Bob"),
		CreateTestParticipant("p3", "Carol"),
	}
}

// CreateTestEntry creates a transcript entry for reconciliation tests
func CreateTestEntry(conversation string, messageID int64, sender Sender, participantID, text string) TranscriptEntry {
	return TranscriptEntry{
		Ref:           fmt.Sprintf("ref-%d", messageID),
		Conversation:  conversation,
		MessageID:     messageID,
		Sender:        sender,
		ParticipantID: participantID,
		Text:          text,
		Timestamp:     messageID,
	}
}
