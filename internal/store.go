package internal

import (
	"sort"
	"sync"
	"time"
)

// ConversationStore owns the per-conversation message logs. It is an
// explicit instance (no package-level state) so tests can isolate
// themselves with fresh stores. All methods are synchronous; nothing
// suspends mid-mutation.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[ConversationKey]*ConversationRecord
	lastID        int64
}

// NewConversationStore creates an empty store
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[ConversationKey]*ConversationRecord),
	}
}

// record returns the conversation record for key, creating it lazily.
// Caller must hold mu.
func (s *ConversationStore) record(key ConversationKey) *ConversationRecord {
	rec, ok := s.conversations[key]
	if !ok {
		rec = &ConversationRecord{Kind: key.Kind}
		s.conversations[key] = rec
	}
	return rec
}

// nextID returns a time-based id strictly greater than any id handed
// out before. Ids are unix milliseconds bumped on collision so rapid
// appends stay unique and ordered.
func (s *ConversationStore) nextID() int64 {
	now := time.Now().UnixMilli()
	if now <= s.lastID {
		now = s.lastID + 1
	}
	s.lastID = now
	return now
}

// Append stores a new message built from draft, computing its sequence
// flag from the cached tail identity and updating that cache.
func (s *ConversationStore) Append(key ConversationKey, draft Draft) (Message, error) {
	if key.IsZero() {
		return Message{}, &ConversationError{Key: key, Op: "append"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(key)
	msg := Message{
		ID:              s.nextID(),
		Sender:          draft.Sender,
		ParticipantID:   draft.ParticipantID,
		ParticipantName: draft.ParticipantName,
		Text:            draft.Text,
		CreatedAt:       time.Now(),
	}
	msg.FirstInSequence = rec.LastSenderIdentity != msg.Identity()
	if len(rec.Messages) == 0 {
		msg.FirstInSequence = true
	}

	rec.Messages = append(rec.Messages, msg)
	rec.LastSenderIdentity = msg.Identity()
	return msg, nil
}

// List returns a copy of the conversation's full history in id order
func (s *ConversationStore) List(key ConversationKey) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.conversations[key]
	if !ok {
		return nil
	}
	out := make([]Message, len(rec.Messages))
	copy(out, rec.Messages)
	return out
}

// Tail returns a copy of the last n messages (all of them if n exceeds
// the history length)
func (s *ConversationStore) Tail(key ConversationKey, n int) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.conversations[key]
	if !ok || n <= 0 {
		return nil
	}
	start := len(rec.Messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(rec.Messages)-start)
	copy(out, rec.Messages[start:])
	return out
}

// Len returns the number of messages in the conversation
func (s *ConversationStore) Len(key ConversationKey) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.conversations[key]
	if !ok {
		return 0
	}
	return len(rec.Messages)
}

// Get returns the message with the given id
func (s *ConversationStore) Get(key ConversationKey, id int64) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.conversations[key]
	if !ok {
		return Message{}, false
	}
	if i := indexOf(rec.Messages, id); i >= 0 {
		return rec.Messages[i], true
	}
	return Message{}, false
}

// RemoveByID removes a message immediately and returns it, along with
// the index it occupied. Sequence flags for the remaining tail and the
// cached tail identity are recomputed.
func (s *ConversationStore) RemoveByID(key ConversationKey, id int64) (Message, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.conversations[key]
	if !ok {
		return Message{}, -1, false
	}
	i := indexOf(rec.Messages, id)
	if i < 0 {
		return Message{}, -1, false
	}

	removed := rec.Messages[i]
	rec.Messages = append(rec.Messages[:i], rec.Messages[i+1:]...)
	recomputeSequenceFrom(rec, i)
	recomputeLastSender(rec)
	return removed, i, true
}

// Restore reinserts a previously removed message at its id-sorted
// position, preserving the original id so external correlation stays
// valid. Only the restored message and its successor change their
// sequence-break status.
func (s *ConversationStore) Restore(key ConversationKey, msg Message) error {
	return s.RestoreAt(key, msg, -1)
}

// RestoreAt reinserts msg at the given index, or id-sorted when index
// is negative
func (s *ConversationStore) RestoreAt(key ConversationKey, msg Message, index int) error {
	if key.IsZero() {
		return &ConversationError{Key: key, Op: "restore"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(key)
	if index < 0 || index > len(rec.Messages) {
		index = sort.Search(len(rec.Messages), func(i int) bool {
			return rec.Messages[i].ID > msg.ID
		})
	}

	rec.Messages = append(rec.Messages, Message{})
	copy(rec.Messages[index+1:], rec.Messages[index:])
	rec.Messages[index] = msg

	// Only the restored message and its new successor can change.
	recomputeSequenceAt(rec, index)
	recomputeSequenceAt(rec, index+1)
	recomputeLastSender(rec)

	if msg.ID > s.lastID {
		s.lastID = msg.ID
	}
	return nil
}

// Edit replaces a message's text and marks it edited. Ordering and
// sequence flags are untouched.
func (s *ConversationStore) Edit(key ConversationKey, id int64, newText string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.conversations[key]
	if !ok {
		return Message{}, false
	}
	i := indexOf(rec.Messages, id)
	if i < 0 {
		return Message{}, false
	}

	rec.Messages[i].Text = newText
	rec.Messages[i].Edited = true
	rec.Messages[i].EditedAt = time.Now()
	return rec.Messages[i], true
}

// SetExternalRef attaches a transcript correlation handle to a message
func (s *ConversationStore) SetExternalRef(key ConversationKey, id int64, ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.conversations[key]
	if !ok {
		return false
	}
	i := indexOf(rec.Messages, id)
	if i < 0 {
		return false
	}
	rec.Messages[i].ExternalRef = ref
	return true
}

// RetainExternalRefs removes every message whose ExternalRef is set but
// no longer present in valid, returning the removed messages. Messages
// that were never mirrored (empty ExternalRef) are kept. Sequence flags
// are recomputed for the entire remaining log, since removal can merge
// or split sequence breaks anywhere.
func (s *ConversationStore) RetainExternalRefs(key ConversationKey, valid map[string]bool) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.conversations[key]
	if !ok {
		return nil
	}

	var removed []Message
	kept := rec.Messages[:0]
	for _, m := range rec.Messages {
		if m.ExternalRef != "" && !valid[m.ExternalRef] {
			removed = append(removed, m)
			continue
		}
		kept = append(kept, m)
	}
	if len(removed) == 0 {
		return nil
	}

	rec.Messages = kept
	recomputeSequenceFrom(rec, 0)
	recomputeLastSender(rec)
	return removed
}

// Clear empties one conversation
func (s *ConversationStore) Clear(key ConversationKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.conversations[key]
	if !ok {
		return
	}
	rec.Messages = nil
	rec.LastSenderIdentity = ""
}

// ClearAll drops every conversation
func (s *ConversationStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = make(map[ConversationKey]*ConversationRecord)
}

func indexOf(messages []Message, id int64) int {
	for i, m := range messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// recomputeSequenceAt fixes the sequence flag of the message at index i
func recomputeSequenceAt(rec *ConversationRecord, i int) {
	if i < 0 || i >= len(rec.Messages) {
		return
	}
	if i == 0 {
		rec.Messages[0].FirstInSequence = true
		return
	}
	rec.Messages[i].FirstInSequence = rec.Messages[i].Identity() != rec.Messages[i-1].Identity()
}

// recomputeSequenceFrom fixes sequence flags from index i to the tail
func recomputeSequenceFrom(rec *ConversationRecord, i int) {
	if i < 0 {
		i = 0
	}
	for ; i < len(rec.Messages); i++ {
		recomputeSequenceAt(rec, i)
	}
}

// recomputeLastSender refreshes the cached tail identity
func recomputeLastSender(rec *ConversationRecord) {
	if len(rec.Messages) == 0 {
		rec.LastSenderIdentity = ""
		return
	}
	rec.LastSenderIdentity = rec.Messages[len(rec.Messages)-1].Identity()
}
