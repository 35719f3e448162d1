package internal

import (
	"fmt"
	"time"
)

// ConversationKind distinguishes one-on-one threads from group threads
type ConversationKind int

const (
	KindIndividual ConversationKind = 1
	KindGroup      ConversationKind = 2
)

// String returns the kind as a lowercase label
func (k ConversationKind) String() string {
	switch k {
	case KindIndividual:
		return "individual"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// ConversationKey identifies a conversation. Two conversations with
// different keys never share messages.
type ConversationKey struct {
	Kind ConversationKind
	ID   string
}

// IndividualKey returns a key for a one-on-one conversation
func IndividualKey(id string) ConversationKey {
	return ConversationKey{Kind: KindIndividual, ID: id}
}

// GroupKey returns a key for a group conversation
func GroupKey(id string) ConversationKey {
	return ConversationKey{Kind: KindGroup, ID: id}
}

// IsZero reports whether the key is unset or malformed
func (k ConversationKey) IsZero() bool {
	return k.ID == "" || (k.Kind != KindIndividual && k.Kind != KindGroup)
}

// String returns the key in "kind:id" form, used for transcript tagging
func (k ConversationKey) String() string {
	return fmt.Sprintf("%s:%s", k.Kind, k.ID)
}

// Sender identifies who authored a message
type Sender int

const (
	SenderUser      Sender = 1
	SenderCharacter Sender = 2
)

// String returns the sender as a lowercase label
func (s Sender) String() string {
	switch s {
	case SenderUser:
		return "user"
	case SenderCharacter:
		return "character"
	default:
		return "unknown"
	}
}

// Message is a single entry in a conversation log
type Message struct {
	ID              int64     `json:"id"`
	Sender          Sender    `json:"sender"` // 1=user, 2=character
	ParticipantID   string    `json:"participantId,omitempty"`
	ParticipantName string    `json:"participantName,omitempty"`
	Text            string    `json:"text"`
	CreatedAt       time.Time `json:"createdAt"`
	FirstInSequence bool      `json:"firstInSequence"`
	Edited          bool      `json:"edited,omitempty"`
	EditedAt        time.Time `json:"editedAt,omitempty"`
	ExternalRef     string    `json:"externalRef,omitempty"`
	Reconstructed   bool      `json:"reconstructed,omitempty"`
}

// Identity returns the sender identity used for sequence grouping:
// "user" for user messages, the participant id for group character
// messages, "character" for individual character messages.
func (m Message) Identity() string {
	if m.Sender == SenderUser {
		return "user"
	}
	if m.ParticipantID != "" {
		return m.ParticipantID
	}
	return "character"
}

// Draft carries the caller-supplied fields of a message about to be
// appended; id, timestamp and sequence flag are assigned by the store.
type Draft struct {
	Sender          Sender
	ParticipantID   string
	ParticipantName string
	Text            string
}

// ConversationRecord holds one conversation's ordered message log.
// LastSenderIdentity caches the tail message's identity so appends can
// compute FirstInSequence without rescanning history; it is "" exactly
// when Messages is empty.
type ConversationRecord struct {
	Kind               ConversationKind
	Messages           []Message
	LastSenderIdentity string
}

// Participant is a character eligible to respond in a group conversation
type Participant struct {
	ID            string `yaml:"id"`
	DisplayName   string `yaml:"name"`
	Talkativeness int    `yaml:"talkativeness"` // 0-100
	Disabled      bool   `yaml:"disabled,omitempty"`
}

// ActivationStrategy selects how the next group responder is chosen
type ActivationStrategy int

const (
	StrategyNatural ActivationStrategy = iota
	StrategyList
	StrategyPooled
	StrategyManual
)

// String returns the strategy as a lowercase label
func (s ActivationStrategy) String() string {
	switch s {
	case StrategyNatural:
		return "natural"
	case StrategyList:
		return "list"
	case StrategyPooled:
		return "pooled"
	case StrategyManual:
		return "manual"
	default:
		return "unknown"
	}
}

// ParseActivationStrategy parses a strategy label
func ParseActivationStrategy(s string) (ActivationStrategy, error) {
	switch s {
	case "natural", "":
		return StrategyNatural, nil
	case "list":
		return StrategyList, nil
	case "pooled":
		return StrategyPooled, nil
	case "manual":
		return StrategyManual, nil
	default:
		return StrategyNatural, fmt.Errorf("unknown activation strategy: %q (supported: natural, list, pooled, manual)", s)
	}
}

// GroupConfig is the per-group selection configuration
type GroupConfig struct {
	Strategy           ActivationStrategy
	AllowSelfResponses bool
}

// TranscriptEntry is one externally-owned transcript record tagged as
// belonging to this plugin. Ref is the correlation handle the mirror
// assigned on append; MessageID carries the store message id when known.
type TranscriptEntry struct {
	Ref             string `json:"ref,omitempty"`
	Conversation    string `json:"conversation"`
	MessageID       int64  `json:"messageId,omitempty"`
	Sender          Sender `json:"sender"`
	ParticipantID   string `json:"participantId,omitempty"`
	ParticipantName string `json:"participantName,omitempty"`
	Text            string `json:"text"`
	Timestamp       int64  `json:"timestamp"` // unix milliseconds
}

// GetTimestamp returns a time.Time from the entry's millisecond timestamp
func (e TranscriptEntry) GetTimestamp() time.Time {
	return time.Unix(0, e.Timestamp*int64(time.Millisecond))
}

// Settings is the configuration consulted by the orchestrator. It is
// constructed explicitly and passed in; nothing reads ambient globals.
type Settings struct {
	UserName            string        `yaml:"user_name"`
	ContextMessageCount int           `yaml:"context_messages"`
	ModeMarker          string        `yaml:"mode_marker"`
	UndoWindow          time.Duration `yaml:"undo_window"`
}

// DefaultSettings returns the settings used when the caller supplies none
func DefaultSettings() Settings {
	return Settings{
		UserName:            "You",
		ContextMessageCount: 10,
		ModeMarker:          "[phone]",
		UndoWindow:          10 * time.Second,
	}
}
