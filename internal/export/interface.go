package export

import (
	"fmt"
	"io"

	"github.com/iksnae/phone-core/internal"
)

// Log is the exportable view of one conversation
type Log struct {
	Conversation string             `json:"conversation" yaml:"conversation"`
	Kind         string             `json:"kind" yaml:"kind"`
	Messages     []internal.Message `json:"messages" yaml:"messages"`
}

// NewLog builds a Log from a conversation key and its message history
func NewLog(key internal.ConversationKey, messages []internal.Message) *Log {
	return &Log{
		Conversation: key.ID,
		Kind:         key.Kind.String(),
		Messages:     messages,
	}
}

// Author returns the display name to attribute a message to
func Author(m internal.Message) string {
	if m.ParticipantName != "" {
		return m.ParticipantName
	}
	return m.Sender.String()
}

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(log *Log, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}
