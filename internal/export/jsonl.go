package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// JSONLExporter exports conversations in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports a conversation log to JSONL format
func (e *JSONLExporter) Export(log *Log, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range log.Messages {
		obj := map[string]interface{}{
			"id":     msg.ID,
			"author": Author(msg),
			"sender": msg.Sender.String(),
			"text":   msg.Text,
		}
		if !msg.CreatedAt.IsZero() {
			obj["timestamp"] = msg.CreatedAt.Format(time.RFC3339)
		}
		if msg.Edited {
			obj["edited"] = true
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
