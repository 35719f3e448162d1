package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONExporter exports conversations as a single indented JSON document
type JSONExporter struct{}

// Export exports a conversation log to JSON format
func (e *JSONExporter) Export(log *Log, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(log); err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	return nil
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
