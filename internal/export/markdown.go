package export

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// MarkdownExporter exports conversations in Markdown format
type MarkdownExporter struct{}

// Export exports a conversation log to Markdown format
func (e *MarkdownExporter) Export(log *Log, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Conversation %s\n\n", log.Conversation)
	_, _ = fmt.Fprintf(w, "**Kind:** %s  \n", log.Kind)
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(log.Messages))
	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range log.Messages {
		timestamp := ""
		if !msg.CreatedAt.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.CreatedAt.Format(time.RFC3339))
		}
		edited := ""
		if msg.Edited {
			edited = " *(edited)*"
		}

		content := escapeMarkdown(msg.Text)
		_, _ = fmt.Fprintf(w, "**%s:**%s%s\n\n%s\n\n", Author(msg), timestamp, edited, content)

		if i < len(log.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters outside code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
