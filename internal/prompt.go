package internal

import "strings"

// BuildPromptContext renders recent history as name-attributed lines for
// the text generator, oldest first. User lines carry the configured user
// name; character lines carry the display name captured at authorship.
func BuildPromptContext(history []Message, userName string) string {
	var sb strings.Builder
	for i, m := range history {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(promptAuthor(m, userName))
		sb.WriteString(": ")
		sb.WriteString(m.Text)
	}
	return sb.String()
}

func promptAuthor(m Message, userName string) string {
	if m.Sender == SenderUser {
		if userName != "" {
			return userName
		}
		return "User"
	}
	if m.ParticipantName != "" {
		return m.ParticipantName
	}
	return "Character"
}
