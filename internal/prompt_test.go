package internal

import "testing"

func TestBuildPromptContext(t *testing.T) {
	history := []Message{
		{Sender: SenderUser, ParticipantName: "Dana", Text: "you up?"},
		{Sender: SenderCharacter, ParticipantID: "p1", ParticipantName: "Alice", Text: "yeah"},
		{Sender: SenderCharacter, ParticipantID: "p2", ParticipantName: "Bob", Text: "same"},
	}

	got := BuildPromptContext(history, "Dana")
	want := "Dana: you up?\nAlice: yeah\nBob: same"
	if got != want {
		t.Errorf("BuildPromptContext() = %q, want %q", got, want)
	}
}

func TestBuildPromptContext_Fallbacks(t *testing.T) {
	history := []Message{
		{Sender: SenderUser, Text: "hi"},
		{Sender: SenderCharacter, Text: "hello"},
	}

	got := BuildPromptContext(history, "")
	want := "User: hi\nCharacter: hello"
	if got != want {
		t.Errorf("BuildPromptContext() = %q, want %q", got, want)
	}
}

func TestBuildPromptContext_Empty(t *testing.T) {
	if got := BuildPromptContext(nil, "Dana"); got != "" {
		t.Errorf("BuildPromptContext(nil) = %q, want empty", got)
	}
}

func TestBuildPromptContext_UserNameOverridesStoredName(t *testing.T) {
	history := []Message{
		{Sender: SenderUser, ParticipantName: "Old Name", Text: "hi"},
	}
	got := BuildPromptContext(history, "Dana")
	if got != "Dana: hi" {
		t.Errorf("BuildPromptContext() = %q, want %q", got, "Dana: hi")
	}
}
