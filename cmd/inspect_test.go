package cmd

import (
	"testing"

	"github.com/iksnae/phone-core/internal"
)

func TestParseConversationKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    internal.ConversationKey
		wantErr bool
	}{
		{
			name:  "individual key",
			input: "individual:sam",
			want:  internal.IndividualKey("sam"),
		},
		{
			name:  "group key",
			input: "group:friends",
			want:  internal.GroupKey("friends"),
		},
		{
			name:  "id containing colon",
			input: "group:a:b",
			want:  internal.GroupKey("a:b"),
		},
		{
			name:    "missing separator",
			input:   "friends",
			wantErr: true,
		},
		{
			name:    "empty id",
			input:   "group:",
			wantErr: true,
		},
		{
			name:    "unknown kind",
			input:   "channel:friends",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseConversationKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseConversationKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("parseConversationKey(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 60, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this line is definitely too long", 10, "this li..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestInspectCommand_RequiresDB(t *testing.T) {
	if err := runCommand(t, "inspect", "individual:sam"); err == nil {
		t.Error("inspect without --db should fail")
	}
}

func TestInspectCommand_InvalidKey(t *testing.T) {
	if err := runCommand(t, "inspect", "not-a-key"); err == nil {
		t.Error("inspect with malformed key should fail")
	}
}
