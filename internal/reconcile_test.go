package internal

import (
	"testing"
)

func TestReconciler_ReconstructFromTranscript(t *testing.T) {
	store := NewConversationStore()
	r := NewReconciler(store)
	key := IndividualKey("sam")

	entries := []TranscriptEntry{
		CreateTestEntry(key.String(), 1000, SenderUser, "", "hey"),
		CreateTestEntry(key.String(), 1001, SenderCharacter, "", "hey yourself"),
		CreateTestEntry(key.String(), 1002, SenderCharacter, "", "you ok?"),
	}

	count, err := r.ReconstructFromTranscript(key, entries)
	if err != nil {
		t.Fatalf("ReconstructFromTranscript() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("ReconstructFromTranscript() = %d, want 3", count)
	}

	list := store.List(key)
	if len(list) != 3 {
		t.Fatalf("store has %d messages, want 3", len(list))
	}
	for i, m := range list {
		if !m.Reconstructed {
			t.Errorf("message %d not marked reconstructed", i)
		}
	}
	if list[0].ID != 1000 || list[1].ID != 1001 || list[2].ID != 1002 {
		t.Errorf("ids not preserved: %d, %d, %d", list[0].ID, list[1].ID, list[2].ID)
	}
	if list[0].ExternalRef != "ref-1000" {
		t.Errorf("external correlation lost: %q", list[0].ExternalRef)
	}

	// Sequence flags derived during replay: user, character, character.
	wantFlags := []bool{true, true, false}
	for i, want := range wantFlags {
		if list[i].FirstInSequence != want {
			t.Errorf("sequence flag at %d = %v, want %v", i, list[i].FirstInSequence, want)
		}
	}
}

func TestReconciler_ReconstructIsIdempotent(t *testing.T) {
	store := NewConversationStore()
	r := NewReconciler(store)
	key := IndividualKey("sam")

	entries := []TranscriptEntry{
		CreateTestEntry(key.String(), 1000, SenderUser, "", "hey"),
	}

	if count, _ := r.ReconstructFromTranscript(key, entries); count != 1 {
		t.Fatalf("first reconstruction = %d, want 1", count)
	}
	before := store.List(key)

	count, err := r.ReconstructFromTranscript(key, entries)
	if err != nil {
		t.Fatalf("second ReconstructFromTranscript() error = %v", err)
	}
	if count != 0 {
		t.Errorf("second reconstruction = %d, want 0 (no-op)", count)
	}
	after := store.List(key)
	if len(after) != len(before) {
		t.Errorf("second reconstruction changed the store: %d -> %d messages", len(before), len(after))
	}
}

func TestReconciler_Reconstruct_NeverOverwritesLiveState(t *testing.T) {
	store := NewConversationStore()
	r := NewReconciler(store)
	key := IndividualKey("sam")

	live, _ := store.Append(key, userDraft("live message"))

	count, err := r.ReconstructFromTranscript(key, []TranscriptEntry{
		CreateTestEntry(key.String(), 1000, SenderUser, "", "stale"),
	})
	if err != nil {
		t.Fatalf("ReconstructFromTranscript() error = %v", err)
	}
	if count != 0 {
		t.Errorf("reconstruction over live state = %d, want 0", count)
	}
	list := store.List(key)
	if len(list) != 1 || list[0].ID != live.ID {
		t.Error("live state was overwritten")
	}
}

func TestReconciler_Reconstruct_DerivedIDs(t *testing.T) {
	store := NewConversationStore()
	r := NewReconciler(store)
	key := IndividualKey("sam")

	// No message ids: fall back to timestamp-derived ids, bumped to
	// stay strictly increasing.
	entries := []TranscriptEntry{
		{Ref: "r1", Conversation: key.String(), Sender: SenderUser, Text: "a", Timestamp: 5000},
		{Ref: "r2", Conversation: key.String(), Sender: SenderCharacter, Text: "b", Timestamp: 5000},
		{Ref: "r3", Conversation: key.String(), Sender: SenderUser, Text: "c", Timestamp: 6000},
	}
	count, err := r.ReconstructFromTranscript(key, entries)
	if err != nil {
		t.Fatalf("ReconstructFromTranscript() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	list := store.List(key)
	if list[0].ID != 5000 || list[1].ID != 5001 || list[2].ID != 6000 {
		t.Errorf("derived ids = %d, %d, %d; want 5000, 5001, 6000", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestReconciler_Reconstruct_SkipsDuplicateRefs(t *testing.T) {
	store := NewConversationStore()
	r := NewReconciler(store)
	key := IndividualKey("sam")

	entry := CreateTestEntry(key.String(), 1000, SenderUser, "", "hey")
	count, err := r.ReconstructFromTranscript(key, []TranscriptEntry{entry, entry})
	if err != nil {
		t.Fatalf("ReconstructFromTranscript() error = %v", err)
	}
	if count != 1 {
		t.Errorf("duplicate refs should collapse: count = %d, want 1", count)
	}
}

func TestReconciler_Reconstruct_InvalidKey(t *testing.T) {
	r := NewReconciler(NewConversationStore())
	if _, err := r.ReconstructFromTranscript(ConversationKey{}, nil); err == nil {
		t.Error("zero key should fail reconstruction")
	}
}

func TestReconciler_PruneDeletedExternally(t *testing.T) {
	store := NewConversationStore()
	r := NewReconciler(store)
	key := GroupKey("g")

	a, _ := store.Append(key, userDraft("a"))
	b, _ := store.Append(key, characterDraft("p1", "Alice", "b"))
	c, _ := store.Append(key, userDraft("c"))
	store.SetExternalRef(key, a.ID, "ref1")
	store.SetExternalRef(key, b.ID, "ref2")
	store.SetExternalRef(key, c.ID, "ref3")

	// The transcript only still holds ref1 and ref3: B was deleted
	// out-of-band by the host.
	transcript := []TranscriptEntry{
		{Ref: "ref1", Conversation: key.String()},
		{Ref: "ref3", Conversation: key.String()},
	}

	removed, err := r.PruneDeletedExternally(key, transcript)
	if err != nil {
		t.Fatalf("PruneDeletedExternally() error = %v", err)
	}
	if removed != 1 {
		t.Fatalf("PruneDeletedExternally() = %d, want 1", removed)
	}

	list := store.List(key)
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != c.ID {
		t.Fatalf("prune kept wrong messages: %v", list)
	}
	// As if B never existed: A and C are both user messages, so C no
	// longer starts a sequence.
	if !list[0].FirstInSequence || list[1].FirstInSequence {
		t.Error("sequence flags inconsistent after prune")
	}

	next, _ := store.Append(key, userDraft("d"))
	if next.FirstInSequence {
		t.Error("lastSenderIdentity inconsistent after prune")
	}
}

func TestReconciler_Prune_NoDivergence(t *testing.T) {
	store := NewConversationStore()
	r := NewReconciler(store)
	key := IndividualKey("sam")

	a, _ := store.Append(key, userDraft("a"))
	store.SetExternalRef(key, a.ID, "ref1")

	removed, err := r.PruneDeletedExternally(key, []TranscriptEntry{{Ref: "ref1"}})
	if err != nil {
		t.Fatalf("PruneDeletedExternally() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("prune with matching transcript removed %d, want 0", removed)
	}
}

func TestReconciler_RoundTripThroughMirror(t *testing.T) {
	// Messages appended through a mirror can rebuild an empty store.
	mirror := NewMemoryMirror()
	store := NewConversationStore()
	key := IndividualKey("sam")

	for _, d := range []Draft{userDraft("hey"), characterDraft("", "Sam", "hi")} {
		msg, _ := store.Append(key, d)
		ref, err := mirror.Append(TranscriptEntry{
			Conversation: key.String(),
			MessageID:    msg.ID,
			Sender:       msg.Sender,
			Text:         msg.Text,
			Timestamp:    msg.CreatedAt.UnixMilli(),
		})
		if err != nil {
			t.Fatalf("mirror.Append() error = %v", err)
		}
		store.SetExternalRef(key, msg.ID, ref)
	}
	original := store.List(key)

	// Cold start: fresh store, rebuild from the transcript.
	fresh := NewConversationStore()
	entries, _ := mirror.ListTagged(key)
	count, err := NewReconciler(fresh).ReconstructFromTranscript(key, entries)
	if err != nil {
		t.Fatalf("ReconstructFromTranscript() error = %v", err)
	}
	if count != len(original) {
		t.Fatalf("rebuilt %d messages, want %d", count, len(original))
	}

	rebuilt := fresh.List(key)
	for i := range original {
		if rebuilt[i].ID != original[i].ID || rebuilt[i].Text != original[i].Text ||
			rebuilt[i].FirstInSequence != original[i].FirstInSequence {
			t.Errorf("rebuilt message %d = %+v, want %+v", i, rebuilt[i], original[i])
		}
	}
}
