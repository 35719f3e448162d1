package internal

import "sort"

// Reconciler keeps a ConversationStore consistent with the externally
// owned transcript. The store and the transcript are independent logs
// updated through different paths (direct appends here, out-of-band host
// mutations there); without reconciliation they silently diverge.
// Reconstruction covers cold-start divergence, pruning covers live
// divergence from external deletes.
type Reconciler struct {
	store *ConversationStore
}

// NewReconciler creates a Reconciler over the given store
func NewReconciler(store *ConversationStore) *Reconciler {
	return &Reconciler{store: store}
}

// ReconstructFromTranscript rebuilds an empty conversation from the
// transcript entries tagged for it and returns the count reconstructed.
// A non-empty conversation is left untouched and reports 0; running
// reconstruction twice is therefore a no-op, never an overwrite.
//
// Entries carrying a message id keep it so external correlation stays
// valid; entries without one get an id derived from their timestamp,
// bumped past the previous id to preserve strict ordering.
func (r *Reconciler) ReconstructFromTranscript(key ConversationKey, entries []TranscriptEntry) (int, error) {
	if key.IsZero() {
		return 0, &ConversationError{Key: key, Op: "reconstruct"}
	}
	if r.store.Len(key) > 0 {
		LogDebug("Skipping reconstruction for %s: conversation already populated", key)
		return 0, nil
	}

	replay := make([]TranscriptEntry, 0, len(entries))
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.Ref != "" && seen[entry.Ref] {
			LogDebug("Skipping duplicate transcript entry %s", entry.Ref)
			continue
		}
		seen[entry.Ref] = true
		replay = append(replay, entry)
	}

	sort.SliceStable(replay, func(i, j int) bool {
		oi, oj := entryOrder(replay[i]), entryOrder(replay[j])
		if oi != oj {
			return oi < oj
		}
		return replay[i].Ref < replay[j].Ref
	})

	count := 0
	var lastID int64
	for _, entry := range replay {
		id := entry.MessageID
		if id == 0 {
			id = entry.Timestamp
		}
		if id <= lastID {
			id = lastID + 1
		}

		msg := Message{
			ID:              id,
			Sender:          entry.Sender,
			ParticipantID:   entry.ParticipantID,
			ParticipantName: entry.ParticipantName,
			Text:            entry.Text,
			CreatedAt:       entry.GetTimestamp(),
			ExternalRef:     entry.Ref,
			Reconstructed:   true,
		}

		// RestoreAt recomputes the sequence flag as each message lands,
		// so the replay derives flags rather than trusting the transcript.
		if err := r.store.RestoreAt(key, msg, count); err != nil {
			return count, err
		}
		lastID = id
		count++
	}

	if count > 0 {
		LogInfo("Reconstructed %d message(s) for %s from transcript", count, key)
	}
	return count, nil
}

// PruneDeletedExternally removes every stored message whose transcript
// entry is gone and returns the count removed. Messages never mirrored
// out have nothing external to diverge from and are kept. Sequence
// state is fully recomputed because a removal can merge or split breaks
// anywhere in the log.
func (r *Reconciler) PruneDeletedExternally(key ConversationKey, entries []TranscriptEntry) (int, error) {
	if key.IsZero() {
		return 0, &ConversationError{Key: key, Op: "prune"}
	}

	valid := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.Ref != "" {
			valid[entry.Ref] = true
		}
	}

	removed := r.store.RetainExternalRefs(key, valid)
	if len(removed) > 0 {
		LogInfo("Pruned %d message(s) from %s deleted externally", len(removed), key)
	}
	return len(removed), nil
}

// entryOrder is the replay sort key: the message id when present,
// otherwise the entry timestamp
func entryOrder(e TranscriptEntry) int64 {
	if e.MessageID != 0 {
		return e.MessageID
	}
	return e.Timestamp
}
