package internal

import (
	"strings"
	"sync"
	"time"
)

// Orchestrator drives one conversational turn end to end: store the
// user message, pick responders, generate and sanitize their replies,
// and mirror everything out to the external transcript. Store methods
// never suspend; only the orchestrator interleaves external calls with
// mutations, and it always leaves the store consistent between them.
type Orchestrator struct {
	store     *ConversationStore
	selector  *TurnSelector
	generator Generator
	mirror    TranscriptMirror
	notifier  Notifier
	settings  Settings

	// pending tracks at most one deferred transcript deletion per
	// conversation; starting a new one finalizes the prior one.
	mu      sync.Mutex
	pending map[ConversationKey]*pendingDeletion
}

type pendingDeletion struct {
	message Message
	index   int
	timer   *time.Timer
}

// NewOrchestrator wires the orchestrator to its collaborators
func NewOrchestrator(store *ConversationStore, selector *TurnSelector, generator Generator, mirror TranscriptMirror, notifier Notifier, settings Settings) *Orchestrator {
	if settings.ContextMessageCount <= 0 {
		settings.ContextMessageCount = DefaultSettings().ContextMessageCount
	}
	if settings.UndoWindow <= 0 {
		settings.UndoWindow = DefaultSettings().UndoWindow
	}
	return &Orchestrator{
		store:     store,
		selector:  selector,
		generator: generator,
		mirror:    mirror,
		notifier:  notifier,
		settings:  settings,
		pending:   make(map[ConversationKey]*pendingDeletion),
	}
}

// HandleUserMessage runs one turn: the user text is stored and
// mirrored, responders are chosen (roster and group config come from
// the caller's identity provider), and each responder replies in
// sequence so later prompts see earlier replies as history. Returns the
// committed character replies.
//
// Blank input returns ErrEmptyInput; an empty or fully-disabled roster
// yields zero replies, which is a no-op, not an error.
func (o *Orchestrator) HandleUserMessage(key ConversationKey, text string, roster []Participant, cfg GroupConfig) ([]Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}

	userMsg, err := o.store.Append(key, Draft{
		Sender:          SenderUser,
		ParticipantName: o.settings.UserName,
		Text:            trimmed,
	})
	if err != nil {
		o.notify(NotifyError, "Could not store your message")
		return nil, err
	}
	o.mirrorAppend(key, userMsg)

	var responders []Participant
	if key.Kind == KindGroup {
		responders = o.selector.SelectResponders(roster, cfg, o.store.List(key), trimmed)
	} else if len(roster) > 0 {
		responders = roster[:1]
	}

	var replies []Message
	failures := 0
	for _, p := range responders {
		reply, err := o.generateForParticipant(key, p)
		if err != nil {
			LogWarn("Turn abandoned for %s: %v", p.DisplayName, err)
			failures++
			continue
		}
		if reply != nil {
			replies = append(replies, *reply)
		}
	}

	// One notice per run regardless of how many participants failed.
	if failures > 0 {
		o.notify(NotifyError, "Some replies could not be generated")
	}
	return replies, nil
}

// generateForParticipant produces, sanitizes and commits one reply.
// A reply that cleans down to nothing abandons the turn silently.
func (o *Orchestrator) generateForParticipant(key ConversationKey, p Participant) (*Message, error) {
	prompt := BuildPromptContext(o.store.Tail(key, o.settings.ContextMessageCount), o.settings.UserName)

	raw, err := o.generator.Generate(prompt)
	if err != nil {
		return nil, &GenerationError{Participant: p.DisplayName, Err: err}
	}

	text := StripReplyArtifacts(raw, p.DisplayName, o.settings.ModeMarker)
	if text == "" {
		LogDebug("Empty reply after cleanup for %s, abandoning turn", p.DisplayName)
		return nil, nil
	}

	draft := Draft{
		Sender:          SenderCharacter,
		ParticipantName: p.DisplayName,
		Text:            text,
	}
	// ParticipantID is only meaningful in group conversations.
	if key.Kind == KindGroup {
		draft.ParticipantID = p.ID
	}

	msg, err := o.store.Append(key, draft)
	if err != nil {
		return nil, err
	}
	o.mirrorAppend(key, msg)

	msg, _ = o.store.Get(key, msg.ID)
	return &msg, nil
}

// EditMessage updates a stored message and mirrors the edit out
func (o *Orchestrator) EditMessage(key ConversationKey, id int64, newText string) (Message, error) {
	msg, ok := o.store.Edit(key, id, newText)
	if !ok {
		return Message{}, &NotFoundError{Key: key, ID: id}
	}
	if msg.ExternalRef != "" {
		if _, err := o.mirror.Edit(msg.ExternalRef, newText); err != nil {
			LogWarn("Failed to mirror edit for %s: %v", msg.ExternalRef, err)
		}
	}
	return msg, nil
}

// DeleteMessage removes a message from the store immediately. Without
// an undo window the transcript entry is deleted right away; with one,
// the transcript deletion is deferred until the window elapses or the
// deletion is finalized, and RestoreMessage can fully reverse it in the
// meantime. Only one deferred deletion is pending per conversation;
// starting another finalizes the prior one.
func (o *Orchestrator) DeleteMessage(key ConversationKey, id int64, withUndoWindow bool) (Message, error) {
	o.FinalizePending(key)

	removed, index, ok := o.store.RemoveByID(key, id)
	if !ok {
		return Message{}, &NotFoundError{Key: key, ID: id}
	}

	if !withUndoWindow || removed.ExternalRef == "" {
		o.mirrorDelete(removed)
		return removed, nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	pd := &pendingDeletion{message: removed, index: index}
	pd.timer = time.AfterFunc(o.settings.UndoWindow, func() {
		o.expirePending(key, pd)
	})
	o.pending[key] = pd
	return removed, nil
}

// RestoreMessage reverses a still-pending deferred deletion, putting
// the message back at its original position. Returns false if the undo
// window already elapsed or no deletion was pending.
func (o *Orchestrator) RestoreMessage(key ConversationKey) (Message, bool) {
	o.mu.Lock()
	pd, ok := o.pending[key]
	if ok {
		pd.timer.Stop()
		delete(o.pending, key)
	}
	o.mu.Unlock()

	if !ok {
		return Message{}, false
	}
	if err := o.store.RestoreAt(key, pd.message, pd.index); err != nil {
		LogError("Failed to restore message %d in %s: %v", pd.message.ID, key, err)
		return Message{}, false
	}
	return pd.message, true
}

// RegenerateFrom deletes the target character message and everything
// after it, newest first so indices stay valid, then regenerates a
// reply for the original author rather than drawing a fresh responder.
func (o *Orchestrator) RegenerateFrom(key ConversationKey, id int64, roster []Participant) (*Message, error) {
	messages := o.store.List(key)
	target := indexOf(messages, id)
	if target < 0 {
		return nil, &NotFoundError{Key: key, ID: id}
	}
	if messages[target].Sender == SenderUser {
		return nil, &InvalidTargetError{Key: key, ID: id}
	}
	original := messages[target]

	for i := len(messages) - 1; i >= target; i-- {
		removed, _, ok := o.store.RemoveByID(key, messages[i].ID)
		if ok {
			o.mirrorDelete(removed)
		}
	}

	participant := Participant{ID: original.ParticipantID, DisplayName: original.ParticipantName}
	for _, p := range roster {
		if key.Kind == KindGroup && p.ID == original.ParticipantID {
			participant = p
			break
		}
		if key.Kind == KindIndividual {
			participant = p
			break
		}
	}

	reply, err := o.generateForParticipant(key, participant)
	if err != nil {
		o.notify(NotifyError, "Could not regenerate the reply")
		return nil, err
	}
	return reply, nil
}

// CloseConversation finalizes any deferred deletion still pending for
// the conversation. Called on conversation close so nothing is silently
// dropped.
func (o *Orchestrator) CloseConversation(key ConversationKey) {
	o.FinalizePending(key)
}

// Close finalizes every pending deferred deletion; used on shutdown
func (o *Orchestrator) Close() {
	o.mu.Lock()
	keys := make([]ConversationKey, 0, len(o.pending))
	for key := range o.pending {
		keys = append(keys, key)
	}
	o.mu.Unlock()

	for _, key := range keys {
		o.FinalizePending(key)
	}
}

// FinalizePending commits a pending deferred deletion immediately,
// cancelling its timer and deleting the transcript entry now
func (o *Orchestrator) FinalizePending(key ConversationKey) {
	o.mu.Lock()
	pd, ok := o.pending[key]
	if ok {
		pd.timer.Stop()
		delete(o.pending, key)
	}
	o.mu.Unlock()

	if ok {
		o.mirrorDelete(pd.message)
	}
}

// expirePending is the undo-window timer callback
func (o *Orchestrator) expirePending(key ConversationKey, pd *pendingDeletion) {
	o.mu.Lock()
	current, ok := o.pending[key]
	if ok && current == pd {
		delete(o.pending, key)
	} else {
		ok = false
	}
	o.mu.Unlock()

	if ok {
		o.mirrorDelete(pd.message)
	}
}

// mirrorAppend mirrors a freshly stored message to the transcript and
// attaches the returned correlation handle. Mirror failures degrade to
// an unmirrored message rather than failing the turn.
func (o *Orchestrator) mirrorAppend(key ConversationKey, msg Message) {
	ref, err := o.mirror.Append(TranscriptEntry{
		Conversation:    key.String(),
		MessageID:       msg.ID,
		Sender:          msg.Sender,
		ParticipantID:   msg.ParticipantID,
		ParticipantName: msg.ParticipantName,
		Text:            msg.Text,
		Timestamp:       msg.CreatedAt.UnixMilli(),
	})
	if err != nil {
		LogWarn("Failed to mirror message %d to transcript: %v", msg.ID, err)
		return
	}
	o.store.SetExternalRef(key, msg.ID, ref)
}

func (o *Orchestrator) mirrorDelete(msg Message) {
	if msg.ExternalRef == "" {
		return
	}
	if _, err := o.mirror.Delete(msg.ExternalRef); err != nil {
		LogWarn("Failed to mirror deletion of %s: %v", msg.ExternalRef, err)
	}
}

func (o *Orchestrator) notify(level NotifyLevel, message string) {
	if o.notifier != nil {
		o.notifier.Notify(level, message)
	}
}
