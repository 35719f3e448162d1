package internal

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when a user message is blank after trimming.
// Callers should treat it as a no-op, not surface it as an error.
var ErrEmptyInput = errors.New("empty user input")

// ConversationError represents an unresolvable conversation key
type ConversationError struct {
	Key ConversationKey
	Op  string // "append", "reconstruct", "prune", ...
}

func (e *ConversationError) Error() string {
	return fmt.Sprintf("invalid conversation: %s %s", e.Op, e.Key)
}

// NotFoundError represents an operation targeting an absent message id
type NotFoundError struct {
	Key ConversationKey
	ID  int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("message not found [%s]: %d", e.Key, e.ID)
}

// InvalidTargetError represents a regenerate aimed at a non-character message
type InvalidTargetError struct {
	Key ConversationKey
	ID  int64
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid regenerate target [%s]: %d is not a character message", e.Key, e.ID)
}

// GenerationError represents a failed generation for one participant.
// It is recovered per-participant inside the fan-out loop and never
// fails the whole turn.
type GenerationError struct {
	Participant string
	Err         error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation error [%s]: %v", e.Participant, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// TranscriptError represents errors talking to the external transcript mirror
type TranscriptError struct {
	Op  string // "append", "edit", "delete", "list"
	Ref string
	Err error
}

func (e *TranscriptError) Error() string {
	return fmt.Sprintf("transcript error: %s %s: %v", e.Op, e.Ref, e.Err)
}

func (e *TranscriptError) Unwrap() error {
	return e.Err
}
