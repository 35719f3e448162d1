package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

// Generator produces reply text from a prompt context. Supplied by the
// host integration; may fail and must be callable repeatedly per turn.
type Generator interface {
	Generate(promptContext string) (string, error)
}

// NotifyLevel classifies user-facing notifications
type NotifyLevel int

const (
	NotifyInfo NotifyLevel = iota
	NotifyWarn
	NotifyError
)

// Notifier surfaces fire-and-forget user-facing notices (toasts)
type Notifier interface {
	Notify(level NotifyLevel, message string)
}

// TranscriptMirror is the externally-owned transcript the host keeps
// alongside this plugin's own store. Append returns a correlation
// handle later usable for Edit/Delete; ListTagged returns the entries
// this plugin previously appended for one conversation.
type TranscriptMirror interface {
	Append(entry TranscriptEntry) (string, error)
	Edit(ref, text string) (bool, error)
	Delete(ref string) (bool, error)
	ListTagged(key ConversationKey) ([]TranscriptEntry, error)
}

const transcriptKeyPrefix = "transcript:"

// SQLiteMirror is a TranscriptMirror backed by a SQLite key-value
// table. Keys are "transcript:<conversation>:<message-id>" with JSON
// entry payloads; the key itself doubles as the correlation handle.
type SQLiteMirror struct {
	db *sql.DB
}

// OpenTranscriptDB opens (creating if needed) a transcript database
func OpenTranscriptDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS phonekv (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create phonekv table: %w", err)
	}
	return db, nil
}

// NewSQLiteMirror creates a mirror over an opened transcript database
func NewSQLiteMirror(db *sql.DB) *SQLiteMirror {
	return &SQLiteMirror{db: db}
}

// Append stores the entry and returns its key as the correlation handle
func (m *SQLiteMirror) Append(entry TranscriptEntry) (string, error) {
	ref := transcriptKeyPrefix + entry.Conversation + ":" + strconv.FormatInt(entry.MessageID, 10)
	entry.Ref = ref

	payload, err := json.Marshal(entry)
	if err != nil {
		return "", &TranscriptError{Op: "append", Ref: ref, Err: err}
	}
	if _, err := m.db.Exec(`INSERT OR REPLACE INTO phonekv (key, value) VALUES (?, ?)`, ref, string(payload)); err != nil {
		return "", &TranscriptError{Op: "append", Ref: ref, Err: err}
	}
	return ref, nil
}

// Edit rewrites the text of a previously appended entry
func (m *SQLiteMirror) Edit(ref, text string) (bool, error) {
	var value string
	err := m.db.QueryRow(`SELECT value FROM phonekv WHERE key = ?`, ref).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &TranscriptError{Op: "edit", Ref: ref, Err: err}
	}

	var entry TranscriptEntry
	if err := json.Unmarshal([]byte(value), &entry); err != nil {
		return false, &TranscriptError{Op: "edit", Ref: ref, Err: err}
	}
	entry.Text = text

	payload, err := json.Marshal(entry)
	if err != nil {
		return false, &TranscriptError{Op: "edit", Ref: ref, Err: err}
	}
	if _, err := m.db.Exec(`UPDATE phonekv SET value = ? WHERE key = ?`, string(payload), ref); err != nil {
		return false, &TranscriptError{Op: "edit", Ref: ref, Err: err}
	}
	return true, nil
}

// Delete removes a previously appended entry
func (m *SQLiteMirror) Delete(ref string) (bool, error) {
	res, err := m.db.Exec(`DELETE FROM phonekv WHERE key = ?`, ref)
	if err != nil {
		return false, &TranscriptError{Op: "delete", Ref: ref, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &TranscriptError{Op: "delete", Ref: ref, Err: err}
	}
	return n > 0, nil
}

// ListTagged returns all entries for one conversation in key order
func (m *SQLiteMirror) ListTagged(key ConversationKey) ([]TranscriptEntry, error) {
	pairs, err := queryTranscriptKV(m.db, transcriptKeyPrefix+key.String()+":%")
	if err != nil {
		return nil, &TranscriptError{Op: "list", Ref: key.String(), Err: err}
	}

	var entries []TranscriptEntry
	for _, pair := range pairs {
		var entry TranscriptEntry
		if err := json.Unmarshal([]byte(pair.Value), &entry); err != nil {
			LogDebug("Skipping unparseable transcript entry %s: %v", pair.Key, err)
			continue
		}
		entry.Ref = pair.Key
		entries = append(entries, entry)
	}
	return entries, nil
}

// KeyValuePair represents a key-value pair from the phonekv table
type KeyValuePair struct {
	Key   string
	Value string
}

// queryTranscriptKV queries the phonekv table with a LIKE pattern
func queryTranscriptKV(db *sql.DB, pattern string) ([]KeyValuePair, error) {
	rows, err := db.Query(`SELECT key, value FROM phonekv WHERE key LIKE ? AND value IS NOT NULL ORDER BY key`, pattern)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var pairs []KeyValuePair
	for rows.Next() {
		var pair KeyValuePair
		var value sql.NullString
		if err := rows.Scan(&pair.Key, &value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if value.Valid {
			pair.Value = value.String
			pairs = append(pairs, pair)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return pairs, nil
}
