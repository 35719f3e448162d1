package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateInMemoryDB creates an in-memory SQLite transcript database for testing
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS phonekv (
		key TEXT PRIMARY KEY,
		value TEXT
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create phonekv table: %v", err)
	}

	return db
}

// InsertEntry inserts a raw transcript key-value pair into the database
func InsertEntry(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	insertSQL := "INSERT INTO phonekv (key, value) VALUES (?, ?)"
	if _, err := db.Exec(insertSQL, key, value); err != nil {
		t.Fatalf("Failed to insert transcript entry: %v", err)
	}
}

// CreateTestTranscriptDB creates an in-memory transcript database with a
// short tagged individual conversation
func CreateTestTranscriptDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)

	entries := []struct {
		key   string
		value string
	}{
		{
			key:   "transcript:individual:sam:1000",
			value: `{"conversation":"individual:sam","messageId":1000,"sender":1,"participantName":"You","text":"hey","timestamp":1000}`,
		},
		{
			key:   "transcript:individual:sam:1001",
			value: `{"conversation":"individual:sam","messageId":1001,"sender":2,"participantName":"Sam","text":"hey yourself","timestamp":1001}`,
		},
	}
	for _, e := range entries {
		InsertEntry(t, db, e.key, e.value)
	}

	return db
}
