// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/acode/internal/adapters/sqlite"
	"github.com/example/acode/internal/core/conversation"
	"github.com/example/acode/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
// Uses db.GetSchemaSQL() to prevent test schemas from drifting.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedChat creates and persists a chat, returning the in-memory aggregate.
func seedChat(t *testing.T, testDB *sql.DB, title string) *conversation.Chat {
	t.Helper()

	chat, err := conversation.NewChat(title, "")
	if err != nil {
		t.Fatalf("NewChat failed: %v", err)
	}

	repo := sqlite.NewChatRepository(testDB)
	if err := repo.Create(context.Background(), chat); err != nil {
		t.Fatalf("failed to seed chat: %v", err)
	}

	return chat
}

// seedRun creates and persists a run for a chat.
func seedRun(t *testing.T, testDB *sql.DB, chatID string) *conversation.Run {
	t.Helper()

	repo := sqlite.NewRunRepository(testDB)
	ctx := context.Background()

	seq, err := repo.NextSequenceNumber(ctx, chatID)
	if err != nil {
		t.Fatalf("NextSequenceNumber failed: %v", err)
	}

	run := conversation.NewRun(chatID, "test-model", seq)
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("failed to seed run: %v", err)
	}

	return run
}
