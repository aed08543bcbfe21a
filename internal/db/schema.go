package db

import "fmt"

// SchemaSQL is the complete schema for fresh acode installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(); repository tests must never hardcode
// CREATE TABLE statements, so drift between test and production schemas
// fails immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in internal/db/migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Worktree-to-chat bindings (one-to-one, enforced by PK + UNIQUE)
CREATE TABLE IF NOT EXISTS worktree_bindings (
	worktree_id TEXT PRIMARY KEY,
	chat_id TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL
);

-- Conversation sessions
CREATE TABLE IF NOT EXISTS chats (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	worktree_id TEXT,
	is_deleted INTEGER NOT NULL DEFAULT 0,
	deleted_at TEXT,
	sync_status TEXT NOT NULL CHECK(sync_status IN ('pending', 'synced', 'conflict')) DEFAULT 'pending',
	version INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chats_worktree ON chats(worktree_id);

-- Inference runs within a chat
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	chat_id TEXT NOT NULL,
	model_id TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('running', 'completed', 'failed', 'cancelled')) DEFAULT 'running',
	started_at TEXT NOT NULL,
	completed_at TEXT,
	tokens_in INTEGER NOT NULL DEFAULT 0,
	tokens_out INTEGER NOT NULL DEFAULT 0,
	sequence_number INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	sync_status TEXT NOT NULL CHECK(sync_status IN ('pending', 'synced', 'conflict')) DEFAULT 'pending',
	version INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (chat_id) REFERENCES chats(id)
);

CREATE INDEX IF NOT EXISTS idx_runs_chat ON runs(chat_id);

-- Messages within a run
CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	chat_id TEXT NOT NULL,
	role TEXT NOT NULL CHECK(role IN ('system', 'user', 'assistant', 'tool')),
	content TEXT NOT NULL,
	sequence_number INTEGER NOT NULL DEFAULT 0,
	sync_status TEXT NOT NULL CHECK(sync_status IN ('pending', 'synced', 'conflict')) DEFAULT 'pending',
	version INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(id),
	FOREIGN KEY (chat_id) REFERENCES chats(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_run ON messages(run_id);

-- Outbox of state changes awaiting remote delivery
CREATE TABLE IF NOT EXISTS outbox (
	id TEXT PRIMARY KEY,
	idempotency_key TEXT NOT NULL UNIQUE,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	operation TEXT NOT NULL,
	payload TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('pending', 'processing', 'completed', 'failed')) DEFAULT 'pending',
	retry_count INTEGER NOT NULL DEFAULT 0,
	next_retry_at TEXT,
	processing_started_at TEXT,
	completed_at TEXT,
	created_at TEXT NOT NULL,
	last_error TEXT
);

CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(status, next_retry_at);
`

// InitSchema creates the database schema
func InitSchema() error {
	database, err := GetDB()
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}

	if _, err := database.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return RunMigrations()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
func GetSchemaSQL() string {
	return SchemaSQL
}
