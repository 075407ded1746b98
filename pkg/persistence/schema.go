package persistence

import (
	"database/sql"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	bio TEXT NOT NULL DEFAULT '',
	directives TEXT NOT NULL DEFAULT '[]',
	location_id TEXT NOT NULL,
	last_checked_events TIMESTAMP,
	last_reflection TIMESTAMP,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS plans (
	id TEXT PRIMARY KEY,
	agent_id TEXT NOT NULL,
	description TEXT NOT NULL,
	location_id TEXT NOT NULL,
	max_duration_seconds INTEGER NOT NULL DEFAULT 0,
	stop_condition TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'TODO',
	scratchpad TEXT NOT NULL DEFAULT '[]',
	priority INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	completed_at TIMESTAMP,
	FOREIGN KEY (agent_id) REFERENCES agents(id)
);

CREATE TABLE IF NOT EXISTS memories (
	id TEXT PRIMARY KEY,
	agent_id TEXT NOT NULL,
	type TEXT NOT NULL,
	description TEXT NOT NULL,
	importance INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL,
	last_accessed TIMESTAMP NOT NULL,
	related_memory_ids TEXT NOT NULL DEFAULT '[]',
	FOREIGN KEY (agent_id) REFERENCES agents(id)
);

CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	subtype TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL,
	location_id TEXT NOT NULL,
	sender_id TEXT,
	recipient_id TEXT,
	witness_ids TEXT NOT NULL DEFAULT '[]',
	timestamp TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	author_id TEXT NOT NULL,
	title TEXT NOT NULL,
	normalized_title TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (normalized_title)
);

CREATE INDEX IF NOT EXISTS idx_plans_agent ON plans(agent_id, priority);
CREATE INDEX IF NOT EXISTS idx_memories_agent_created ON memories(agent_id, created_at);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
`

// createSchema ensures all tables and indexes exist. Idempotent.
func createSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
