package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpsertAgent inserts or updates an agent row.
func (s *Store) UpsertAgent(a *AgentRow) error {
	query := `
		INSERT INTO agents (id, full_name, bio, directives, location_id, last_checked_events, last_reflection, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			bio = excluded.bio,
			directives = excluded.directives,
			location_id = excluded.location_id,
			last_checked_events = excluded.last_checked_events,
			last_reflection = excluded.last_reflection
	`
	_, err := s.db.Exec(query,
		a.ID, a.FullName, a.Bio, a.Directives, a.LocationID,
		a.LastCheckedEvents, a.LastReflection, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert agent %s: %w", a.ID, err)
	}
	return nil
}

// GetAgent fetches one agent row; returns (nil, nil) when absent.
func (s *Store) GetAgent(id string) (*AgentRow, error) {
	query := `
		SELECT id, full_name, bio, directives, location_id, last_checked_events, last_reflection, created_at
		FROM agents WHERE id = ?
	`
	var a AgentRow
	err := s.db.QueryRow(query, id).Scan(
		&a.ID, &a.FullName, &a.Bio, &a.Directives, &a.LocationID,
		&a.LastCheckedEvents, &a.LastReflection, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent %s: %w", id, err)
	}
	return &a, nil
}

// GetAgentByName fetches one agent row by full name; returns (nil, nil)
// when absent. Used at startup to resume a seeded agent from a prior run.
func (s *Store) GetAgentByName(fullName string) (*AgentRow, error) {
	query := `
		SELECT id, full_name, bio, directives, location_id, last_checked_events, last_reflection, created_at
		FROM agents WHERE full_name = ?
	`
	var a AgentRow
	err := s.db.QueryRow(query, fullName).Scan(
		&a.ID, &a.FullName, &a.Bio, &a.Directives, &a.LocationID,
		&a.LastCheckedEvents, &a.LastReflection, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent %q: %w", fullName, err)
	}
	return &a, nil
}

// UpsertPlans replaces an agent's plan queue in one transaction. Row order
// is the priority order: plans[0] gets priority 0 and runs first. Plans not
// in the new queue are deleted unless already terminal.
func (s *Store) UpsertPlans(agentID string, plans []*PlanRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin plan upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	keep := make([]string, 0, len(plans))
	for i, p := range plans {
		p.Priority = i
		keep = append(keep, p.ID)

		query := `
			INSERT INTO plans (id, agent_id, description, location_id, max_duration_seconds,
				stop_condition, status, scratchpad, priority, created_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				description = excluded.description,
				location_id = excluded.location_id,
				max_duration_seconds = excluded.max_duration_seconds,
				stop_condition = excluded.stop_condition,
				status = excluded.status,
				scratchpad = excluded.scratchpad,
				priority = excluded.priority,
				completed_at = excluded.completed_at
		`
		if _, err := tx.Exec(query,
			p.ID, p.AgentID, p.Description, p.LocationID, p.MaxDurationSeconds,
			p.StopCondition, p.Status, p.Scratchpad, p.Priority, p.CreatedAt, p.CompletedAt,
		); err != nil {
			return fmt.Errorf("failed to upsert plan %s: %w", p.ID, err)
		}
	}

	// Drop abandoned pending plans; terminal rows stay as history.
	delQuery := `DELETE FROM plans WHERE agent_id = ? AND status IN ('TODO', 'IN_PROGRESS')`
	args := []any{agentID}
	if len(keep) > 0 {
		delQuery += ` AND id NOT IN (?` + strings.Repeat(",?", len(keep)-1) + `)`
		for _, id := range keep {
			args = append(args, id)
		}
	}
	if _, err := tx.Exec(delQuery, args...); err != nil {
		return fmt.Errorf("failed to prune plans for agent %s: %w", agentID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plan upsert: %w", err)
	}
	return nil
}

// GetPendingPlans returns an agent's TODO and IN_PROGRESS plans in priority
// order.
func (s *Store) GetPendingPlans(agentID string) ([]*PlanRow, error) {
	query := `
		SELECT id, agent_id, description, location_id, max_duration_seconds,
			stop_condition, status, scratchpad, priority, created_at, completed_at
		FROM plans
		WHERE agent_id = ? AND status IN ('TODO', 'IN_PROGRESS')
		ORDER BY priority ASC
	`
	rows, err := s.db.Query(query, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans for agent %s: %w", agentID, err)
	}
	defer rows.Close()

	var plans []*PlanRow
	for rows.Next() {
		var p PlanRow
		if err := rows.Scan(
			&p.ID, &p.AgentID, &p.Description, &p.LocationID, &p.MaxDurationSeconds,
			&p.StopCondition, &p.Status, &p.Scratchpad, &p.Priority, &p.CreatedAt, &p.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		plans = append(plans, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan rows: %w", err)
	}
	return plans, nil
}

// InsertMemory appends one memory row.
func (s *Store) InsertMemory(m *MemoryRow) error {
	query := `
		INSERT INTO memories (id, agent_id, type, description, importance, created_at, last_accessed, related_memory_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		m.ID, m.AgentID, m.Type, m.Description, m.Importance,
		m.CreatedAt, m.LastAccessed, m.RelatedMemoryIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert memory %s: %w", m.ID, err)
	}
	return nil
}

// MemoriesSince returns an agent's memories created strictly after t, oldest
// first.
func (s *Store) MemoriesSince(agentID string, t time.Time) ([]*MemoryRow, error) {
	query := `
		SELECT id, agent_id, type, description, importance, created_at, last_accessed, related_memory_ids
		FROM memories
		WHERE agent_id = ? AND created_at > ?
		ORDER BY created_at ASC
	`
	rows, err := s.db.Query(query, agentID, t)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories for agent %s: %w", agentID, err)
	}
	defer rows.Close()

	var memories []*MemoryRow
	for rows.Next() {
		var m MemoryRow
		if err := rows.Scan(
			&m.ID, &m.AgentID, &m.Type, &m.Description, &m.Importance,
			&m.CreatedAt, &m.LastAccessed, &m.RelatedMemoryIDs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan memory row: %w", err)
		}
		memories = append(memories, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memory rows: %w", err)
	}
	return memories, nil
}

// InsertEvent appends one event row.
func (s *Store) InsertEvent(e *EventRow) error {
	query := `
		INSERT INTO events (id, type, subtype, description, location_id, sender_id, recipient_id, witness_ids, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		e.ID, e.Type, e.Subtype, e.Description, e.LocationID,
		e.SenderID, e.RecipientID, e.WitnessIDs, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", e.ID, err)
	}
	return nil
}

// EventsSince returns events with timestamp strictly after t, oldest first.
func (s *Store) EventsSince(t time.Time) ([]*EventRow, error) {
	query := `
		SELECT id, type, subtype, description, location_id, sender_id, recipient_id, witness_ids, timestamp
		FROM events
		WHERE timestamp > ?
		ORDER BY timestamp ASC
	`
	rows, err := s.db.Query(query, t)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(
			&e.ID, &e.Type, &e.Subtype, &e.Description, &e.LocationID,
			&e.SenderID, &e.RecipientID, &e.WitnessIDs, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}
	return events, nil
}

// SaveDocument inserts or overwrites a document by normalized title.
func (s *Store) SaveDocument(d *DocumentRow) error {
	d.NormalizedTitle = NormalizeTitle(d.Title)
	query := `
		INSERT INTO documents (id, author_id, title, normalized_title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(normalized_title) DO UPDATE SET
			author_id = excluded.author_id,
			title = excluded.title,
			content = excluded.content,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	_, err := s.db.Exec(query, d.ID, d.AuthorID, d.Title, d.NormalizedTitle, d.Content, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save document %q: %w", d.Title, err)
	}
	return nil
}

// GetDocument fetches a document by title; returns (nil, nil) when absent.
func (s *Store) GetDocument(title string) (*DocumentRow, error) {
	query := `
		SELECT id, author_id, title, normalized_title, content, created_at, updated_at
		FROM documents WHERE normalized_title = ?
	`
	var d DocumentRow
	err := s.db.QueryRow(query, NormalizeTitle(title)).Scan(
		&d.ID, &d.AuthorID, &d.Title, &d.NormalizedTitle, &d.Content, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %q: %w", title, err)
	}
	return &d, nil
}

// SearchDocuments returns documents whose title or content contains the
// query text, newest first.
func (s *Store) SearchDocuments(text string, limit int) ([]*DocumentRow, error) {
	query := `
		SELECT id, author_id, title, normalized_title, content, created_at, updated_at
		FROM documents
		WHERE title LIKE ? OR content LIKE ?
		ORDER BY updated_at DESC
		LIMIT ?
	`
	pattern := "%" + text + "%"
	rows, err := s.db.Query(query, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	var docs []*DocumentRow
	for rows.Next() {
		var d DocumentRow
		if err := rows.Scan(
			&d.ID, &d.AuthorID, &d.Title, &d.NormalizedTitle, &d.Content, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate document rows: %w", err)
	}
	return docs, nil
}

// NormalizeTitle lowercases and collapses whitespace so title lookups are
// forgiving about formatting.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}
