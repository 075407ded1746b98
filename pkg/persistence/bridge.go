package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"simworld/pkg/world"
)

// DocumentBridge adapts the Store's document table to the narrower surface
// the document tools expect.
type DocumentBridge struct {
	store *Store
}

// NewDocumentBridge wraps a Store for use by the document tools.
func NewDocumentBridge(store *Store) *DocumentBridge {
	return &DocumentBridge{store: store}
}

// SaveDocument upserts a document, keyed by normalized title.
func (b *DocumentBridge) SaveDocument(authorID uuid.UUID, title, content string) error {
	return b.store.SaveDocument(&DocumentRow{
		ID:       uuid.New().String(),
		AuthorID: authorID.String(),
		Title:    title,
		Content:  content,
	})
}

// GetDocument returns the content of a document by title.
func (b *DocumentBridge) GetDocument(title string) (string, bool, error) {
	d, err := b.store.GetDocument(title)
	if err != nil {
		return "", false, err
	}
	if d == nil {
		return "", false, nil
	}
	return d.Content, true, nil
}

// SearchDocuments returns matching documents as "title: excerpt" lines.
func (b *DocumentBridge) SearchDocuments(query string, limit int) ([]string, error) {
	docs, err := b.store.SearchDocuments(query, limit)
	if err != nil {
		return nil, err
	}
	results := make([]string, 0, len(docs))
	for _, d := range docs {
		results = append(results, fmt.Sprintf("%s: %s", d.Title, excerpt(d.Content, 200)))
	}
	return results, nil
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// EventArchiver mirrors world events into the events table. It implements
// world.Archiver alongside the JSONL file archive, so a crashed run can be
// replayed from the database.
type EventArchiver struct {
	store *Store
}

// NewEventArchiver wraps a Store as an event archive sink.
func NewEventArchiver(store *Store) *EventArchiver {
	return &EventArchiver{store: store}
}

// WriteEvent inserts one event row.
func (a *EventArchiver) WriteEvent(e *world.Event) error {
	witnesses, err := json.Marshal(e.WitnessIDs)
	if err != nil {
		witnesses = []byte("[]")
	}
	row := &EventRow{
		ID:          e.ID.String(),
		Type:        string(e.Type),
		Subtype:     string(e.Subtype),
		Description: e.Description,
		LocationID:  e.LocationID.String(),
		WitnessIDs:  string(witnesses),
		Timestamp:   e.Timestamp,
	}
	if e.SenderID != nil {
		row.SenderID.String, row.SenderID.Valid = e.SenderID.String(), true
	}
	if e.RecipientID != nil {
		row.RecipientID.String, row.RecipientID.Valid = e.RecipientID.String(), true
	}
	return a.store.InsertEvent(row)
}
