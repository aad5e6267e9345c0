package entities

import "time"

type ImportSource string

const (
	ImportSourceLocal  ImportSource = "local"
	ImportSourceRemote ImportSource = "remote"
)

// ImportBatch records one committed import. Notes and cards inserted by the
// batch carry its ID so the whole batch can be undone as a unit.
type ImportBatch struct {
	ID         string       `gorm:"primaryKey;size:36" json:"id"`
	Source     ImportSource `gorm:"size:20" json:"source"`
	Profile    string       `gorm:"size:255" json:"profile,omitempty"`
	DeckID     int64        `json:"deck_id"`
	SchemaID   int64        `json:"schema_id"`
	Successes  int          `json:"successes"`
	Duplicates int          `json:"duplicates"`
	Errors     int          `json:"errors"`
	CreatedAt  time.Time    `gorm:"index" json:"created_at"`
	UndoneAt   *time.Time   `json:"undone_at,omitempty"`
}

func (ImportBatch) TableName() string {
	return "import_batches"
}

// PendingNote is a fully constructed note waiting for the batch commit.
// IDs are assigned on insert.
type PendingNote struct {
	SchemaID int64
	DeckID   int64
	Fields   []string
	Tags     []string
	Cards    []Card
}

// InsertedNote describes a note committed by an import batch. It is what
// post-commit listeners receive.
type InsertedNote struct {
	ID           int64        `json:"id"`
	BatchID      string       `json:"batch_id"`
	SchemaID     int64        `json:"schema_id"`
	DeckID       int64        `json:"deck_id"`
	Fields       []FieldValue `json:"fields"`
	Tags         []string     `json:"tags"`
	Media        []MediaAsset `json:"media,omitempty"`
	SourceNoteID int64        `json:"source_note_id,omitempty"`
	ExampleID    string       `json:"example_id,omitempty"`
}
