package importers

import (
	"context"
	"time"

	"github.com/mrlokans/notebridge/internal/entities"
)

// SourceCollection is another local collection notes are copied from.
//
// Implementations:
//   - profiles.Collection (internal/profiles/collection.go)
type SourceCollection interface {
	Name() string
	Decks(ctx context.Context) ([]entities.Deck, error)
	FindNotes(ctx context.Context, deck entities.Deck, query string) ([]int64, error)
	GetNote(ctx context.Context, id int64) (*entities.LocalNote, error)
	MediaDir() string
	CreatedAt(ctx context.Context) (time.Time, error)
	// AddTag marks a source note; used to flag exported notes.
	AddTag(ctx context.Context, noteID int64, tag string) error
	Close() error
}

// Destination is the active collection notes are imported into.
//
// Implementations:
//   - database.Collection (internal/database/collection.go)
type Destination interface {
	// Key identifies the collection. Batches with the same key never overlap.
	Key() string

	Schemas(ctx context.Context) ([]entities.SchemaDescriptor, error)
	SchemaByID(ctx context.Context, id int64) (entities.SchemaDescriptor, bool, error)
	SchemaByName(ctx context.Context, name string) (entities.SchemaDescriptor, bool, error)
	CreateSchema(ctx context.Context, schema entities.SchemaDescriptor) (entities.SchemaDescriptor, error)

	CurrentDeckID(ctx context.Context) (int64, error)
	DeckByID(ctx context.Context, id int64) (entities.Deck, bool, error)

	// NotesByChecksum returns notes of a schema whose first-field checksum matches.
	NotesByChecksum(ctx context.Context, schemaID, csum int64) ([]entities.Note, error)

	// AddMediaFile stores bytes and returns the name they were stored under,
	// which differs from desiredName when another file already uses it.
	AddMediaFile(data []byte, desiredName string) (string, error)

	// InsertBatch persists the batch and its notes atomically.
	InsertBatch(ctx context.Context, batch *entities.ImportBatch, pending []entities.PendingNote) ([]int64, error)

	CreatedAt(ctx context.Context) (time.Time, error)
}

// MediaFetcher downloads remote media.
//
// Implementations:
//   - immersionkit.Client (internal/immersionkit/client.go)
type MediaFetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Notifier is told about every note a batch committed.
//
// Implementations:
//   - hooks.Webhook (internal/hooks/webhook.go)
//   - hooks.LogNotifier (internal/hooks/notifier.go)
//   - hooks.Multi (internal/hooks/notifier.go)
type Notifier interface {
	NoteAdded(ctx context.Context, note entities.InsertedNote)
}
