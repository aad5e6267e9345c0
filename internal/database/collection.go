package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/notebridge/internal/database/decks"
	"github.com/mrlokans/notebridge/internal/database/notes"
	"github.com/mrlokans/notebridge/internal/database/notetypes"
	"github.com/mrlokans/notebridge/internal/entities"
	"github.com/mrlokans/notebridge/internal/media"
)

// Collection is the destination store: the database plus its media folder.
type Collection struct {
	db        *Database
	media     *media.Store
	notetypes *notetypes.Repository
	decks     *decks.Repository
	notes     *notes.Repository
}

// NewCollection wraps an open database and its media directory.
func NewCollection(db *Database, mediaDir string) (*Collection, error) {
	store, err := media.NewStore(mediaDir)
	if err != nil {
		return nil, err
	}

	return &Collection{
		db:        db,
		media:     store,
		notetypes: notetypes.NewRepository(db.DB),
		decks:     decks.NewRepository(db.DB),
		notes:     notes.NewRepository(db.DB),
	}, nil
}

// OpenCollection opens <dir>/collection.db with its collection.media folder,
// creating the profile directory when it does not exist yet.
func OpenCollection(dir string, verbose bool) (*Collection, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	db, err := NewDatabase(filepath.Join(dir, "collection.db"), verbose)
	if err != nil {
		return nil, err
	}

	col, err := NewCollection(db, filepath.Join(dir, "collection.media"))
	if err != nil {
		db.Close()
		return nil, err
	}
	return col, nil
}

// Key identifies the collection; imports into the same key are serialized.
func (c *Collection) Key() string {
	return c.db.Path()
}

func (c *Collection) Database() *Database {
	return c.db
}

func (c *Collection) Media() *media.Store {
	return c.media
}

func (c *Collection) Notes() *notes.Repository {
	return c.notes
}

func (c *Collection) Decks(ctx context.Context) ([]entities.Deck, error) {
	return c.decks.All(ctx)
}

func (c *Collection) DeckByID(ctx context.Context, id int64) (entities.Deck, bool, error) {
	return c.decks.ByID(ctx, id)
}

// CurrentDeckID returns the deck new notes go to by default.
func (c *Collection) CurrentDeckID(ctx context.Context) (int64, error) {
	info, err := c.db.Info()
	if err != nil {
		return 0, fmt.Errorf("read collection header: %w", err)
	}
	if info.CurDeck == 0 {
		return DefaultDeckID, nil
	}
	return info.CurDeck, nil
}

func (c *Collection) Schemas(ctx context.Context) ([]entities.SchemaDescriptor, error) {
	return c.notetypes.All(ctx)
}

func (c *Collection) SchemaByID(ctx context.Context, id int64) (entities.SchemaDescriptor, bool, error) {
	return c.notetypes.ByID(ctx, id)
}

func (c *Collection) SchemaByName(ctx context.Context, name string) (entities.SchemaDescriptor, bool, error) {
	return c.notetypes.ByName(ctx, name)
}

func (c *Collection) CreateSchema(ctx context.Context, schema entities.SchemaDescriptor) (entities.SchemaDescriptor, error) {
	return c.notetypes.Create(ctx, schema)
}

func (c *Collection) NotesByChecksum(ctx context.Context, schemaID, csum int64) ([]entities.Note, error) {
	return c.notes.ByChecksum(ctx, schemaID, csum)
}

// AddMediaFile stores bytes in the media folder and returns the final name.
func (c *Collection) AddMediaFile(data []byte, desiredName string) (string, error) {
	return c.media.AddFile(data, desiredName)
}

func (c *Collection) InsertBatch(ctx context.Context, batch *entities.ImportBatch, pending []entities.PendingNote) ([]int64, error) {
	return c.notes.InsertBatch(ctx, batch, pending)
}

// UndoBatch reverts a committed import.
func (c *Collection) UndoBatch(ctx context.Context, batchID string) (int64, error) {
	return c.notes.UndoBatch(ctx, batchID)
}

func (c *Collection) CreatedAt(ctx context.Context) (time.Time, error) {
	info, err := c.db.Info()
	if err != nil {
		return time.Time{}, fmt.Errorf("read collection header: %w", err)
	}
	return info.CreatedAt(), nil
}

func (c *Collection) Close() error {
	return c.db.Close()
}
