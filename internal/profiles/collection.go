package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mrlokans/notebridge/internal/entities"
)

const (
	collectionFile = "collection.db"
	mediaFolder    = "collection.media"
)

// Tables a collection file must have to be usable as an import source.
var requiredTables = []string{"col", "notetypes", "decks", "notes", "cards"}

var (
	// ErrNoteNotFound indicates the requested note does not exist in the source collection.
	ErrNoteNotFound = errors.New("note not found")

	// ErrCollectionNotFound indicates the profile directory has no collection file.
	ErrCollectionNotFound = errors.New("collection file not found")
)

// Collection is an open handle to another profile's collection.
type Collection struct {
	name string
	dir  string
	db   *sql.DB
}

// OpenCollection opens the collection stored in dir. The file is opened
// read-write because exported notes get tagged on the source side.
func OpenCollection(name, dir string) (*Collection, error) {
	path := filepath.Join(dir, collectionFile)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, path)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %q: %w", name, err)
	}

	if err := validateCollection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid collection %q: %w", name, err)
	}

	return &Collection{name: name, dir: dir, db: db}, nil
}

func validateCollection(db *sql.DB) error {
	for _, table := range requiredTables {
		var n int
		err := db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n)
		if err != nil {
			return fmt.Errorf("failed to inspect schema: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("missing table %s", table)
		}
	}
	return nil
}

func (c *Collection) Name() string {
	return c.name
}

// MediaDir is the folder holding files referenced by the collection's notes.
func (c *Collection) MediaDir() string {
	return filepath.Join(c.dir, mediaFolder)
}

func (c *Collection) Close() error {
	return c.db.Close()
}

// CreatedAt returns the collection creation time.
func (c *Collection) CreatedAt(ctx context.Context) (time.Time, error) {
	var crt int64
	if err := c.db.QueryRowContext(ctx, "SELECT crt FROM col LIMIT 1").Scan(&crt); err != nil {
		return time.Time{}, fmt.Errorf("failed to read creation time: %w", err)
	}
	return time.Unix(crt, 0), nil
}

// Decks lists the collection's decks sorted by name.
func (c *Collection) Decks(ctx context.Context) ([]entities.Deck, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT id, name FROM decks ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query decks: %w", err)
	}
	defer rows.Close()

	var decks []entities.Deck
	for rows.Next() {
		var d entities.Deck
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("failed to scan deck: %w", err)
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

// FindNotes returns IDs of notes in deck (and its subdecks) matching query.
// Pass a deck with ID entities.WholeCollectionID to search every deck.
func (c *Collection) FindNotes(ctx context.Context, deck entities.Deck, query string) ([]int64, error) {
	q := ParseQuery(query)
	if deck.ID != entities.WholeCollectionID {
		q.Decks = append(q.Decks, Term{Value: deck.Name})
	}

	where, args := q.SQL()
	stmt := "SELECT n.id FROM notes n"
	if where != "" {
		stmt += " WHERE " + where
	}
	stmt += " ORDER BY n.id"

	rows, err := c.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan note id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetNote loads a note with its schema and cards.
func (c *Collection) GetNote(ctx context.Context, id int64) (*entities.LocalNote, error) {
	if id <= 0 {
		return nil, fmt.Errorf("note id must be positive, got %d", id)
	}

	var (
		flds, tags          string
		mid                 int64
		typeName            string
		typeFlds, typeTmpls sql.NullString
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT n.flds, n.tags, n.mid, t.name, t.flds, t.tmpls
		FROM notes n
		JOIN notetypes t ON t.id = n.mid
		WHERE n.id = ?`, id).Scan(&flds, &tags, &mid, &typeName, &typeFlds, &typeTmpls)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNoteNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load note %d: %w", id, err)
	}

	schema := entities.SchemaDescriptor{
		ID:        mid,
		Name:      typeName,
		Fields:    entities.SplitFields(typeFlds.String),
		Templates: entities.SplitFields(typeTmpls.String),
	}

	values := strings.Split(flds, entities.FieldSeparator)
	fields := make([]entities.FieldValue, len(schema.Fields))
	for i, name := range schema.Fields {
		fields[i] = entities.FieldValue{Name: name}
		if i < len(values) {
			fields[i].Value = values[i]
		}
	}

	cards, err := c.cards(ctx, id)
	if err != nil {
		return nil, err
	}

	return &entities.LocalNote{
		ID:     id,
		Schema: schema,
		Fields: fields,
		Tags:   strings.Fields(tags),
		Cards:  cards,
	}, nil
}

func (c *Collection) cards(ctx context.Context, noteID int64) ([]entities.Card, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, nid, did, ord, mod, type, queue, due, ivl, factor, reps, "left", odue
		FROM cards WHERE nid = ? ORDER BY ord`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards of note %d: %w", noteID, err)
	}
	defer rows.Close()

	var cards []entities.Card
	for rows.Next() {
		var card entities.Card
		err := rows.Scan(
			&card.ID,
			&card.NoteID,
			&card.DeckID,
			&card.Ord,
			&card.Mod,
			&card.Type,
			&card.Queue,
			&card.Due,
			&card.Ivl,
			&card.Factor,
			&card.Reps,
			&card.Left,
			&card.ODue,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// AddTag adds a tag to a note unless it is already present.
func (c *Collection) AddTag(ctx context.Context, noteID int64, tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil
	}

	var tags string
	err := c.db.QueryRowContext(ctx, "SELECT tags FROM notes WHERE id = ?", noteID).Scan(&tags)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", ErrNoteNotFound, noteID)
	}
	if err != nil {
		return fmt.Errorf("failed to read tags of note %d: %w", noteID, err)
	}

	list := strings.Fields(tags)
	if slices.ContainsFunc(list, func(t string) bool { return strings.EqualFold(t, tag) }) {
		return nil
	}
	list = append(list, tag)

	_, err = c.db.ExecContext(ctx,
		"UPDATE notes SET tags = ?, mod = ? WHERE id = ?",
		entities.JoinTags(list), time.Now().Unix(), noteID)
	if err != nil {
		return fmt.Errorf("failed to tag note %d: %w", noteID, err)
	}
	return nil
}
