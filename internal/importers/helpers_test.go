package importers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrlokans/notebridge/internal/database"
	"github.com/mrlokans/notebridge/internal/entities"
	"github.com/mrlokans/notebridge/internal/profiles"
)

var destCreated = time.Date(2024, 1, 10, 4, 0, 0, 0, time.UTC)

// newDestination creates an empty active collection with the seeded Basic
// note type and Default deck.
func newDestination(t *testing.T) *database.Collection {
	t.Helper()
	col, err := database.OpenCollection(filepath.Join(t.TempDir(), "main"), false)
	require.NoError(t, err)
	t.Cleanup(func() { col.Close() })
	require.NoError(t, col.Database().SetCreatedAt(destCreated))
	return col
}

type sourceNote struct {
	fields []string
	tags   []string
	cards  []entities.Card
}

// newSource writes a collection with the given Basic notes and media files,
// then opens it the way another profile is opened.
func newSource(t *testing.T, created time.Time, notes []sourceNote, files map[string]string) (*profiles.Collection, []int64) {
	t.Helper()
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "other")

	writer, err := database.OpenCollection(dir, false)
	require.NoError(t, err)
	require.NoError(t, writer.Database().SetCreatedAt(created))

	basic, ok, err := writer.SchemaByName(ctx, "Basic")
	require.NoError(t, err)
	require.True(t, ok)

	var ids []int64
	if len(notes) > 0 {
		pending := make([]entities.PendingNote, len(notes))
		for i, n := range notes {
			cards := n.cards
			if cards == nil {
				cards = []entities.Card{{Ord: 0}}
			}
			pending[i] = entities.PendingNote{
				SchemaID: basic.ID,
				DeckID:   database.DefaultDeckID,
				Fields:   n.fields,
				Tags:     n.tags,
				Cards:    cards,
			}
		}
		ids, err = writer.InsertBatch(ctx, &entities.ImportBatch{Source: entities.ImportSourceLocal}, pending)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "collection.media", name), []byte(content), 0644))
	}

	src, err := profiles.OpenCollection("other", dir)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src, ids
}

func loadCandidates(t *testing.T, src *profiles.Collection, ids []int64) []entities.Candidate {
	t.Helper()
	candidates := make([]entities.Candidate, len(ids))
	for i, id := range ids {
		note, err := src.GetNote(context.Background(), id)
		require.NoError(t, err)
		candidates[i] = note
	}
	return candidates
}

// addExisting inserts a note straight into the destination.
func addExisting(t *testing.T, dest *database.Collection, schemaID int64, fields ...string) int64 {
	t.Helper()
	ids, err := dest.InsertBatch(context.Background(), &entities.ImportBatch{Source: entities.ImportSourceLocal}, []entities.PendingNote{{
		SchemaID: schemaID,
		DeckID:   database.DefaultDeckID,
		Fields:   fields,
		Cards:    []entities.Card{{Ord: 0}},
	}})
	require.NoError(t, err)
	return ids[0]
}

func basicSchema(t *testing.T, dest *database.Collection) entities.SchemaDescriptor {
	t.Helper()
	schema, ok, err := dest.SchemaByName(context.Background(), "Basic")
	require.NoError(t, err)
	require.True(t, ok)
	return schema
}

func sentenceSchema(t *testing.T, dest *database.Collection) entities.SchemaDescriptor {
	t.Helper()
	schema, err := dest.CreateSchema(context.Background(), entities.SchemaDescriptor{
		Name:      "Sentence",
		Fields:    []string{"SentKanji", "SentFurigana", "SentEng", "SentAudio", "Image", "Notes"},
		Templates: []string{"Recognition"},
	})
	require.NoError(t, err)
	return schema
}

type fakeFetcher struct {
	mu    sync.Mutex
	files map[string][]byte
	calls []string
}

func (f *fakeFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)

	data, ok := f.files[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return data, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []entities.InsertedNote
}

func (r *recordingNotifier) NoteAdded(ctx context.Context, note entities.InsertedNote) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note)
}

func countNotes(t *testing.T, dest *database.Collection) int64 {
	t.Helper()
	n, err := dest.Notes().Count(context.Background())
	require.NoError(t, err)
	return n
}

func fieldOf(note entities.InsertedNote, name string) string {
	for _, f := range note.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}
