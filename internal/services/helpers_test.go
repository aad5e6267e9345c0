package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrlokans/notebridge/internal/database"
	"github.com/mrlokans/notebridge/internal/database/decks"
	"github.com/mrlokans/notebridge/internal/entities"
	"github.com/mrlokans/notebridge/internal/profiles"
)

type seed struct {
	deck   string
	fields []string
	tags   []string
}

// newProfiles lays out a profiles directory with an active "main" profile
// and a source profile "other" holding the seeded Basic notes.
func newProfiles(t *testing.T, notes []seed) (*profiles.Manager, *database.Collection, []int64) {
	t.Helper()
	ctx := context.Background()
	base := t.TempDir()

	dest, err := database.OpenCollection(filepath.Join(base, "main"), false)
	require.NoError(t, err)
	t.Cleanup(func() { dest.Close() })

	src, err := database.OpenCollection(filepath.Join(base, "other"), false)
	require.NoError(t, err)
	basic, ok, err := src.SchemaByName(ctx, "Basic")
	require.NoError(t, err)
	require.True(t, ok)

	deckRepo := decks.NewRepository(src.Database().DB)
	pending := make([]entities.PendingNote, len(notes))
	for i, n := range notes {
		deckID := database.DefaultDeckID
		if n.deck != "" {
			d, err := deckRepo.GetOrCreate(ctx, n.deck)
			require.NoError(t, err)
			deckID = d.ID
		}
		pending[i] = entities.PendingNote{
			SchemaID: basic.ID,
			DeckID:   deckID,
			Fields:   n.fields,
			Tags:     n.tags,
			Cards:    []entities.Card{{Ord: 0}},
		}
	}

	var ids []int64
	if len(pending) > 0 {
		ids, err = src.InsertBatch(ctx, &entities.ImportBatch{Source: entities.ImportSourceLocal}, pending)
		require.NoError(t, err)
	}
	require.NoError(t, src.Close())

	m := profiles.NewManager(base, "main")
	t.Cleanup(func() { m.CloseAll() })
	return m, dest, ids
}
