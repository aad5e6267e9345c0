package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/notebridge/internal/entities"
	"github.com/mrlokans/notebridge/internal/immersionkit"
	"github.com/mrlokans/notebridge/internal/profiles"
)

var animals = []seed{
	{deck: "Japanese", fields: []string{"大きい犬", "big dog"}, tags: []string{"animals"}},
	{deck: "Japanese::Vocab", fields: []string{"犬", "<b>dog</b>"}, tags: []string{"animals"}},
	{deck: "French", fields: []string{"chien", "dog"}},
	{deck: "Japanese", fields: []string{"猫", "cat"}},
}

func openOther(t *testing.T, m *profiles.Manager) *profiles.Collection {
	t.Helper()
	src, err := m.Open("other")
	require.NoError(t, err)
	return src
}

func TestSearchService_LocalSearch(t *testing.T) {
	m, _, ids := newProfiles(t, animals)
	src := openOther(t, m)
	ctx := context.Background()

	s := NewSearchService(SearchSettings{
		MaxResults:    10,
		SentenceField: "Front",
	}, nil, entities.DefaultRemoteFieldMapping())

	t.Run("whole collection", func(t *testing.T) {
		res, err := s.LocalSearch(ctx, src, LocalSearchRequest{Query: "dog"})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		assert.Len(t, res.Notes, 3)
	})

	t.Run("deck includes subdecks", func(t *testing.T) {
		res, err := s.LocalSearch(ctx, src, LocalSearchRequest{Deck: "Japanese", Query: "犬", Sort: profiles.SortSentenceLength})
		require.NoError(t, err)
		require.Len(t, res.Notes, 2)
		assert.Equal(t, ids[1], res.Notes[0].ID)
		assert.Equal(t, ids[0], res.Notes[1].ID)
		assert.Equal(t, "Basic", res.Notes[0].SchemaName)
		assert.Equal(t, "犬 | dog", res.Notes[0].Preview)
	})

	t.Run("unknown deck", func(t *testing.T) {
		_, err := s.LocalSearch(ctx, src, LocalSearchRequest{Deck: "Spanish", Query: "dog"})
		assert.ErrorIs(t, err, ErrUnknownDeck)
	})

	t.Run("empty query rejected", func(t *testing.T) {
		_, err := s.LocalSearch(ctx, src, LocalSearchRequest{Query: "   "})
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})
}

func TestSearchService_LocalSearchCapsAndHides(t *testing.T) {
	m, _, ids := newProfiles(t, animals)
	src := openOther(t, m)

	s := NewSearchService(SearchSettings{
		AllowEmpty:    true,
		MaxResults:    2,
		SentenceField: "Front",
		HiddenFields:  []string{"BACK"},
	}, nil, entities.DefaultRemoteFieldMapping())

	res, err := s.LocalSearch(context.Background(), src, LocalSearchRequest{Sort: profiles.SortNoteID})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Total)
	require.Len(t, res.Notes, 2)
	assert.Equal(t, ids[0], res.Notes[0].ID)
	assert.Equal(t, ids[1], res.Notes[1].ID)
	for _, n := range res.Notes {
		require.Len(t, n.Fields, 1)
		assert.Equal(t, "Front", n.Fields[0].Name)
	}
}

type fakeSearcher struct {
	examples []immersionkit.Example
	err      error
	args     immersionkit.SearchArgs
}

func (f *fakeSearcher) Search(ctx context.Context, args immersionkit.SearchArgs) ([]immersionkit.Example, error) {
	f.args = args
	return f.examples, f.err
}

func TestSearchService_RemoteSearch(t *testing.T) {
	ctx := context.Background()
	searcher := &fakeSearcher{examples: []immersionkit.Example{
		{ID: "a", Sentence: "元気", Title: "Lucky Star"},
		{ID: "b", Sentence: "元気です", Title: "K-On"},
		{ID: "c", Sentence: "とても元気です", Title: "K-On"},
		{ID: "d", Sentence: "元気だ", Title: "Clannad"},
	}}

	s := NewSearchService(SearchSettings{
		MaxResults:        2,
		SentenceMinLength: 3,
		SentenceMaxLength: 6,
	}, searcher, entities.RemoteFieldMapping{SentenceKanji: "Expression"})

	res, err := s.RemoteSearch(ctx, immersionkit.SearchArgs{Query: "元気", Category: "anime"})
	require.NoError(t, err)

	assert.Equal(t, "anime", searcher.args.Category)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Examples, 2)
	assert.Equal(t, "b", res.Examples[0].ID)
	assert.Equal(t, "d", res.Examples[1].ID)

	require.Len(t, res.Notes, 2)
	expr, ok := res.Notes[0].Field("Expression")
	require.True(t, ok)
	assert.Equal(t, "元気です", expr)
	assert.Equal(t, []string{"K-On"}, res.Notes[0].Tags)
}

func TestSearchService_RemoteSearchErrors(t *testing.T) {
	ctx := context.Background()
	mapping := entities.DefaultRemoteFieldMapping()

	_, err := NewSearchService(SearchSettings{AllowEmpty: true}, &fakeSearcher{}, mapping).
		RemoteSearch(ctx, immersionkit.SearchArgs{})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = NewSearchService(SearchSettings{}, nil, mapping).
		RemoteSearch(ctx, immersionkit.SearchArgs{Query: "x"})
	assert.Error(t, err)

	_, err = NewSearchService(SearchSettings{}, &fakeSearcher{err: immersionkit.ErrRateLimited}, mapping).
		RemoteSearch(ctx, immersionkit.SearchArgs{Query: "x"})
	assert.True(t, errors.Is(err, immersionkit.ErrRateLimited))
}
