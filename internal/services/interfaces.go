package services

import (
	"context"

	"github.com/mrlokans/notebridge/internal/entities"
	"github.com/mrlokans/notebridge/internal/immersionkit"
	"github.com/mrlokans/notebridge/internal/profiles"
)

// ProfileOpener opens the collection of another local profile.
// Use this interface when a service needs to read source notes.
type ProfileOpener interface {
	Open(name string) (*profiles.Collection, error)
	Profiles() ([]string, error)
}

// NoteFinder is the read side of a source collection used by search.
type NoteFinder interface {
	Decks(ctx context.Context) ([]entities.Deck, error)
	FindNotes(ctx context.Context, deck entities.Deck, query string) ([]int64, error)
	GetNote(ctx context.Context, id int64) (*entities.LocalNote, error)
}

// ExampleSearcher queries the remote sentence catalog.
type ExampleSearcher interface {
	Search(ctx context.Context, args immersionkit.SearchArgs) ([]immersionkit.Example, error)
}
