package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/notebridge/internal/entities"
	"github.com/mrlokans/notebridge/internal/immersionkit"
	"github.com/mrlokans/notebridge/internal/profiles"
	"github.com/mrlokans/notebridge/internal/utils"
)

var (
	// ErrEmptyQuery is returned for a blank search when empty searches are not allowed.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrUnknownDeck indicates the requested source deck does not exist.
	ErrUnknownDeck = errors.New("deck not found in source collection")
)

// SearchSettings control how search results are filtered and presented.
type SearchSettings struct {
	AllowEmpty        bool
	MaxResults        int
	SentenceField     string
	SentenceMinLength int
	SentenceMaxLength int
	// HiddenFields hides every field whose name contains one of these
	// words, case-insensitively.
	HiddenFields []string
}

// NoteView is a search hit as shown to the user.
type NoteView struct {
	ID         int64                 `json:"id"`
	SchemaID   int64                 `json:"schema_id"`
	SchemaName string                `json:"schema_name"`
	Fields     []entities.FieldValue `json:"fields"`
	Tags       []string              `json:"tags"`
	// Preview is the visible non-empty fields as plain text joined by " | ".
	Preview string `json:"preview"`
}

// LocalSearchRequest searches another profile's collection.
// An empty Deck searches the whole collection.
type LocalSearchRequest struct {
	Deck  string
	Query string
	Sort  profiles.SortOrder
}

type LocalSearchResult struct {
	// Total is the number of matches before the display cap.
	Total int        `json:"total"`
	Notes []NoteView `json:"notes"`
}

type RemoteSearchResult struct {
	Total    int                    `json:"total"`
	Examples []immersionkit.Example `json:"examples"`
	Notes    []*entities.RemoteNote `json:"notes"`
}

// SearchService finds notes in other local collections and in the remote catalog.
type SearchService struct {
	settings SearchSettings
	remote   ExampleSearcher
	mapping  entities.RemoteFieldMapping
}

func NewSearchService(settings SearchSettings, remote ExampleSearcher, mapping entities.RemoteFieldMapping) *SearchService {
	return &SearchService{
		settings: settings,
		remote:   remote,
		mapping:  mapping,
	}
}

func (s *SearchService) Settings() SearchSettings {
	return s.settings
}

// ResolveDeck maps a deck name onto a source deck. The empty name selects
// the whole collection.
func (s *SearchService) ResolveDeck(ctx context.Context, src NoteFinder, name string) (entities.Deck, error) {
	if name == "" {
		return entities.Deck{ID: entities.WholeCollectionID}, nil
	}

	decks, err := src.Decks(ctx)
	if err != nil {
		return entities.Deck{}, err
	}
	for _, d := range decks {
		if d.Name == name {
			return d, nil
		}
	}
	return entities.Deck{}, fmt.Errorf("%w: %s", ErrUnknownDeck, name)
}

// LocalSearch runs a query against a source collection and returns at most
// MaxResults notes.
func (s *SearchService) LocalSearch(ctx context.Context, src NoteFinder, req LocalSearchRequest) (*LocalSearchResult, error) {
	if strings.TrimSpace(req.Query) == "" && !s.settings.AllowEmpty {
		return nil, ErrEmptyQuery
	}

	deck, err := s.ResolveDeck(ctx, src, req.Deck)
	if err != nil {
		return nil, err
	}

	ids, err := src.FindNotes(ctx, deck, req.Query)
	if err != nil {
		return nil, err
	}

	notes := make([]*entities.LocalNote, 0, len(ids))
	for _, id := range ids {
		note, err := src.GetNote(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load note %d: %w", id, err)
		}
		notes = append(notes, note)
	}

	// Sorting happens before the cap so the shortest sentences survive it.
	profiles.SortNotes(notes, req.Sort, s.settings.SentenceField)
	notes = capped(notes, s.settings.MaxResults)

	result := &LocalSearchResult{Total: len(ids), Notes: make([]NoteView, len(notes))}
	for i, n := range notes {
		result.Notes[i] = NoteView{
			ID:         n.ID,
			SchemaID:   n.Schema.ID,
			SchemaName: n.Schema.Name,
			Fields:     s.visible(n.Fields),
			Tags:       n.Tags,
		}
		result.Notes[i].Preview = preview(result.Notes[i].Fields)
	}
	return result, nil
}

// RemoteSearch queries the catalog and maps every example onto the
// configured field names. Results outside the sentence length bounds are dropped.
func (s *SearchService) RemoteSearch(ctx context.Context, args immersionkit.SearchArgs) (*RemoteSearchResult, error) {
	if strings.TrimSpace(args.Query) == "" {
		return nil, ErrEmptyQuery
	}
	if s.remote == nil {
		return nil, errors.New("remote search is not configured")
	}

	examples, err := s.remote.Search(ctx, args)
	if err != nil {
		return nil, err
	}

	filtered := examples[:0]
	for _, e := range examples {
		if s.lengthAllowed(e.Sentence) {
			filtered = append(filtered, e)
		}
	}
	total := len(filtered)
	filtered = capped(filtered, s.settings.MaxResults)

	return &RemoteSearchResult{
		Total:    total,
		Examples: filtered,
		Notes:    immersionkit.ToNotes(filtered, s.mapping),
	}, nil
}

func (s *SearchService) lengthAllowed(sentence string) bool {
	n := utf8.RuneCountInString(sentence)
	if s.settings.SentenceMinLength > 0 && n < s.settings.SentenceMinLength {
		return false
	}
	if s.settings.SentenceMaxLength > 0 && n > s.settings.SentenceMaxLength {
		return false
	}
	return true
}

func (s *SearchService) visible(fields []entities.FieldValue) []entities.FieldValue {
	out := make([]entities.FieldValue, 0, len(fields))
	for _, f := range fields {
		if !s.hidden(f.Name) {
			out = append(out, f)
		}
	}
	return out
}

func (s *SearchService) hidden(name string) bool {
	name = strings.ToLower(name)
	for _, h := range s.settings.HiddenFields {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" && strings.Contains(name, h) {
			return true
		}
	}
	return false
}

func preview(fields []entities.FieldValue) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if text := utils.StripHTML(f.Value); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " | ")
}

func capped[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
