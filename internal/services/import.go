package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrlokans/notebridge/internal/entities"
	"github.com/mrlokans/notebridge/internal/immersionkit"
	"github.com/mrlokans/notebridge/internal/importers"
)

// ErrNoNotesSelected is returned when an import request names no notes.
var ErrNoNotesSelected = errors.New("no notes selected for import")

// LocalImportRequest imports notes from another profile by ID.
type LocalImportRequest struct {
	Profile  string  `json:"profile"`
	NoteIDs  []int64 `json:"note_ids"`
	SchemaID int64   `json:"schema_id"`
	DeckID   int64   `json:"deck_id"`
}

// RemoteImportRequest imports catalog examples.
type RemoteImportRequest struct {
	Examples []immersionkit.Example `json:"examples"`
	SchemaID int64                  `json:"schema_id"`
	DeckID   int64                  `json:"deck_id"`
}

// ImportService turns user requests into importer batches against the
// active collection.
type ImportService struct {
	importer *importers.Importer
	dest     importers.Destination
	profiles ProfileOpener
	mapping  entities.RemoteFieldMapping
}

func NewImportService(importer *importers.Importer, dest importers.Destination, profiles ProfileOpener, mapping entities.RemoteFieldMapping) *ImportService {
	return &ImportService{
		importer: importer,
		dest:     dest,
		profiles: profiles,
		mapping:  mapping,
	}
}

// ImportLocal loads the selected notes from the profile and imports them.
func (s *ImportService) ImportLocal(ctx context.Context, req LocalImportRequest, progress importers.ProgressFunc) (*importers.Result, error) {
	if len(req.NoteIDs) == 0 {
		return nil, ErrNoNotesSelected
	}

	src, err := s.profiles.Open(req.Profile)
	if err != nil {
		return nil, err
	}

	candidates := make([]entities.Candidate, 0, len(req.NoteIDs))
	for _, id := range req.NoteIDs {
		note, err := src.GetNote(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load note %d: %w", id, err)
		}
		candidates = append(candidates, note)
	}

	return s.importer.Import(ctx, importers.Request{
		Destination: s.dest,
		Source:      src,
		Candidates:  candidates,
		SchemaID:    schemaOrAuto(req.SchemaID),
		DeckID:      req.DeckID,
		Progress:    progress,
	})
}

// ImportRemote maps the examples onto the configured field names and
// imports them. Remote notes always need an explicit schema.
func (s *ImportService) ImportRemote(ctx context.Context, req RemoteImportRequest, progress importers.ProgressFunc) (*importers.Result, error) {
	if len(req.Examples) == 0 {
		return nil, ErrNoNotesSelected
	}

	notes := immersionkit.ToNotes(req.Examples, s.mapping)
	candidates := make([]entities.Candidate, len(notes))
	for i, n := range notes {
		candidates[i] = n
	}

	return s.importer.Import(ctx, importers.Request{
		Destination: s.dest,
		Candidates:  candidates,
		SchemaID:    schemaOrAuto(req.SchemaID),
		DeckID:      req.DeckID,
		Progress:    progress,
	})
}

// schemaOrAuto treats a zero selector as "derive from the source note".
func schemaOrAuto(id int64) int64 {
	if id == 0 {
		return entities.AutoSchemaID
	}
	return id
}
