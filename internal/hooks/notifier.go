// Package hooks notifies external listeners about notes added by an import.
package hooks

import (
	"context"
	"log/slog"

	"github.com/mrlokans/notebridge/internal/entities"
)

// Notifier receives one call per note committed by an import batch.
type Notifier interface {
	NoteAdded(ctx context.Context, note entities.InsertedNote)
}

// LogNotifier writes one log line per added note.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NoteAdded(ctx context.Context, note entities.InsertedNote) {
	n.logger.InfoContext(ctx, "Note added",
		"note_id", note.ID,
		"batch_id", note.BatchID,
		"schema_id", note.SchemaID,
		"deck_id", note.DeckID,
	)
}

// Multi fans a notification out to several notifiers in order.
// Nil entries are skipped.
type Multi []Notifier

func (m Multi) NoteAdded(ctx context.Context, note entities.InsertedNote) {
	for _, n := range m {
		if n != nil {
			n.NoteAdded(ctx, note)
		}
	}
}
