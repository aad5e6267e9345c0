// Package notes provides database operations for notes and their cards,
// including the batched insert used by imports and its undo.
package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/notebridge/internal/entities"
	"github.com/mrlokans/notebridge/internal/utils"
)

var (
	// ErrBatchNotFound indicates the import batch does not exist.
	ErrBatchNotFound = errors.New("import batch not found")

	// ErrBatchUndone indicates the import batch was already undone.
	ErrBatchUndone = errors.New("import batch already undone")
)

// Repository handles note and card persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new notes repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InsertBatch records the batch and inserts every pending note with its
// cards in one transaction. Returned IDs follow the order of pending.
func (r *Repository) InsertBatch(ctx context.Context, batch *entities.ImportBatch, pending []entities.PendingNote) ([]int64, error) {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now()
	}

	ids := make([]int64, 0, len(pending))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return fmt.Errorf("create batch: %w", err)
		}

		now := time.Now().Unix()
		for i := range pending {
			p := &pending[i]
			note := newNote(p, batch.ID, now)
			if err := tx.Create(&note).Error; err != nil {
				return fmt.Errorf("insert note %d of %d: %w", i+1, len(pending), err)
			}

			if len(p.Cards) > 0 {
				cards := make([]entities.Card, len(p.Cards))
				for j, card := range p.Cards {
					card.ID = 0
					card.NoteID = note.ID
					card.BatchID = batch.ID
					if card.DeckID == 0 {
						card.DeckID = p.DeckID
					}
					if card.Mod == 0 {
						card.Mod = now
					}
					cards[j] = card
				}
				if err := tx.Create(&cards).Error; err != nil {
					return fmt.Errorf("insert cards for note %d: %w", note.ID, err)
				}
			}

			ids = append(ids, note.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func newNote(p *entities.PendingNote, batchID string, now int64) entities.Note {
	var first string
	if len(p.Fields) > 0 {
		first = p.Fields[0]
	}
	sfld := utils.StripHTML(first)

	return entities.Note{
		GUID:    uuid.NewString(),
		Mid:     p.SchemaID,
		Mod:     now,
		Tags:    entities.JoinTags(p.Tags),
		Flds:    entities.JoinFields(p.Fields),
		Sfld:    sfld,
		Csum:    utils.FieldChecksum(sfld),
		BatchID: batchID,
	}
}

// ByChecksum returns notes of a note type whose first-field checksum matches.
func (r *Repository) ByChecksum(ctx context.Context, mid, csum int64) ([]entities.Note, error) {
	var notes []entities.Note
	err := r.db.WithContext(ctx).Where("mid = ? AND csum = ?", mid, csum).Find(&notes).Error
	return notes, err
}

// ByID retrieves a note.
func (r *Repository) ByID(ctx context.Context, id int64) (*entities.Note, error) {
	var note entities.Note
	if err := r.db.WithContext(ctx).First(&note, id).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// Cards returns a note's cards in template order.
func (r *Repository) Cards(ctx context.Context, noteID int64) ([]entities.Card, error) {
	var cards []entities.Card
	err := r.db.WithContext(ctx).Where("nid = ?", noteID).Order("ord ASC").Find(&cards).Error
	return cards, err
}

// Count returns the number of notes in the collection.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Note{}).Count(&n).Error
	return n, err
}

// Batch retrieves an import batch.
func (r *Repository) Batch(ctx context.Context, id string) (*entities.ImportBatch, error) {
	var batch entities.ImportBatch
	err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// Batches returns the most recent import batches first.
func (r *Repository) Batches(ctx context.Context, limit int) ([]entities.ImportBatch, error) {
	var batches []entities.ImportBatch
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&batches).Error
	return batches, err
}

// UndoBatch removes every note and card inserted by the batch and marks the
// batch undone. Returns the number of notes removed.
func (r *Repository) UndoBatch(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batch entities.ImportBatch
		err := tx.First(&batch, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBatchNotFound
		}
		if err != nil {
			return err
		}
		if batch.UndoneAt != nil {
			return ErrBatchUndone
		}

		if err := tx.Where("batch_id = ?", id).Delete(&entities.Card{}).Error; err != nil {
			return fmt.Errorf("delete cards: %w", err)
		}
		result := tx.Where("batch_id = ?", id).Delete(&entities.Note{})
		if result.Error != nil {
			return fmt.Errorf("delete notes: %w", result.Error)
		}
		removed = result.RowsAffected

		now := time.Now()
		return tx.Model(&batch).Update("undone_at", &now).Error
	})
	return removed, err
}
