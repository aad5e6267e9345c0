// Package decks provides database operations for decks.
package decks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/notebridge/internal/entities"
)

// Repository handles deck persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new decks repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// All returns decks sorted by name.
func (r *Repository) All(ctx context.Context) ([]entities.Deck, error) {
	var decks []entities.Deck
	err := r.db.WithContext(ctx).Order("name ASC").Find(&decks).Error
	return decks, err
}

// ByID looks up a deck. The boolean is false when it does not exist.
func (r *Repository) ByID(ctx context.Context, id int64) (entities.Deck, bool, error) {
	var deck entities.Deck
	err := r.db.WithContext(ctx).First(&deck, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.Deck{}, false, nil
	}
	if err != nil {
		return entities.Deck{}, false, err
	}
	return deck, true, nil
}

// GetOrCreate returns the deck with the given name, creating it if needed.
func (r *Repository) GetOrCreate(ctx context.Context, name string) (entities.Deck, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return entities.Deck{}, errors.New("deck name is required")
	}

	deck := entities.Deck{Name: name}
	err := r.db.WithContext(ctx).Where(entities.Deck{Name: name}).FirstOrCreate(&deck).Error
	if err != nil {
		return entities.Deck{}, fmt.Errorf("get or create deck %q: %w", name, err)
	}
	return deck, nil
}
