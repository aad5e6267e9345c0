// Package notetypes provides database operations for note types (schemas).
package notetypes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/notebridge/internal/entities"
)

// Repository handles note type persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new note types repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// All returns every note type ordered by name.
func (r *Repository) All(ctx context.Context) ([]entities.SchemaDescriptor, error) {
	var rows []entities.Notetype
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	schemas := make([]entities.SchemaDescriptor, len(rows))
	for i, row := range rows {
		schemas[i] = row.Descriptor()
	}
	return schemas, nil
}

// ByID looks up a note type. The boolean is false when it does not exist.
func (r *Repository) ByID(ctx context.Context, id int64) (entities.SchemaDescriptor, bool, error) {
	var row entities.Notetype
	err := r.db.WithContext(ctx).First(&row, id).Error
	return found(row, err)
}

// ByName looks up a note type by exact name.
func (r *Repository) ByName(ctx context.Context, name string) (entities.SchemaDescriptor, bool, error) {
	var row entities.Notetype
	err := r.db.WithContext(ctx).Where("name = ?", name).Order("id ASC").First(&row).Error
	return found(row, err)
}

// Create persists a new note type. The descriptor's ID is ignored and a
// fresh one is assigned.
func (r *Repository) Create(ctx context.Context, schema entities.SchemaDescriptor) (entities.SchemaDescriptor, error) {
	if schema.Name == "" {
		return entities.SchemaDescriptor{}, errors.New("note type name is required")
	}
	if len(schema.Fields) == 0 {
		return entities.SchemaDescriptor{}, fmt.Errorf("note type %q has no fields", schema.Name)
	}

	row := entities.Notetype{
		Name:  schema.Name,
		Flds:  entities.JoinFields(schema.Fields),
		Tmpls: entities.JoinFields(schema.Templates),
		Mod:   time.Now().Unix(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return entities.SchemaDescriptor{}, fmt.Errorf("create note type %q: %w", schema.Name, err)
	}
	return row.Descriptor(), nil
}

func found(row entities.Notetype, err error) (entities.SchemaDescriptor, bool, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.SchemaDescriptor{}, false, nil
	}
	if err != nil {
		return entities.SchemaDescriptor{}, false, err
	}
	return row.Descriptor(), true, nil
}
