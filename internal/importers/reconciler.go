package importers

import (
	"context"
	"fmt"
	"sync"

	"github.com/mrlokans/notebridge/internal/entities"
)

// maxCloneSuffix bounds the search for a free "Name-N" clone name.
const maxCloneSuffix = 1000

// Reconciler picks the destination schema for a candidate.
type Reconciler struct {
	dest Destination

	// cloneMu serializes lookup-then-create so concurrent workers of one
	// batch cannot clone the same schema twice.
	cloneMu sync.Mutex
}

func NewReconciler(dest Destination) *Reconciler {
	return &Reconciler{dest: dest}
}

// Resolve returns the destination schema for src.
//
// An explicit selector is returned as is, even when its fields differ from
// the source's; missing fields are left empty. With AutoSchemaID, a local
// note's schema is reused when the destination has one with the same name
// and the same ordered fields. Otherwise a clone is created under the first
// free name of "Name-1", "Name-2", ... or an earlier matching clone is
// reused. Remote notes carry no schema and fail with ErrSchemaRequired.
func (r *Reconciler) Resolve(ctx context.Context, selector int64, src entities.Candidate) (entities.SchemaDescriptor, error) {
	if selector != entities.AutoSchemaID {
		schema, ok, err := r.dest.SchemaByID(ctx, selector)
		if err != nil {
			return entities.SchemaDescriptor{}, fmt.Errorf("failed to look up schema %d: %w", selector, err)
		}
		if !ok {
			return entities.SchemaDescriptor{}, fmt.Errorf("%w: %d", ErrUnknownSchema, selector)
		}
		return schema, nil
	}

	local, ok := src.(*entities.LocalNote)
	if !ok {
		return entities.SchemaDescriptor{}, ErrSchemaRequired
	}
	source := local.Schema
	if source.Name == "" {
		return entities.SchemaDescriptor{}, fmt.Errorf("source note %d has no schema name", local.ID)
	}

	r.cloneMu.Lock()
	defer r.cloneMu.Unlock()

	for i := 0; i <= maxCloneSuffix; i++ {
		name := source.Name
		if i > 0 {
			name = fmt.Sprintf("%s-%d", source.Name, i)
		}

		existing, found, err := r.dest.SchemaByName(ctx, name)
		if err != nil {
			return entities.SchemaDescriptor{}, fmt.Errorf("failed to look up schema %q: %w", name, err)
		}
		if found && existing.SameFields(source.Fields) {
			return existing, nil
		}
		if found {
			continue
		}

		clone := source
		clone.ID = 0
		clone.Name = name
		created, err := r.dest.CreateSchema(ctx, clone)
		if err != nil {
			return entities.SchemaDescriptor{}, fmt.Errorf("failed to clone schema %q: %w", source.Name, err)
		}
		return created, nil
	}

	return entities.SchemaDescriptor{}, fmt.Errorf("no free name to clone schema %q", source.Name)
}
