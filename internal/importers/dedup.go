package importers

import (
	"context"
	"fmt"

	"github.com/mrlokans/notebridge/internal/entities"
	"github.com/mrlokans/notebridge/internal/utils"
)

// DuplicateDetector applies the destination's duplicate rule: two notes of
// the same schema collide when their HTML-stripped first fields are equal.
type DuplicateDetector struct {
	dest Destination
}

func NewDuplicateDetector(dest Destination) *DuplicateDetector {
	return &DuplicateDetector{dest: dest}
}

// IsDuplicate reports whether fields collide with a note already in the
// destination. A note whose first field is empty after stripping is treated
// as a duplicate too; such a note would be unusable.
func (d *DuplicateDetector) IsDuplicate(ctx context.Context, fields []string, schema entities.SchemaDescriptor) (bool, error) {
	var first string
	if len(fields) > 0 {
		first = fields[0]
	}

	stripped := utils.StripHTML(first)
	if stripped == "" {
		return true, nil
	}

	notes, err := d.dest.NotesByChecksum(ctx, schema.ID, utils.FieldChecksum(stripped))
	if err != nil {
		return false, fmt.Errorf("failed to check duplicates: %w", err)
	}
	for _, n := range notes {
		if n.Sfld == stripped {
			return true, nil
		}
	}
	return false, nil
}
