package profiles

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/mrlokans/notebridge/internal/entities"
)

// SortOrder orders search results.
type SortOrder string

const (
	SortNone           SortOrder = ""
	SortSentenceLength SortOrder = "length"
	SortNoteID         SortOrder = "id"
)

// SortNotes orders notes in place. With SortSentenceLength, notes are ordered
// by the rune length of field, then its text; notes without the field go last.
func SortNotes(notes []*entities.LocalNote, order SortOrder, field string) {
	switch order {
	case SortSentenceLength:
		key := func(n *entities.LocalNote) (int, string) {
			v, ok := n.Field(field)
			if !ok {
				return math.MaxInt, ""
			}
			return utf8.RuneCountInString(v), v
		}
		sort.SliceStable(notes, func(i, j int) bool {
			li, vi := key(notes[i])
			lj, vj := key(notes[j])
			if li != lj {
				return li < lj
			}
			return vi < vj
		})
	case SortNoteID:
		sort.SliceStable(notes, func(i, j int) bool {
			return notes[i].ID < notes[j].ID
		})
	}
}
