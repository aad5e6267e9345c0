package importers

import (
	"math"
	"time"

	"github.com/mrlokans/notebridge/internal/entities"
)

const secondsPerDay = 86400

// DayOffset is the number of days, rounded up, to add to a day-based due
// value when moving a card from a collection created at srcCreated into one
// created at dstCreated.
func DayOffset(srcCreated, dstCreated time.Time) int {
	diff := srcCreated.Unix() - dstCreated.Unix()
	return int(math.Ceil(float64(diff) / secondsPerDay))
}

// Transplant copies scheduling state from src onto dst. Identity (ID, note,
// deck, template ordinal) is left alone. Due values counted in days are
// shifted by dayOffset; other queues store timestamps or positions and are
// copied verbatim.
func Transplant(dst *entities.Card, src entities.Card, dayOffset int) {
	dst.Type = src.Type
	dst.Queue = src.Queue
	dst.Due = src.Due
	dst.ODue = src.ODue
	dst.Ivl = src.Ivl
	dst.Factor = src.Factor
	dst.Reps = src.Reps
	dst.Left = src.Left
	dst.Mod = src.Mod

	if src.InDayQueue() {
		dst.Due += int64(dayOffset)
	}
}

// TransplantAll pairs cards by position. When the two sides have different
// template counts the trailing cards on the longer side keep their state.
func TransplantAll(dst []entities.Card, src []entities.Card, dayOffset int) {
	for i := range min(len(dst), len(src)) {
		Transplant(&dst[i], src[i], dayOffset)
	}
}

// newCards creates fresh cards for every template of schema.
func newCards(schema entities.SchemaDescriptor, deckID int64) []entities.Card {
	cards := make([]entities.Card, schema.CardCount())
	for i := range cards {
		cards[i] = entities.Card{
			DeckID: deckID,
			Ord:    i,
			Type:   entities.CardTypeNew,
			Queue:  entities.QueueNew,
		}
	}
	return cards
}
