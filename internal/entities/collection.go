package entities

import (
	"strings"
	"time"
)

// FieldSeparator joins field values (and schema field names) in a single column.
const FieldSeparator = "\x1f"

// AutoSchemaID selects "derive the schema from the source note".
const AutoSchemaID int64 = -1

// WholeCollectionID is the deck selector that searches every deck.
const WholeCollectionID int64 = -1

// Card queues, mirroring the collection's scheduler.
const (
	QueueUserBuried  = -3
	QueueSchedBuried = -2
	QueueSuspended   = -1
	QueueNew         = 0
	QueueLearn       = 1
	QueueReview      = 2
	QueueDayLearn    = 3
)

// Card types.
const (
	CardTypeNew     = 0
	CardTypeLearn   = 1
	CardTypeReview  = 2
	CardTypeRelearn = 3
)

// CollectionInfo holds the single-row collection header.
type CollectionInfo struct {
	ID      int64 `gorm:"primaryKey;column:id"`
	Crt     int64 `gorm:"column:crt"` // creation time, unix seconds
	Mod     int64 `gorm:"column:mod"`
	CurDeck int64 `gorm:"column:cur_deck"`
}

func (CollectionInfo) TableName() string {
	return "col"
}

// CreatedAt returns the collection creation time.
func (c CollectionInfo) CreatedAt() time.Time {
	return time.Unix(c.Crt, 0)
}

// Notetype is a persisted schema: an ordered field list plus card templates.
type Notetype struct {
	ID    int64  `gorm:"primaryKey;column:id" json:"id"`
	Name  string `gorm:"column:name;index;not null" json:"name"`
	Flds  string `gorm:"column:flds;type:text" json:"-"`
	Tmpls string `gorm:"column:tmpls;type:text" json:"-"`
	Mod   int64  `gorm:"column:mod" json:"mod"`
}

func (Notetype) TableName() string {
	return "notetypes"
}

// Descriptor converts the row into a SchemaDescriptor.
func (n Notetype) Descriptor() SchemaDescriptor {
	return SchemaDescriptor{
		ID:        n.ID,
		Name:      n.Name,
		Fields:    SplitFields(n.Flds),
		Templates: SplitFields(n.Tmpls),
	}
}

// Deck is a named container of cards.
type Deck struct {
	ID   int64  `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (Deck) TableName() string {
	return "decks"
}

// Note is a persisted record. Fields are stored joined by FieldSeparator,
// tags space-separated with a leading and trailing space.
type Note struct {
	ID      int64  `gorm:"primaryKey;column:id" json:"id"`
	GUID    string `gorm:"column:guid;uniqueIndex" json:"guid"`
	Mid     int64  `gorm:"column:mid;index" json:"mid"`
	Mod     int64  `gorm:"column:mod" json:"mod"`
	Tags    string `gorm:"column:tags;type:text" json:"-"`
	Flds    string `gorm:"column:flds;type:text" json:"-"`
	Sfld    string `gorm:"column:sfld;type:text" json:"-"`
	Csum    int64  `gorm:"column:csum;index" json:"-"`
	BatchID string `gorm:"column:batch_id;index;size:36" json:"batch_id,omitempty"`
}

func (Note) TableName() string {
	return "notes"
}

// FieldValues returns the note's field values in schema order.
func (n Note) FieldValues() []string {
	return strings.Split(n.Flds, FieldSeparator)
}

// TagList returns the note's tags.
func (n Note) TagList() []string {
	return strings.Fields(n.Tags)
}

// Card is a schedulable unit generated from a note template.
type Card struct {
	ID      int64  `gorm:"primaryKey;column:id" json:"id"`
	NoteID  int64  `gorm:"column:nid;index" json:"nid"`
	DeckID  int64  `gorm:"column:did;index" json:"did"`
	Ord     int    `gorm:"column:ord" json:"ord"`
	Mod     int64  `gorm:"column:mod" json:"mod"`
	Type    int    `gorm:"column:type" json:"type"`
	Queue   int    `gorm:"column:queue" json:"queue"`
	Due     int64  `gorm:"column:due" json:"due"`
	Ivl     int    `gorm:"column:ivl" json:"ivl"`
	Factor  int    `gorm:"column:factor" json:"factor"`
	Reps    int    `gorm:"column:reps" json:"reps"`
	Left    int    `gorm:"column:left" json:"left"`
	ODue    int64  `gorm:"column:odue" json:"odue"`
	BatchID string `gorm:"column:batch_id;index;size:36" json:"batch_id,omitempty"`
}

func (Card) TableName() string {
	return "cards"
}

// InDayQueue reports whether Due counts days since collection creation.
// Review cards keep a day-based Due while suspended or buried.
func (c Card) InDayQueue() bool {
	return c.Type == CardTypeReview || c.Queue == QueueReview || c.Queue == QueueDayLearn
}

// SplitFields splits a FieldSeparator-joined column. An empty column yields nil.
func SplitFields(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, FieldSeparator)
}

// JoinFields is the inverse of SplitFields.
func JoinFields(fields []string) string {
	return strings.Join(fields, FieldSeparator)
}

// JoinTags renders tags in the column format used by the notes table.
func JoinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ") + " "
}
