package immersionkit

import (
	"strings"

	"github.com/mrlokans/notebridge/internal/entities"
)

// Example is one sentence returned by the catalog
type Example struct {
	ID                   string   `json:"id"`
	Sentence             string   `json:"sentence"`
	SentenceWithFurigana string   `json:"sentence_with_furigana"`
	Translation          string   `json:"translation"`
	Image                string   `json:"image"`
	Sound                string   `json:"sound"`
	Category             string   `json:"category"`
	Title                string   `json:"title"`
	Tags                 []string `json:"tags"`
}

// ToNote maps the example onto destination field names. Media fields start
// empty; they are filled with embed markup once the files are downloaded.
// Attributes mapped to an empty field name are dropped.
func (e Example) ToNote(mapping entities.RemoteFieldMapping) *entities.RemoteNote {
	note := &entities.RemoteNote{ExampleID: e.ID}

	add := func(name, value string) {
		if name == "" {
			return
		}
		if _, exists := note.Field(name); exists {
			return
		}
		note.Fields = append(note.Fields, entities.FieldValue{Name: name, Value: value})
	}
	add(mapping.SentenceKanji, e.Sentence)
	add(mapping.SentenceFurigana, e.SentenceWithFurigana)
	add(mapping.SentenceEng, e.Translation)
	add(mapping.SentenceAudio, "")
	add(mapping.Image, "")
	add(mapping.Notes, e.ID)

	if mapping.Image != "" {
		note.Media = append(note.Media, entities.RemoteMedia{
			Field: mapping.Image,
			URL:   e.Image,
			Kind:  entities.MediaKindImage,
		})
	}
	if mapping.SentenceAudio != "" {
		note.Media = append(note.Media, entities.RemoteMedia{
			Field: mapping.SentenceAudio,
			URL:   e.Sound,
			Kind:  entities.MediaKindAudio,
		})
	}

	if tag := titleTag(e.Title); tag != "" {
		note.Tags = []string{tag}
	}
	return note
}

// ToNotes maps every example.
func ToNotes(examples []Example, mapping entities.RemoteFieldMapping) []*entities.RemoteNote {
	notes := make([]*entities.RemoteNote, len(examples))
	for i, e := range examples {
		notes[i] = e.ToNote(mapping)
	}
	return notes
}

// titleTag turns a title into a single tag: whitespace runs become "_".
func titleTag(title string) string {
	return strings.Join(strings.Fields(title), "_")
}
