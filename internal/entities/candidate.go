package entities

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

// SchemaDescriptor is the resolved shape of a note type.
type SchemaDescriptor struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Fields    []string `json:"fields"`
	Templates []string `json:"templates,omitempty"`
}

// SameFields reports whether the ordered field names are identical.
func (s SchemaDescriptor) SameFields(fields []string) bool {
	return slices.Equal(s.Fields, fields)
}

// CardCount is the number of cards a note of this schema produces.
func (s SchemaDescriptor) CardCount() int {
	return max(1, len(s.Templates))
}

// FieldIndex returns the position of a field, or -1.
func (s SchemaDescriptor) FieldIndex(name string) int {
	return slices.Index(s.Fields, name)
}

type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindImage MediaKind = "image"
)

// EmbedMarkup returns the field markup that references a stored media file.
func (k MediaKind) EmbedMarkup(fileName string) string {
	if fileName == "" {
		return ""
	}
	if k == MediaKindImage {
		return fmt.Sprintf(`<img src="%s">`, fileName)
	}
	return fmt.Sprintf("[sound:%s]", fileName)
}

// MediaAsset describes one media file moved by an import.
type MediaAsset struct {
	Field  string    `json:"field"`
	Source string    `json:"source"`
	Name   string    `json:"name"`
	Kind   MediaKind `json:"kind"`
}

// FieldValue is a single named field of a candidate note.
type FieldValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Candidate is a note offered for import. The concrete type is either
// *LocalNote (read from another collection) or *RemoteNote (built from a
// catalog response); callers switch on it explicitly.
type Candidate interface {
	FieldNames() []string
	Field(name string) (string, bool)
	TagList() []string
	isCandidate()
}

// LocalNote is a note read from another local collection.
type LocalNote struct {
	ID     int64            `json:"id"`
	Schema SchemaDescriptor `json:"schema"`
	Fields []FieldValue     `json:"fields"`
	Tags   []string         `json:"tags"`
	Cards  []Card           `json:"cards,omitempty"`
}

func (n *LocalNote) FieldNames() []string { return fieldNames(n.Fields) }

func (n *LocalNote) Field(name string) (string, bool) { return lookupField(n.Fields, name) }

func (n *LocalNote) TagList() []string { return n.Tags }

func (*LocalNote) isCandidate() {}

// RemoteMedia is a media slot of a remote note.
type RemoteMedia struct {
	Field string    `json:"field"`
	URL   string    `json:"url"`
	Kind  MediaKind `json:"kind"`
}

// Valid reports whether the slot carries downloadable media. The catalog
// only serves https links; anything else means "no media".
func (m RemoteMedia) Valid() bool {
	return strings.HasPrefix(m.URL, "https://")
}

// FileName is the last path segment of the URL.
func (m RemoteMedia) FileName() string {
	if !m.Valid() {
		return ""
	}
	return path.Base(strings.SplitN(m.URL, "?", 2)[0])
}

// RemoteNote is a catalog example mapped onto user-configured field names.
// It has no schema and no cards.
type RemoteNote struct {
	ExampleID string        `json:"example_id"`
	Fields    []FieldValue  `json:"fields"`
	Tags      []string      `json:"tags"`
	Media     []RemoteMedia `json:"media"`
}

func (n *RemoteNote) FieldNames() []string { return fieldNames(n.Fields) }

func (n *RemoteNote) Field(name string) (string, bool) { return lookupField(n.Fields, name) }

func (n *RemoteNote) TagList() []string { return n.Tags }

func (*RemoteNote) isCandidate() {}

// RemoteFieldMapping maps catalog attributes onto destination field names.
type RemoteFieldMapping struct {
	SentenceKanji    string `mapstructure:"sentence_kanji" json:"sentence_kanji"`
	SentenceFurigana string `mapstructure:"sentence_furigana" json:"sentence_furigana"`
	SentenceEng      string `mapstructure:"sentence_eng" json:"sentence_eng"`
	SentenceAudio    string `mapstructure:"sentence_audio" json:"sentence_audio"`
	Image            string `mapstructure:"image" json:"image"`
	Notes            string `mapstructure:"notes" json:"notes"`
}

// DefaultRemoteFieldMapping matches the field names of the common sentence-card note type.
func DefaultRemoteFieldMapping() RemoteFieldMapping {
	return RemoteFieldMapping{
		SentenceKanji:    "SentKanji",
		SentenceFurigana: "SentFurigana",
		SentenceEng:      "SentEng",
		SentenceAudio:    "SentAudio",
		Image:            "Image",
		Notes:            "Notes",
	}
}

func fieldNames(fields []FieldValue) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func lookupField(fields []FieldValue, name string) (string, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}
