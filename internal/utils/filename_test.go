package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMediaName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "keeps a plain name",
			input:    "dog.jpg",
			expected: "dog.jpg",
		},
		{
			name:     "removes invalid characters",
			input:    `do<>:"/\|?*g.mp3`,
			expected: "dog.mp3",
		},
		{
			name:     "removes square brackets",
			input:    "[sound]clip.mp3",
			expected: "soundclip.mp3",
		},
		{
			name:     "collapses whitespace",
			input:    "a   b\t c.png",
			expected: "a b c.png",
		},
		{
			name:     "strips leading dots",
			input:    "..hidden.png",
			expected: "hidden.png",
		},
		{
			name:     "falls back for empty stem",
			input:    "<>.png",
			expected: "media.png",
		},
		{
			name:     "keeps unicode",
			input:    "犬の声.mp3",
			expected: "犬の声.mp3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeMediaName(tt.input))
		})
	}
}

func TestSanitizeMediaName_TruncatesLongNames(t *testing.T) {
	got := SanitizeMediaName(strings.Repeat("犬", 100) + ".mp3")

	assert.LessOrEqual(t, len(got), maxMediaNameBytes)
	assert.True(t, strings.HasSuffix(got, ".mp3"))
	assert.True(t, strings.HasPrefix(got, "犬"))
}

func TestSplitMediaName(t *testing.T) {
	stem, ext := SplitMediaName("clip.01.mp3")
	assert.Equal(t, "clip.01", stem)
	assert.Equal(t, ".mp3", ext)

	stem, ext = SplitMediaName("noext")
	assert.Equal(t, "noext", stem)
	assert.Equal(t, "", ext)
}
