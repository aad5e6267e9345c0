package utils

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxMediaNameBytes = 120

var (
	// Characters invalid in filenames on most filesystems, plus the square
	// brackets that would break [sound:...] references
	invalidMediaChars = regexp.MustCompile(`[<>:"/\\|?*\[\]\x00-\x1f]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeMediaName makes a desired media file name safe to store and to
// reference from field text. The extension is preserved and the stem is
// truncated on a rune boundary when the name is too long.
func SanitizeMediaName(name string) string {
	name = invalidMediaChars.ReplaceAllString(name, "")
	name = multipleSpaces.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if len(ext) > 16 {
		stem, ext = name, ""
	}
	stem = strings.TrimLeft(stem, ".")

	for len(stem)+len(ext) > maxMediaNameBytes && stem != "" {
		_, size := utf8.DecodeLastRuneInString(stem)
		stem = stem[:len(stem)-size]
	}
	stem = strings.TrimSpace(stem)

	if stem == "" {
		stem = "media"
	}
	return stem + ext
}

// SplitMediaName splits a file name into stem and extension.
func SplitMediaName(name string) (string, string) {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}
